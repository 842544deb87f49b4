package loot

import "fmt"

// Event is one "item obtained" record parsed from a single recognized line.
type Event struct {
	Name   string `json:"name"`
	Amount uint64 `json:"amount"`
	Hour   uint8  `json:"hour"`
	Minute uint8  `json:"minute"`
}

func (e Event) String() string {
	return fmt.Sprintf("%s x%d (%02d:%02d)", e.Name, e.Amount, e.Hour, e.Minute)
}
