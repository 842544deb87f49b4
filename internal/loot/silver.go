package loot

import "fmt"

// Silver is the in-game currency amount.
type Silver uint64

var silverUnits = [...]string{"", "K", "M", "B", "T"}

// Times returns amount * s.
func (s Silver) Times(amount uint64) Silver {
	return Silver(amount) * s
}

// String renders the value scaled by powers of 1000, e.g. 1.50K or 2.35M.
func (s Silver) String() string {
	val := float64(s)
	idx := 0
	for val >= 1000 && idx < len(silverUnits)-1 {
		val /= 1000
		idx++
	}
	return fmt.Sprintf("%.2f%s", val, silverUnits[idx])
}
