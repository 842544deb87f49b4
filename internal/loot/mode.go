package loot

import (
	"fmt"
	"strings"
)

// Mode selects the log grammar, the diff tolerance and the calibration heuristic.
type Mode int

const (
	// ChatLog reads "You have obtained [Item]xN. (HH:MM)" lines from the chat window.
	ChatLog Mode = iota
	// DropLog reads "Item x N" lines from the small loot panel.
	DropLog
)

func (m Mode) String() string {
	switch m {
	case ChatLog:
		return "chat"
	case DropLog:
		return "drop"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode accepts the names used in config files and control commands.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "chat", "chatlog", "chat_log":
		return ChatLog, nil
	case "drop", "droplog", "drop_log":
		return DropLog, nil
	}
	return 0, fmt.Errorf("unknown detection mode %q", s)
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
