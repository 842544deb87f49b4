package display

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"loot-tracker/internal/ledger"
	"loot-tracker/pkg/core"
)

// ActionHandler runs for a rofi keybinding. selected is the highlighted row.
type ActionHandler func(selected string) error

type Handlers struct {
	Toggle ActionHandler
	Reset  ActionHandler
	Mode   ActionHandler
}

const menuMessage = "S (start/stop) | R (reset) | M (switch mode)"

var baseArgs = []string{
	"-dmenu",
	"-i",
	"-p", "Loot",
	"-kb-custom-1", "s",
	"-kb-custom-2", "r",
	"-kb-custom-3", "m",
	"-kb-accept-entry", "Return",
}

// LootMenu shows the ledger in a rofi menu.
type LootMenu struct {
	handlers Handlers
	log      core.Logger
	run      func(args []string, input string) (string, int, error)
}

func NewLootMenu(handlers Handlers, log core.Logger) (*LootMenu, error) {
	if _, err := exec.LookPath("rofi"); err != nil {
		return nil, fmt.Errorf("rofi not found: %w", err)
	}
	log.Info("Initializing rofi loot menu")
	return &LootMenu{handlers: handlers, log: log, run: runRofi}, nil
}

func runRofi(args []string, input string) (string, int, error) {
	cmd := exec.Command("rofi", args...)
	cmd.Stdin = strings.NewReader(input)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return string(output), exitErr.ExitCode(), nil
		}
		return "", 0, fmt.Errorf("failed to run rofi: %w", err)
	}
	return string(output), 0, nil
}

// Show blocks until rofi exits and dispatches the pressed keybinding.
func (m *LootMenu) Show(header string, entries []ledger.Entry) error {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, FormatEntry(e))
	}
	if len(lines) == 0 {
		lines = append(lines, "No loot yet")
	}

	args := append(append([]string{}, baseArgs...), "-mesg", header+"\n"+menuMessage)
	m.log.Debug("Opening rofi", "entries", len(entries))

	output, code, err := m.run(args, strings.Join(lines, "\n"))
	if err != nil {
		m.log.Error("Failed to run rofi", err)
		return err
	}
	return m.handleExitCode(strings.TrimSpace(output), code)
}

func (m *LootMenu) handleExitCode(selected string, exitCode int) error {
	m.log.Debug("Processing rofi exit code", "exit_code", exitCode, "selected", selected)
	var handler ActionHandler
	switch exitCode {
	case 0, 1:
		// accepted a row or dismissed
		return nil
	case 10:
		handler = m.handlers.Toggle
	case 11:
		handler = m.handlers.Reset
	case 12:
		handler = m.handlers.Mode
	default:
		m.log.Warn("Unhandled rofi exit code", "exit_code", exitCode)
		return nil
	}
	if handler == nil {
		return nil
	}
	return handler(selected)
}
