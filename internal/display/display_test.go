package display

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loot-tracker/internal/ledger"
	"loot-tracker/internal/loot"
	"loot-tracker/internal/tracker"
	"loot-tracker/pkg/logger"
)

var testEntries = []ledger.Entry{
	{ID: 1, Name: "Black Stone", Amount: 3, UnitPrice: 200_000, Hour: 12, Minute: 5},
	{ID: 2, Name: "Silver", Amount: 12_500, UnitPrice: 1, Hour: 12, Minute: 6},
}

func TestFormatEntry(t *testing.T) {
	assert.Equal(t, "[1] Black Stone x3 | 200,000 each | 600,000 (600.00K)", FormatEntry(testEntries[0]))
	assert.Equal(t, "[2] Silver x12,500 | 1 each | 12,500 (12.50K)", FormatEntry(testEntries[1]))
}

func TestFormatHeader(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 10, 0, 0, time.UTC)
	st := tracker.Status{
		State:     tracker.Started,
		Mode:      loot.ChatLog,
		StartedAt: now.Add(-5 * time.Minute),
	}

	header := FormatHeader(st, testEntries, now)
	assert.Equal(t, "chat log | started 5 minutes ago | 2 items | total 612,500 (612.50K)", header)

	st = tracker.Status{State: tracker.Stopped, Mode: loot.DropLog, Err: "capture: boom"}
	header = FormatHeader(st, nil, now)
	assert.Equal(t, "drop log | stopped | error: capture: boom | 0 items | total 0 (0.00)", header)
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, "header", testEntries))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "header", lines[0])
	assert.Contains(t, lines[1], "ITEM")
	assert.Contains(t, lines[2], "Black Stone")
	assert.Contains(t, lines[2], "600.00K")
	assert.Contains(t, lines[3], "12,500")
	assert.Contains(t, lines[3], "12:06")
}

func newTestMenu(h Handlers, output string, code int) (*LootMenu, *string) {
	var input string
	m := &LootMenu{
		handlers: h,
		log:      logger.Nop(),
		run: func(args []string, in string) (string, int, error) {
			input = in
			return output, code, nil
		},
	}
	return m, &input
}

func TestMenuDispatchesKeybindings(t *testing.T) {
	var called []string
	h := Handlers{
		Toggle: func(string) error { called = append(called, "toggle"); return nil },
		Reset:  func(string) error { called = append(called, "reset"); return nil },
		Mode:   func(sel string) error { called = append(called, "mode:"+sel); return nil },
	}

	for code, row := range map[int]string{10: "", 11: "", 12: "[1] Black Stone"} {
		m, input := newTestMenu(h, row+"\n", code)
		require.NoError(t, m.Show("header", testEntries))
		assert.Contains(t, *input, "[2] Silver x12,500")
	}
	assert.ElementsMatch(t, []string{"toggle", "reset", "mode:[1] Black Stone"}, called)
}

func TestMenuDismissAndErrors(t *testing.T) {
	boom := errors.New("boom")
	h := Handlers{Reset: func(string) error { return boom }}

	m, input := newTestMenu(h, "", 1)
	require.NoError(t, m.Show("header", nil))
	assert.Equal(t, "No loot yet", *input)

	m, _ = newTestMenu(h, "", 11)
	assert.ErrorIs(t, m.Show("header", nil), boom)

	// unbound keybinding
	m, _ = newTestMenu(h, "", 10)
	assert.NoError(t, m.Show("header", nil))
}
