package notify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loot-tracker/pkg/logger"
)

func TestNotifyCommandReceivesTypeAndMessage(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	n := NewNotifyService(`printf '%s|%s' > `+out, logger.Nop())

	require.NoError(t, n.Show("it's a drop", Info))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "INFO|it's a drop", string(data))
}

func TestWriteToLogFileAppends(t *testing.T) {
	n := NewNotifyService("", logger.Nop())
	n.logPath = filepath.Join(t.TempDir(), "logs", "notifications.log")

	require.NoError(t, n.writeToLogFile("Loot Tracker", "started", Info))
	require.NoError(t, n.writeToLogFile("Loot Tracker", "capture lost", Error))

	data, err := os.ReadFile(n.logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Loot Tracker - INFO: started")
	assert.Contains(t, string(data), "Loot Tracker - ERROR: capture lost")
}

func TestShellQuote(t *testing.T) {
	assert.Equal(t, `'plain'`, shellQuote("plain"))
	assert.Equal(t, `'it'\''s'`, shellQuote("it's"))
}

func TestNotifierArgs(t *testing.T) {
	assert.Equal(t,
		[]string{"-a", "loot-tracker", "-r", "4242", "-u", "critical", "-t", "5000", "Loot Tracker", "capture lost"},
		dunstifyArgs("Loot Tracker", "capture lost", Error))
	assert.Equal(t,
		[]string{"-a", "loot-tracker", "-h", "string:x-dunst-stack-tag:loot-tracker", "-u", "low", "Loot Tracker", "started"},
		notifySendArgs("Loot Tracker", "started", Info))
	assert.Equal(t, []string{"--notification", "--text", "Loot Tracker: started"}, zenityArgs("Loot Tracker", "started", Info))
	assert.Equal(t, "--error", zenityArgs("Loot Tracker", "boom", Error)[0])
}

func TestSystemNotificationWithoutTools(t *testing.T) {
	n := NewNotifyService("", logger.Nop())
	n.lookPath = func(string) (string, error) { return "", os.ErrNotExist }

	assert.ErrorIs(t, n.trySystemNotification("Loot Tracker", "started", Info), errNoNotificationTool)
}
