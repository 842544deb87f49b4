package overlay

import (
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/tidwall/gjson"
)

const maxDebugLines = 1000

// DebugPanel is a secondary window mirroring the log stream.
type DebugPanel struct {
	window   fyne.Window
	textArea *widget.TextGrid
	mu       sync.Mutex
	content  []string
}

func NewDebugPanel(a fyne.App) *DebugPanel {
	dp := &DebugPanel{}
	dp.window = a.NewWindow("Loot Tracker Logs")
	dp.textArea = widget.NewTextGrid()

	clearBtn := widget.NewButton("Clear", dp.Clear)
	dp.window.SetContent(container.NewBorder(
		container.NewHBox(clearBtn),
		nil,
		nil,
		nil,
		container.NewScroll(dp.textArea),
	))
	dp.window.Resize(fyne.NewSize(800, 600))
	dp.window.SetCloseIntercept(dp.Hide)
	return dp
}

func (dp *DebugPanel) AddText(text string) {
	dp.mu.Lock()
	defer dp.mu.Unlock()

	dp.content = append(dp.content, text)
	if len(dp.content) > maxDebugLines {
		dp.content = dp.content[len(dp.content)-maxDebugLines:]
	}
	dp.textArea.SetText(strings.Join(dp.content, "\n"))
}

func (dp *DebugPanel) Lines() []string {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	return append([]string(nil), dp.content...)
}

func (dp *DebugPanel) Clear() {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.content = nil
	dp.textArea.SetText("")
}

func (dp *DebugPanel) Show() {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.window.Show()
}

func (dp *DebugPanel) Hide() {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.window.Hide()
}

// Write implements io.Writer for the logger. JSON events are condensed to
// "LEVEL message" lines.
func (dp *DebugPanel) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimSpace(string(p)), "\n") {
		if line == "" {
			continue
		}
		dp.AddText(condense(line))
	}
	return len(p), nil
}

func condense(line string) string {
	if !gjson.Valid(line) {
		return line
	}
	ev := gjson.Parse(line)
	text := strings.ToUpper(ev.Get("level").String()) + " " + ev.Get("message").String()
	if errText := ev.Get("error"); errText.Exists() {
		text += ": " + errText.String()
	}
	return text
}
