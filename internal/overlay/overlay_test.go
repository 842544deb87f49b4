package overlay

import (
	"context"
	"sync"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loot-tracker/internal/ledger"
	"loot-tracker/internal/loot"
	"loot-tracker/internal/tracker"
	"loot-tracker/pkg/logger"
)

type fakeControl struct {
	mu     sync.Mutex
	state  tracker.State
	mode   loot.Mode
	resets int
	snap   ledger.Snapshot
}

func (f *fakeControl) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = tracker.Started
	return nil
}

func (f *fakeControl) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = tracker.Stopped
	return nil
}

func (f *fakeControl) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
}

func (f *fakeControl) SetMode(mode loot.Mode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mode = mode
}

func (f *fakeControl) Status() tracker.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return tracker.Status{State: f.state, Mode: f.mode}
}

func (f *fakeControl) Snapshot() ledger.Snapshot {
	return f.snap
}

func (f *fakeControl) Subscribe(ctx context.Context) <-chan ledger.Snapshot {
	ch := make(chan ledger.Snapshot)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch
}

func (f *fakeControl) started() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state == tracker.Started
}

func newTestOverlay(t *testing.T) (*Overlay, *fakeControl) {
	a := test.NewApp()
	t.Cleanup(a.Quit)

	ctl := &fakeControl{snap: ledger.Snapshot{
		"Black Stone": {ID: 1, Name: "Black Stone", Amount: 3, UnitPrice: 200_000},
		"Silver":      {ID: 2, Name: "Silver", Amount: 5000, UnitPrice: 1},
	}}
	return New(a, ctl, logger.Nop(), NewDebugPanel(a)), ctl
}

func TestOverlayShowsLedger(t *testing.T) {
	o, _ := newTestOverlay(t)

	assert.Equal(t, "Total: 605.00K silver", o.total.Text)
	assert.Equal(t, 2, o.list.Length())
	assert.Equal(t, "Black Stone", o.entries[0].Name)
	assert.Equal(t, "Start", o.toggle.Text)

	o.apply(ledger.Snapshot{"Silver": {ID: 2, Name: "Silver", Amount: 10, UnitPrice: 1}})
	assert.Equal(t, 1, o.list.Length())
	assert.Equal(t, "Total: 10.00 silver", o.total.Text)
}

func TestOverlayToggleSession(t *testing.T) {
	o, ctl := newTestOverlay(t)

	test.Tap(o.toggle)
	require.Eventually(t, ctl.started, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		return !o.toggle.Disabled()
	}, time.Second, 5*time.Millisecond)
	o.refreshStatus()
	assert.Equal(t, "Stop", o.toggle.Text)

	test.Tap(o.toggle)
	assert.False(t, ctl.started())
	assert.Equal(t, "Start", o.toggle.Text)
}

func TestOverlayModeAndReset(t *testing.T) {
	o, ctl := newTestOverlay(t)

	o.mode.SetSelected("drop")
	assert.Equal(t, loot.DropLog, ctl.Status().Mode)

	test.Tap(o.reset)
	assert.Equal(t, 1, ctl.resets)
}

func TestDebugPanelCondensesJSON(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()
	dp := NewDebugPanel(a)

	n, err := dp.Write([]byte(`{"level":"error","message":"capture failed","error":"boom"}` + "\n" + "plain text\n"))
	require.NoError(t, err)
	assert.Positive(t, n)
	assert.Equal(t, []string{"ERROR capture failed: boom", "plain text"}, dp.Lines())

	dp.Clear()
	assert.Empty(t, dp.Lines())
}
