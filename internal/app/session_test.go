package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loot-tracker/internal/calibrate"
	"loot-tracker/internal/capture"
	"loot-tracker/internal/catalog"
	"loot-tracker/internal/ledger"
	"loot-tracker/internal/loot"
	"loot-tracker/internal/tracker"
	"loot-tracker/pkg/logger"
	"loot-tracker/pkg/notify"
)

// idleCapturer yields one frame per start and then blocks.
type idleCapturer struct {
	mu       sync.Mutex
	served   bool
	startErr error
}

func (c *idleCapturer) Start(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.served = false
	return c.startErr
}

func (c *idleCapturer) Stop() error { return nil }

func (c *idleCapturer) NextFrame(ctx context.Context) (capture.Frame, error) {
	c.mu.Lock()
	if !c.served {
		c.served = true
		c.mu.Unlock()
		return capture.Frame{Width: 4, Height: 4, Pixels: make([]byte, 48)}, nil
	}
	c.mu.Unlock()
	<-ctx.Done()
	return capture.Frame{}, ctx.Err()
}

func (c *idleCapturer) Reconfigure(calibrate.Region, float64) error { return nil }

func (c *idleCapturer) Bounds() (int, int) { return 1920, 1080 }

type blankRecognizer struct{}

func (blankRecognizer) Recognize(context.Context, capture.Frame) ([]calibrate.Detection, error) {
	return nil, nil
}

type noPrices struct{}

func (noPrices) Lookup(_ context.Context, name string) (catalog.Item, error) {
	return catalog.Item{}, &catalog.LookupError{Name: name, Err: catalog.ErrItemNotFound}
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Show(message string, nType notify.NotificationType) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, nType.String()+": "+message)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

func newTestSessions(c capture.Capturer) (*Sessions, *recordingNotifier) {
	log := logger.Nop()
	led := ledger.New(noPrices{}, log)
	factory := func(mode loot.Mode) *tracker.Tracker {
		return tracker.New(c, blankRecognizer{}, led, log, tracker.Options{Mode: mode, Scale: 100})
	}
	n := &recordingNotifier{}
	return NewSessions(led, factory, loot.ChatLog, n, log), n
}

func TestSessionsRestartAfterStop(t *testing.T) {
	s, n := newTestSessions(&idleCapturer{})
	ctx := context.Background()

	assert.Equal(t, tracker.Initiated, s.Status().State)
	assert.ErrorIs(t, s.Stop(), tracker.ErrNotStarted)

	require.NoError(t, s.Start(ctx))
	first := s.Status()
	assert.Equal(t, tracker.Started, first.State)
	assert.NotEmpty(t, first.SessionID)
	assert.ErrorIs(t, s.Start(ctx), tracker.ErrAlreadyStarted)

	require.NoError(t, s.Stop())
	assert.Equal(t, tracker.Stopped, s.Status().State)
	require.Eventually(t, func() bool { return n.count() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Start(ctx))
	second := s.Status()
	assert.Equal(t, tracker.Started, second.State)
	assert.NotEqual(t, first.SessionID, second.SessionID)
	require.NoError(t, s.Stop())
}

func TestSessionsModeCarriesOver(t *testing.T) {
	s, _ := newTestSessions(&idleCapturer{})

	s.SetMode(loot.DropLog)
	assert.Equal(t, loot.DropLog, s.Status().Mode)

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, loot.DropLog, s.Status().Mode)
	require.NoError(t, s.Stop())
}

func TestSessionsStartFailureNotifies(t *testing.T) {
	boom := errors.New("no window")
	s, n := newTestSessions(&idleCapturer{startErr: boom})

	err := s.Start(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, n.count())
	assert.Contains(t, n.messages[0], "ERROR: Failed to start tracking")
	assert.ErrorIs(t, s.Stop(), tracker.ErrNotStarted)
}

func TestSessionsResetWithoutTracker(t *testing.T) {
	s, _ := newTestSessions(&idleCapturer{})
	s.Reset()
	assert.Empty(t, s.Snapshot())
	assert.Empty(t, s.History())
}

type countingPlayer struct {
	mu    sync.Mutex
	plays int
}

func (p *countingPlayer) PlayDropSound() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.plays++
	return nil
}

func (p *countingPlayer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.plays
}

func TestDropAlertThreshold(t *testing.T) {
	p := &countingPlayer{}
	hook := DropAlert(1_000_000, p, logger.Nop())

	stone := ledger.Entry{Name: "Black Stone", Amount: 40, UnitPrice: 200_000}
	hook(stone, loot.Event{Name: "Black Stone", Amount: 2})
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, p.count())

	hook(stone, loot.Event{Name: "Black Stone", Amount: 5})
	assert.Eventually(t, func() bool { return p.count() == 1 }, time.Second, 5*time.Millisecond)
}
