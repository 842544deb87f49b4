// Package tracker runs a loot tracking session: it pulls frames, recognizes
// them concurrently, restores capture order and feeds the ledger.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"loot-tracker/internal/calibrate"
	"loot-tracker/internal/capture"
	"loot-tracker/internal/ledger"
	"loot-tracker/internal/loot"
	"loot-tracker/internal/recognize"
	"loot-tracker/internal/reorder"
	"loot-tracker/pkg/core"
)

const (
	DefaultTickInterval = time.Second

	// frames tried before Start gives up on an unreadable calibration frame
	calibrationAttempts = 5
)

// Status is a point-in-time view of the session.
type Status struct {
	State     State     `json:"state"`
	Mode      loot.Mode `json:"mode"`
	SessionID string    `json:"session_id,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
	Region    string    `json:"region,omitempty"`
	Frames    uint64    `json:"frames"`
	Events    uint64    `json:"events"`
	Err       string    `json:"error,omitempty"`
}

type Options struct {
	Mode         loot.Mode
	Anchor       calibrate.Point
	Scale        float64
	TickInterval time.Duration
}

type Tracker struct {
	capturer   capture.Capturer
	recognizer recognize.Recognizer
	ledger     *ledger.Ledger
	log        core.Logger
	anchor     calibrate.Point
	scale      float64
	tick       time.Duration

	frames atomic.Uint64
	events atomic.Uint64

	mu        sync.Mutex
	state     State
	starting  bool
	mode      loot.Mode
	region    calibrate.Region
	sessionID string
	startedAt time.Time
	err       error
	cancel    context.CancelFunc
	done      chan struct{}

	// set by SetMode while running; the producer widens capture to the
	// full target and results from calibrateFrom on recalibrate
	recalibrate   bool
	calibrating   bool
	calibrateFrom uint64
}

func New(c capture.Capturer, r recognize.Recognizer, l *ledger.Ledger, log core.Logger, opts Options) *Tracker {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.Anchor == (calibrate.Point{}) {
		opts.Anchor = calibrate.DefaultDropAnchor
	}
	return &Tracker{
		capturer:   c,
		recognizer: r,
		ledger:     l,
		log:        log,
		anchor:     opts.Anchor,
		scale:      opts.Scale,
		tick:       opts.TickInterval,
		mode:       opts.Mode,
		done:       make(chan struct{}),
	}
}

// Start begins capture, calibrates the capture region from the first
// recognized frame and launches the dispatch loop. It fails with
// ErrAlreadyStarted while running and ErrSessionStopped once the session has
// ended.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	switch {
	case t.state == Started || t.starting:
		t.mu.Unlock()
		return ErrAlreadyStarted
	case t.state == Stopped:
		t.mu.Unlock()
		return ErrSessionStopped
	}
	t.starting = true
	mode := t.mode
	t.mu.Unlock()

	err := t.open(ctx, mode)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.starting = false
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	t.state = Started
	t.cancel = cancel
	t.sessionID = uuid.NewString()
	t.startedAt = time.Now()
	go t.run(runCtx)

	t.log.Info("Session started", "session", t.sessionID, "mode", mode.String(), "region", t.region.String())
	return nil
}

func (t *Tracker) open(ctx context.Context, mode loot.Mode) error {
	if err := t.capturer.Start(ctx); err != nil {
		return &CaptureError{Err: err}
	}

	var detections []calibrate.Detection
	for attempt := 1; ; attempt++ {
		frame, err := t.capturer.NextFrame(ctx)
		if err != nil {
			t.capturer.Stop()
			return &CaptureError{Err: fmt.Errorf("failed to read calibration frame: %w", err)}
		}
		t.frames.Add(1)

		detections, err = t.recognizer.Recognize(ctx, frame)
		if err == nil {
			break
		}
		t.log.Warn("Calibration frame not recognized", "attempt", attempt, "error", err)
		if attempt == calibrationAttempts {
			t.capturer.Stop()
			return fmt.Errorf("failed to recognize calibration frame: %w", err)
		}
	}

	if err := t.calibrate(mode, detections); err != nil {
		t.capturer.Stop()
		return &CaptureError{Err: err}
	}
	return nil
}

func (t *Tracker) calibrate(mode loot.Mode, detections []calibrate.Detection) error {
	w, h := t.capturer.Bounds()
	screen := calibrate.Screen{Width: uint32(max(w, 0)), Height: uint32(max(h, 0)), Scale: t.scale}

	c := calibrate.Calibrate(mode, detections, screen, t.anchor)
	if err := t.capturer.Reconfigure(c.Region, c.FPS); err != nil {
		return fmt.Errorf("failed to reconfigure capture: %w", err)
	}

	t.mu.Lock()
	t.region = c.Region
	t.mu.Unlock()

	t.log.Debug("Calibrated capture region", "mode", mode.String(), "region", c.Region.String(), "fps", c.FPS)
	return nil
}

type result struct {
	index      uint64
	detections []calibrate.Detection
	err        error
}

func (t *Tracker) run(ctx context.Context) {
	results := make(chan result)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return t.produce(gctx, g, results)
	})
	g.Go(func() error {
		return t.consume(gctx, results)
	})

	err := g.Wait()
	t.finish(err)
}

// produce pulls frames and spawns one recognition per frame. Results are
// sent tagged with the frame's sequence index.
func (t *Tracker) produce(ctx context.Context, g *errgroup.Group, results chan<- result) error {
	var index uint64
	for {
		if err := t.widen(index); err != nil {
			return &CaptureError{Err: err}
		}

		frame, err := t.capturer.NextFrame(ctx)
		if err != nil {
			if ctx.Err() != nil || t.State() == Stopped {
				return nil
			}
			return &CaptureError{Err: err}
		}
		t.frames.Add(1)

		i := index
		index++
		g.Go(func() error {
			detections, err := t.recognizer.Recognize(ctx, frame)
			select {
			case results <- result{index: i, detections: detections, err: err}:
			case <-ctx.Done():
			}
			return nil
		})
	}
}

// widen switches capture back to the full target after a mode change, so the
// next calibration sees target coordinates. Frames from index on are the
// first captured uncropped.
func (t *Tracker) widen(index uint64) error {
	t.mu.Lock()
	if !t.recalibrate {
		t.mu.Unlock()
		return nil
	}
	t.recalibrate = false
	mode := t.mode
	t.mu.Unlock()

	if err := t.capturer.Reconfigure(calibrate.Region{}, calibrate.FPS(mode)); err != nil {
		return fmt.Errorf("failed to reset capture region: %w", err)
	}

	t.mu.Lock()
	t.region = calibrate.Region{}
	t.calibrating = true
	t.calibrateFrom = index
	t.mu.Unlock()
	return nil
}

// consume restores sequence order and delivers results one at a time.
func (t *Tracker) consume(ctx context.Context, results <-chan result) error {
	buf := reorder.New[result]()
	ticker := time.NewTicker(t.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case r := <-results:
			for _, ready := range buf.Push(r.index, r) {
				t.deliver(ctx, ready)
			}
		case <-ticker.C:
			if t.State() == Stopped {
				return nil
			}
		}
	}
}

func (t *Tracker) deliver(ctx context.Context, r result) {
	if r.err != nil {
		t.log.Debug("Recognition failed", "index", r.index, "error", r.err)
		return
	}

	t.mu.Lock()
	mode := t.mode
	pending := t.recalibrate
	calibrating := t.calibrating
	from := t.calibrateFrom
	if calibrating && r.index >= from {
		t.calibrating = false
	}
	t.mu.Unlock()

	switch {
	case pending || (calibrating && r.index < from):
		// cropped to the previous mode's region
		t.log.Debug("Dropping result captured before recalibration", "index", r.index)
		return
	case calibrating:
		if err := t.calibrate(mode, r.detections); err != nil {
			t.log.Warn("Recalibration failed", "error", err)
		}
		return
	}

	lines := make([]string, len(r.detections))
	for i, d := range r.detections {
		lines[i] = d.Text
	}
	events := loot.ParseAll(mode, lines)

	if n := t.ledger.Ingest(ctx, mode, events); n > 0 {
		t.events.Add(uint64(n))
		t.log.Debug("New loot", "index", r.index, "count", n)
	}
}

func (t *Tracker) finish(err error) {
	var capErr *CaptureError
	if errors.As(err, &capErr) {
		t.log.Error("Capture failed, stopping session", err)
	}

	t.mu.Lock()
	t.state = Stopped
	if err != nil && t.err == nil {
		t.err = err
	}
	t.cancel()
	t.mu.Unlock()

	if stopErr := t.capturer.Stop(); stopErr != nil {
		t.log.Warn("Failed to stop capture", "error", stopErr)
	}
	close(t.done)
	t.log.Info("Session stopped", "session", t.sessionID, "frames", t.frames.Load(), "events", t.events.Load())
}

// Stop ends the session and waits for the dispatch loop to exit.
// A session is not resumable once stopped.
func (t *Tracker) Stop() error {
	t.mu.Lock()
	switch t.state {
	case Initiated:
		t.mu.Unlock()
		return ErrNotStarted
	case Stopped:
		t.mu.Unlock()
		return nil
	}
	t.state = Stopped
	cancel, done := t.cancel, t.done
	t.mu.Unlock()

	cancel()
	<-done
	return nil
}

// Reset clears the ledger, its diff tracker and history.
func (t *Tracker) Reset() {
	t.ledger.Reset()
	t.events.Store(0)
	t.log.Info("Ledger reset")
}

// SetMode switches the log format. The entry tracker is cleared and, while
// running, capture widens to the full target and the first frame recognized
// after that recalibrates the region. Results cropped to the old region are
// dropped.
func (t *Tracker) SetMode(mode loot.Mode) {
	t.mu.Lock()
	if t.mode == mode {
		t.mu.Unlock()
		return
	}
	t.mode = mode
	t.recalibrate = t.state == Started
	t.mu.Unlock()

	t.ledger.ClearTracker()
	t.log.Info("Detection mode changed", "mode", mode.String())
}

func (t *Tracker) Mode() loot.Mode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mode
}

func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Status{
		State:     t.state,
		Mode:      t.mode,
		SessionID: t.sessionID,
		StartedAt: t.startedAt,
		Frames:    t.frames.Load(),
		Events:    t.events.Load(),
	}
	if t.state != Initiated {
		s.Region = t.region.String()
	}
	if t.err != nil {
		s.Err = t.err.Error()
	}
	return s
}

// Done is closed when the dispatch loop has exited.
func (t *Tracker) Done() <-chan struct{} {
	return t.done
}

// Err returns the error that ended the session, if any.
func (t *Tracker) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *Tracker) Snapshot() ledger.Snapshot {
	return t.ledger.Snapshot()
}

func (t *Tracker) Subscribe(ctx context.Context) <-chan ledger.Snapshot {
	return t.ledger.Subscribe(ctx)
}

func (t *Tracker) History() []ledger.HistoryEntry {
	return t.ledger.History()
}
