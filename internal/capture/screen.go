package capture

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/kbinani/screenshot"

	"loot-tracker/internal/calibrate"
	"loot-tracker/internal/wm"
	"loot-tracker/pkg/core"
)

// WindowFinder locates the target window. *wm.Manager implements it.
type WindowFinder interface {
	FindWindow(classNames []string, titles []string) (wm.Window, error)
}

// Screen grabs the target window's region from the desktop at a fixed rate.
type Screen struct {
	finder     WindowFinder
	classNames []string
	titles     []string
	log        core.Logger
	grab       func(image.Rectangle) (*image.RGBA, error)

	mu       sync.Mutex
	started  bool
	window   wm.Window
	region   calibrate.Region
	interval time.Duration
	last     time.Time
}

func NewScreen(finder WindowFinder, classNames, titles []string, log core.Logger) *Screen {
	return &Screen{
		finder:     finder,
		classNames: classNames,
		titles:     titles,
		log:        log,
		grab:       screenshot.CaptureRect,
		interval:   time.Second / time.Duration(calibrate.ChatFPS),
	}
}

// Start locates the target. It fails with ErrTargetNotFound when no window matches.
func (s *Screen) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w, err := s.locate()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.window = w
	s.region = calibrate.Region{}
	s.started = true
	s.last = time.Time{}
	s.mu.Unlock()

	s.log.Info("Capture target found",
		"title", w.Title,
		"class", w.Class,
		"bounds", w.Bounds)
	return nil
}

func (s *Screen) locate() (wm.Window, error) {
	w, err := s.finder.FindWindow(s.classNames, s.titles)
	if err != nil {
		return wm.Window{}, fmt.Errorf("failed to find window: %w", err)
	}
	if !w.Found() {
		return wm.Window{}, fmt.Errorf("%w: %v", ErrTargetNotFound, s.titles)
	}
	// some backends cannot report geometry; assume the primary display
	if w.Bounds.Empty() {
		d := screenshot.GetDisplayBounds(0)
		w.Bounds = wm.Rect{X: d.Min.X, Y: d.Min.Y, Width: d.Dx(), Height: d.Dy()}
	}
	return w, nil
}

func (s *Screen) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
	return nil
}

func (s *Screen) NextFrame(ctx context.Context) (Frame, error) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return Frame{}, ErrNotStarted
	}
	wait := time.Until(s.last.Add(s.interval))
	s.mu.Unlock()

	if wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Frame{}, ctx.Err()
		case <-timer.C:
		}
	}

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return Frame{}, ErrStopped
	}
	b := s.window.Bounds
	rect := clip(s.region, b.Width, b.Height).Add(image.Pt(b.X, b.Y))
	s.last = time.Now()
	s.mu.Unlock()

	img, err := s.grab(rect)
	if err != nil {
		return Frame{}, fmt.Errorf("failed to grab %v: %w", rect, err)
	}
	return FromImage(img), nil
}

func (s *Screen) Reconfigure(region calibrate.Region, fps float64) error {
	if fps <= 0 {
		return fmt.Errorf("invalid frame rate %v", fps)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.region = region
	s.interval = time.Duration(float64(time.Second) / fps)

	s.log.Info("Capture reconfigured", "region", region.String(), "fps", fps)
	return nil
}

func (s *Screen) Bounds() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.window.Bounds.Width, s.window.Bounds.Height
}
