package app

import (
	"context"
	"fmt"
	"sync"

	"loot-tracker/internal/ledger"
	"loot-tracker/internal/loot"
	"loot-tracker/internal/tracker"
	"loot-tracker/pkg/core"
	"loot-tracker/pkg/notify"
)

// Notifier shows desktop notifications. *notify.NotifyService implements it.
type Notifier interface {
	Show(message string, nType notify.NotificationType) error
}

// TrackerFactory builds a fresh tracker for one session.
type TrackerFactory func(mode loot.Mode) *tracker.Tracker

// Sessions runs one tracker at a time over a shared ledger. A stopped
// tracker cannot be restarted, so every Start after a Stop gets a new one.
// The ledger survives across sessions until Reset.
type Sessions struct {
	ledger     *ledger.Ledger
	newTracker TrackerFactory
	notifier   Notifier
	log        core.Logger

	startMu sync.Mutex

	mu      sync.Mutex
	mode    loot.Mode
	current *tracker.Tracker
}

func NewSessions(l *ledger.Ledger, factory TrackerFactory, mode loot.Mode, notifier Notifier, log core.Logger) *Sessions {
	return &Sessions{
		ledger:     l,
		newTracker: factory,
		notifier:   notifier,
		log:        log,
		mode:       mode,
	}
}

func (s *Sessions) Start(ctx context.Context) error {
	s.startMu.Lock()
	defer s.startMu.Unlock()

	s.mu.Lock()
	prev := s.current
	s.mu.Unlock()

	if prev != nil {
		switch prev.State() {
		case tracker.Started:
			return tracker.ErrAlreadyStarted
		case tracker.Stopped:
			// the capturer is shared; let the old loop release it first
			<-prev.Done()
		}
	}

	s.mu.Lock()
	t := s.newTracker(s.mode)
	s.current = t
	s.mu.Unlock()

	if err := t.Start(ctx); err != nil {
		s.notify(fmt.Sprintf("Failed to start tracking: %v", err), notify.Error)
		return err
	}

	st := t.Status()
	s.notify(fmt.Sprintf("Tracking %s log (%s)", st.Mode, st.Region), notify.Info)
	go s.watch(t)
	return nil
}

func (s *Sessions) watch(t *tracker.Tracker) {
	<-t.Done()
	if err := t.Err(); err != nil {
		s.notify(fmt.Sprintf("Tracking stopped: %v", err), notify.Error)
		return
	}
	s.notify(fmt.Sprintf("Tracking stopped, total %s", s.ledger.Snapshot().Total()), notify.Info)
}

func (s *Sessions) notify(msg string, nType notify.NotificationType) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Show(msg, nType); err != nil {
		s.log.Error("Failed to show notification", err)
	}
}

func (s *Sessions) Stop() error {
	t := s.tracker()
	if t == nil {
		return tracker.ErrNotStarted
	}
	return t.Stop()
}

func (s *Sessions) Reset() {
	if t := s.tracker(); t != nil {
		t.Reset()
		return
	}
	s.ledger.Reset()
}

func (s *Sessions) SetMode(mode loot.Mode) {
	s.mu.Lock()
	s.mode = mode
	t := s.current
	s.mu.Unlock()

	if t != nil {
		t.SetMode(mode)
		return
	}
	s.ledger.ClearTracker()
}

func (s *Sessions) Status() tracker.Status {
	if t := s.tracker(); t != nil {
		return t.Status()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return tracker.Status{State: tracker.Initiated, Mode: s.mode}
}

func (s *Sessions) Snapshot() ledger.Snapshot {
	return s.ledger.Snapshot()
}

func (s *Sessions) Subscribe(ctx context.Context) <-chan ledger.Snapshot {
	return s.ledger.Subscribe(ctx)
}

func (s *Sessions) History() []ledger.HistoryEntry {
	return s.ledger.History()
}

func (s *Sessions) tracker() *tracker.Tracker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
