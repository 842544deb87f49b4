package tracker

import (
	"errors"
	"fmt"
)

// State is the session lifecycle. Transitions only move forward.
type State int

const (
	Initiated State = iota
	Started
	Stopped
)

func (s State) String() string {
	switch s {
	case Initiated:
		return "initiated"
	case Started:
		return "started"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for _, st := range []State{Initiated, Started, Stopped} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown session state %q", text)
}

var (
	ErrAlreadyStarted = errors.New("session already started")
	ErrSessionStopped = errors.New("session stopped")
	ErrNotStarted     = errors.New("session not started")
)

// CaptureError is a frame source failure. It ends the session.
type CaptureError struct {
	Err error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture: %v", e.Err)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}
