// Package pronunciation captures a spoken attempt at a reference text,
// uploads it and scores it.
package pronunciation

import (
	"errors"
	"fmt"
)

// State is the recorder's lifecycle state.
type State int

const (
	Idle       State = iota // No capture in progress
	Recording               // Microphone open, buffering audio
	Processing              // Clip finalized, upload and scoring in flight
	Completed               // Score available
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Processing:
		return "processing"
	case Completed:
		return "completed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Event drives a state transition.
type Event int

const (
	EventStart Event = iota
	EventStop
	EventSucceed
	EventFail
	EventReRecord
	EventAbort
)

func (e Event) String() string {
	return [...]string{"start", "stop", "succeed", "fail", "re-record", "abort"}[e]
}

// ErrInvalidTransition is returned for an event the current state does not accept.
var ErrInvalidTransition = errors.New("invalid pronunciation transition")

var transitions = map[State]map[Event]State{
	Idle: {
		EventStart: Recording,
		EventAbort: Idle,
	},
	Recording: {
		EventStop:  Processing,
		EventFail:  Idle,
		EventAbort: Idle,
	},
	Processing: {
		EventSucceed: Completed,
		EventFail:    Idle,
		EventAbort:   Idle,
	},
	Completed: {
		EventReRecord: Recording,
		EventAbort:    Idle,
	},
}

// next returns the state ev leads to from s.
func next(s State, ev Event) (State, error) {
	to, ok := transitions[s][ev]
	if !ok {
		return s, fmt.Errorf("%s on %s: %w", ev, s, ErrInvalidTransition)
	}
	return to, nil
}
