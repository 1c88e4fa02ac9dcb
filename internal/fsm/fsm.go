// Package fsm defines the recognition listening state machine.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle      State = "idle"
	StateListening State = "listening"
	StateStopping  State = "stopping"
)

const (
	// EventStart is a start request accepted by the engine.
	EventStart Event = "start"
	// EventStop is a stop request issued to the engine.
	EventStop Event = "stop"
	// EventEnded is the engine reporting the end of a listening session.
	EventEnded Event = "ended"
	// EventRejected is the engine refusing a start request synchronously.
	EventRejected Event = "rejected"
	// EventFail is an engine-reported recognition error.
	EventFail Event = "fail"
)

func Transition(current State, event Event) (State, error) {
	switch current {
	case StateIdle:
		switch event {
		case EventStart:
			return StateListening, nil
		case EventEnded, EventFail:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateListening:
		switch event {
		case EventStop:
			return StateStopping, nil
		case EventEnded, EventRejected:
			return StateIdle, nil
		case EventFail:
			return StateListening, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateStopping:
		switch event {
		case EventEnded:
			return StateIdle, nil
		case EventFail:
			return StateStopping, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
