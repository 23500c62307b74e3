package domain

import (
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStateEnter EventType = "state_enter"
	EventStep       EventType = "step"
	EventStop       EventType = "stop"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	MachineID string    `json:"machine_id"`
}

// StateEvent represents a machine entering a state or stopping in it.
type StateEvent struct {
	EventBase
	State string `json:"state"`
}

// StepEvent describes one handler invocation and the outcome of resolving its result.
type StepEvent struct {
	EventBase
	State    string       `json:"state"`
	Produced TransitionID `json:"produced"`
	Next     string       `json:"next,omitempty"`
	Stopped  bool         `json:"stopped,omitempty"`
	Code     string       `json:"code,omitempty"`
	Error    string       `json:"error,omitempty"`
}

// Failed reports whether the step ended in a resolution error.
func (e *StepEvent) Failed() bool {
	return e.Error != ""
}

// LifecycleHooks defines callbacks for machine observability.
// Hooks run synchronously inside SingleStep and must not step the same machine.
type LifecycleHooks struct {
	OnStateEnter func(*StateEvent)
	OnStep       func(*StepEvent)
	OnStop       func(*StateEvent)
}
