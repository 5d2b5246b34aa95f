package domain

import "time"

// EventType defines the category of the event.
type EventType string

const (
	EventDispatch    EventType = "dispatch"
	EventStateChange EventType = "state_change"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// DispatchEvent is emitted when a plain action reaches the reducers.
type DispatchEvent struct {
	EventBase
	Action   Action        `json:"action"`
	Duration time.Duration `json:"duration"`
}

// StateEvent is emitted after the store replaced its state with a different tree.
type StateEvent struct {
	EventBase
	Action Action     `json:"action"`
	Diff   *StateDiff `json:"diff,omitempty"`
}

// LifecycleHooks defines callbacks for store observability.
// Hooks run synchronously on the dispatching goroutine, before subscribers.
type LifecycleHooks struct {
	OnDispatch    func(*DispatchEvent)
	OnStateChange func(*StateEvent)
}
