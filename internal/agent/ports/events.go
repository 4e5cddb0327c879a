package ports

import "time"

// EventType enumerates loop progress events
type EventType string

const (
	EventTaskStart EventType = "task_start"
	EventStepStart EventType = "step_start"
	EventStepEnd   EventType = "step_end"
	EventTaskEnd   EventType = "task_end"
)

// Event is one progress notification emitted by the orchestration loop
type Event struct {
	Type      EventType `json:"type"`
	Iteration int       `json:"iteration,omitempty"`
	Action    string    `json:"action,omitempty"`
	Outcome   string    `json:"outcome,omitempty"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventListener receives loop events. Implementations must not block; the
// loop calls them inline between steps.
type EventListener interface {
	OnEvent(event Event)
}

// EventListenerFunc adapts a function to EventListener
type EventListenerFunc func(event Event)

func (f EventListenerFunc) OnEvent(event Event) {
	f(event)
}
