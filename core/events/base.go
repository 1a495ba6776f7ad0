package events

import "time"

// Kind identifies an event family, namespaced as "<source>.<name>".
type Kind string

// Event is anything the session surfaces to observers: user input activity,
// turn-taking decisions, and assistant output progress.
type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

// Base carries the fields shared by every event. Concrete events embed it and
// construct it through NewBase.
type Base struct {
	eventKind Kind
	emittedAt time.Time
}

func NewBase(kind Kind) Base {
	return Base{eventKind: kind, emittedAt: time.Now()}
}

func (b Base) Kind() Kind {
	return b.eventKind
}

// Timestamp is the creation time of the event, not its delivery time.
func (b Base) Timestamp() time.Time {
	return b.emittedAt
}
