// Package event provides a dispatcher that accepts listeners and events from
// any goroutine and delivers the events on the goroutine that synchronizes it.
package event

import "github.com/sarchlab/framesync/idgen"

// Type names a kind of event.
type Type string

// An Event is a named message. Events are not modified after creation.
type Event struct {
	ID      string
	Type    Type
	Source  any
	Payload any
}

// NewEvent creates an event of the given type carrying a payload.
func NewEvent(t Type, payload any) *Event {
	return NewEventFrom(t, nil, payload)
}

// NewEventFrom creates an event that records the object that raised it.
func NewEventFrom(t Type, source any, payload any) *Event {
	return &Event{
		ID:      idgen.GetIDGenerator().Generate(),
		Type:    t,
		Source:  source,
		Payload: payload,
	}
}

// A Listener receives events. Listeners are identified by equality of the
// interface value, so implementations should be pointers.
type Listener interface {
	Handle(e *Event) error
}

// ListenerFunc adapts a function to a Listener with a stable identity.
type ListenerFunc struct {
	f func(e *Event) error
}

// NewListenerFunc wraps f. Keep the returned value to remove the listener
// later.
func NewListenerFunc(f func(e *Event) error) *ListenerFunc {
	return &ListenerFunc{f: f}
}

// Handle calls the wrapped function.
func (l *ListenerFunc) Handle(e *Event) error {
	return l.f(e)
}
