package event

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned when an event type is empty or a
	// listener or event is nil.
	ErrInvalidArgument = errors.New("event: invalid argument")

	// ErrReentrantSynchronize is returned when Synchronize is called while the
	// same dispatcher is delivering events.
	ErrReentrantSynchronize = errors.New("event: synchronize called during drain")
)

// ListenerPanicError reports a listener that panicked while handling an
// event.
type ListenerPanicError struct {
	Event *Event
	Value any
}

func (e *ListenerPanicError) Error() string {
	return fmt.Sprintf("event: listener panicked handling %s (%s): %v",
		e.Event.Type, e.Event.ID, e.Value)
}

// ListenerError wraps an error returned by a listener.
type ListenerError struct {
	Event *Event
	Err   error
}

func (e *ListenerError) Error() string {
	return fmt.Sprintf("event: listener failed handling %s (%s): %v",
		e.Event.Type, e.Event.ID, e.Err)
}

func (e *ListenerError) Unwrap() error {
	return e.Err
}

func invalidArgument(what string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, what)
}
