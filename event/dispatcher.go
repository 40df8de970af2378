package event

import (
	"log"
	"sync"

	"github.com/sarchlab/framesync/hooking"
)

// HookPosBeforeDeliver is triggered before an event is passed to its
// listeners. Detail is the number of listeners.
var HookPosBeforeDeliver = &hooking.HookPos{Name: "BeforeDeliver"}

// HookPosAfterDeliver is triggered after all listeners of an event ran.
// Detail is the number of listeners.
var HookPosAfterDeliver = &hooking.HookPos{Name: "AfterDeliver"}

// HookPosListenerFailed is triggered when a listener returns an error or
// panics. Detail is the error.
var HookPosListenerFailed = &hooking.HookPos{Name: "ListenerFailed"}

// A Synchronizable is an object that needs to be synchronized once per frame
// on the owning goroutine.
type Synchronizable interface {
	Synchronize() error
}

// A Registry keeps track of the objects that need synchronization.
type Registry interface {
	Add(s Synchronizable)
	Remove(s Synchronizable)
}

// FailurePolicy decides what a dispatcher does when a listener fails.
type FailurePolicy int

const (
	// FailurePolicyIsolate logs the failure and keeps delivering.
	FailurePolicyIsolate FailurePolicy = iota

	// FailurePolicyPropagate stops the drain and returns the failure from
	// Synchronize. Undelivered events stay queued for the next cycle.
	FailurePolicyPropagate
)

func (p FailurePolicy) String() string {
	switch p {
	case FailurePolicyIsolate:
		return "isolate"
	case FailurePolicyPropagate:
		return "propagate"
	default:
		return "unknown"
	}
}

// A Dispatcher accepts listeners and events from any goroutine. Events are
// delivered when the owning goroutine calls Synchronize.
type Dispatcher interface {
	hooking.Hookable
	Synchronizable

	AddEventListener(eventType Type, l Listener) error
	RemoveEventListener(eventType Type, l Listener) error
	RemoveEventListeners(eventType Type) error
	RemoveAllEventListeners()
	DispatchEvent(e *Event) error
	HasEventListener(eventType Type, l Listener) (bool, error)
	HasEventListeners(eventType Type) (bool, error)
}

// ThreadDispatcher is a double-buffered Dispatcher. While Synchronize is
// draining the queue, listener changes and new events go to the pending side
// and only take effect in the next Synchronize call.
type ThreadDispatcher struct {
	*hooking.HookableBase

	name     string
	registry Registry
	policy   FailurePolicy
	logger   *log.Logger

	lock             sync.Mutex
	listeners        listenerTable
	pendingListeners listenerTable
	pendingRemovals  []removal
	queue            *eventQueue
	pendingQueue     *eventQueue
	isPending        bool
	disposed         bool
}

// Name returns the name of the dispatcher.
func (d *ThreadDispatcher) Name() string {
	return d.name
}

// FailurePolicy returns how the dispatcher handles failing listeners.
func (d *ThreadDispatcher) FailurePolicy() FailurePolicy {
	return d.policy
}

// AddEventListener registers a listener for an event type. Registering the
// same listener twice for a type has no effect.
func (d *ThreadDispatcher) AddEventListener(eventType Type, l Listener) error {
	if eventType == "" {
		return invalidArgument("empty event type")
	}

	if l == nil {
		return invalidArgument("nil listener")
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	if d.isPending {
		d.pendingListeners.add(eventType, l)
		return nil
	}

	d.listeners.add(eventType, l)

	return nil
}

// RemoveEventListener unregisters a listener from an event type.
func (d *ThreadDispatcher) RemoveEventListener(
	eventType Type,
	l Listener,
) error {
	if eventType == "" {
		return invalidArgument("empty event type")
	}

	if l == nil {
		return invalidArgument("nil listener")
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	if d.isPending {
		d.pendingListeners.remove(eventType, l)
		d.pendingRemovals = append(d.pendingRemovals,
			removal{kind: removeOne, eventType: eventType, listener: l})
		return nil
	}

	d.listeners.remove(eventType, l)

	return nil
}

// RemoveEventListeners unregisters all the listeners of an event type.
func (d *ThreadDispatcher) RemoveEventListeners(eventType Type) error {
	if eventType == "" {
		return invalidArgument("empty event type")
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	if d.isPending {
		d.pendingListeners.removeType(eventType)
		d.pendingRemovals = append(d.pendingRemovals,
			removal{kind: removeType, eventType: eventType})
		return nil
	}

	d.listeners.removeType(eventType)

	return nil
}

// RemoveAllEventListeners unregisters every listener.
func (d *ThreadDispatcher) RemoveAllEventListeners() {
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.isPending {
		d.pendingListeners.clear()
		d.pendingRemovals = append(d.pendingRemovals, removal{kind: removeAll})
		return
	}

	d.listeners.clear()
}

// DispatchEvent queues an event for delivery in a Synchronize call. Events
// without any listener are dropped.
func (d *ThreadDispatcher) DispatchEvent(e *Event) error {
	if e == nil {
		return invalidArgument("nil event")
	}

	if e.Type == "" {
		return invalidArgument("empty event type")
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	if !d.hasEventListeners(e.Type) {
		return nil
	}

	if d.isPending {
		d.pendingQueue.Push(e)
		return nil
	}

	d.queue.Push(e)

	return nil
}

// HasEventListener checks if a listener is registered, including the
// registrations that have not been merged yet.
func (d *ThreadDispatcher) HasEventListener(
	eventType Type,
	l Listener,
) (bool, error) {
	if eventType == "" {
		return false, invalidArgument("empty event type")
	}

	if l == nil {
		return false, invalidArgument("nil listener")
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	return d.listeners.contains(eventType, l) ||
		d.pendingListeners.contains(eventType, l), nil
}

// HasEventListeners checks if any listener is registered for an event type.
func (d *ThreadDispatcher) HasEventListeners(eventType Type) (bool, error) {
	if eventType == "" {
		return false, invalidArgument("empty event type")
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	return d.hasEventListeners(eventType), nil
}

func (d *ThreadDispatcher) hasEventListeners(eventType Type) bool {
	return d.listeners.count(eventType) > 0 ||
		d.pendingListeners.count(eventType) > 0
}

// Len returns the number of events waiting for the next drain.
func (d *ThreadDispatcher) Len() int {
	d.lock.Lock()
	defer d.lock.Unlock()

	return d.queue.Len() + d.pendingQueue.Len()
}

// PendingLen returns the number of events dispatched during the current
// drain.
func (d *ThreadDispatcher) PendingLen() int {
	d.lock.Lock()
	defer d.lock.Unlock()

	return d.pendingQueue.Len()
}

// IsDraining tells if the dispatcher is delivering events.
func (d *ThreadDispatcher) IsDraining() bool {
	d.lock.Lock()
	defer d.lock.Unlock()

	return d.isPending
}

// Synchronize applies buffered listener changes and delivers every queued
// event. It must only be called from the owning goroutine. Listeners run
// without the lock held, so producers are never blocked by a slow listener.
func (d *ThreadDispatcher) Synchronize() error {
	d.lock.Lock()

	if d.isPending {
		d.lock.Unlock()
		return ErrReentrantSynchronize
	}

	d.applyPendingRemovals()
	d.mergePendingListeners()
	d.pendingQueue.MoveTo(d.queue)

	batch := d.queue.Drain()
	listeners := d.listeners.snapshot(batch)
	d.isPending = true

	d.lock.Unlock()

	rest := batch
	defer func() {
		d.lock.Lock()
		d.queue.PushFront(rest)
		d.isPending = false
		d.lock.Unlock()
	}()

	return d.deliver(batch, listeners, &rest)
}

func (d *ThreadDispatcher) applyPendingRemovals() {
	for _, r := range d.pendingRemovals {
		r.applyTo(d.listeners)
	}

	d.pendingRemovals = nil
}

func (d *ThreadDispatcher) mergePendingListeners() {
	for eventType, list := range d.pendingListeners {
		for _, l := range list {
			d.listeners.add(eventType, l)
		}
	}

	d.pendingListeners.clear()
}

// deliver runs the listeners of each event in order. rest always holds the
// events whose delivery has not completed, so that they are queued again if
// the drain stops early.
func (d *ThreadDispatcher) deliver(
	batch []*Event,
	listeners map[Type][]Listener,
	rest *[]*Event,
) error {
	for i, e := range batch {
		*rest = batch[i:]

		list := listeners[e.Type]
		if len(list) == 0 {
			continue
		}

		ctx := hooking.HookCtx{
			Domain: d,
			Pos:    HookPosBeforeDeliver,
			Item:   e,
			Detail: len(list),
		}
		d.invokeHook(ctx)

		for _, l := range list {
			err := d.invoke(l, e)
			if err == nil {
				continue
			}

			d.reportFailure(e, err)

			if d.policy == FailurePolicyPropagate {
				*rest = batch[i+1:]
				return err
			}
		}

		ctx.Pos = HookPosAfterDeliver
		d.invokeHook(ctx)
	}

	*rest = nil

	return nil
}

func (d *ThreadDispatcher) invoke(l Listener, e *Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ListenerPanicError{Event: e, Value: r}
		}
	}()

	if lerr := l.Handle(e); lerr != nil {
		return &ListenerError{Event: e, Err: lerr}
	}

	return nil
}

func (d *ThreadDispatcher) reportFailure(e *Event, err error) {
	if d.policy == FailurePolicyIsolate {
		d.logger.Printf("dispatcher %s: %v", d.name, err)
	}

	d.invokeHook(hooking.HookCtx{
		Domain: d,
		Pos:    HookPosListenerFailed,
		Item:   e,
		Detail: err,
	})
}

func (d *ThreadDispatcher) invokeHook(ctx hooking.HookCtx) {
	if d.NumHooks() == 0 {
		return
	}

	d.InvokeHookIsolated(ctx, func(_ hooking.Hook, err error) {
		d.logger.Printf("dispatcher %s: %v", d.name, err)
	})
}

// Dispose removes the dispatcher from its registry. Calling it more than
// once has no effect.
func (d *ThreadDispatcher) Dispose() {
	d.lock.Lock()
	if d.disposed {
		d.lock.Unlock()
		return
	}
	d.disposed = true
	d.lock.Unlock()

	if d.registry != nil {
		d.registry.Remove(d)
	}
}
