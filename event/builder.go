package event

import (
	"log"

	"github.com/sarchlab/framesync/hooking"
)

// Builder can build ThreadDispatchers.
type Builder struct {
	registry Registry
	policy   FailurePolicy
	logger   *log.Logger
}

// MakeBuilder creates a builder with the default settings. Dispatchers built
// with the default settings isolate listener failures and are not registered
// anywhere.
func MakeBuilder() Builder {
	return Builder{
		policy: FailurePolicyIsolate,
	}
}

// WithRegistry sets the registry that synchronizes the dispatcher every
// frame.
func (b Builder) WithRegistry(r Registry) Builder {
	b.registry = r
	return b
}

// WithFailurePolicy sets how listener failures are handled.
func (b Builder) WithFailurePolicy(p FailurePolicy) Builder {
	b.policy = p
	return b
}

// WithLogger sets the logger that receives isolated listener failures.
func (b Builder) WithLogger(l *log.Logger) Builder {
	b.logger = l
	return b
}

// Build creates a new ThreadDispatcher and adds it to the registry, if any.
func (b Builder) Build(name string) *ThreadDispatcher {
	d := &ThreadDispatcher{
		HookableBase:     hooking.NewHookableBase(),
		name:             name,
		registry:         b.registry,
		policy:           b.policy,
		logger:           b.logger,
		listeners:        make(listenerTable),
		pendingListeners: make(listenerTable),
		queue:            newEventQueue(),
		pendingQueue:     newEventQueue(),
	}

	if d.logger == nil {
		d.logger = log.Default()
	}

	if d.registry != nil {
		d.registry.Add(d)
	}

	return d
}
