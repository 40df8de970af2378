package frame

import (
	"context"
	"log"
	"sync"
)

// An Invoker runs functions queued from any goroutine on the goroutine that
// drains it.
type Invoker struct {
	logger *log.Logger

	lock  sync.Mutex
	queue []func()
}

// NewInvoker creates an Invoker. A nil logger means the standard logger.
func NewInvoker(logger *log.Logger) *Invoker {
	if logger == nil {
		logger = log.Default()
	}

	return &Invoker{logger: logger}
}

// Invoke queues fn to run in the next Drain.
func (i *Invoker) Invoke(fn func()) {
	if fn == nil {
		return
	}

	i.lock.Lock()
	i.queue = append(i.queue, fn)
	i.lock.Unlock()
}

// InvokeAndWait queues fn and blocks until it has run or ctx is done.
func (i *Invoker) InvokeAndWait(ctx context.Context, fn func()) error {
	done := make(chan struct{})

	i.Invoke(func() {
		defer close(done)
		fn()
	})

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len returns the number of queued functions.
func (i *Invoker) Len() int {
	i.lock.Lock()
	defer i.lock.Unlock()

	return len(i.queue)
}

// Drain runs every function queued before the call, in order. Functions
// queued while draining run in the next Drain. A panicking function is
// logged and does not stop the others. It returns the number of functions
// run.
func (i *Invoker) Drain() int {
	i.lock.Lock()
	queue := i.queue
	i.queue = nil
	i.lock.Unlock()

	for _, fn := range queue {
		i.run(fn)
	}

	return len(queue)
}

func (i *Invoker) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			i.logger.Printf("invoker: function panicked: %v", r)
		}
	}()

	fn()
}
