package timer

import (
	"log"

	"github.com/sarchlab/framesync/hooking"
	"github.com/sarchlab/framesync/idgen"
)

// Builder can build timers.
type Builder struct {
	interval                  float64
	repeatCount               uint32
	ignoreTimeScale           bool
	canAcceptApplicationPause bool
	registry                  Registry
	logger                    *log.Logger
}

// MakeBuilder creates a builder for a one-second timer that repeats forever
// and pauses with the application.
func MakeBuilder() Builder {
	return Builder{
		interval:                  1,
		canAcceptApplicationPause: true,
	}
}

// WithInterval sets the length of one interval in seconds.
func (b Builder) WithInterval(interval float64) Builder {
	b.interval = interval
	return b
}

// WithRepeatCount sets how many intervals elapse before the timer completes.
// Zero means forever.
func (b Builder) WithRepeatCount(n uint32) Builder {
	b.repeatCount = n
	return b
}

// WithIgnoreTimeScale makes the timer tick with unscaled time.
func (b Builder) WithIgnoreTimeScale() Builder {
	b.ignoreTimeScale = true
	return b
}

// WithApplicationPauseImmunity keeps the timer running when the application
// is suspended.
func (b Builder) WithApplicationPauseImmunity() Builder {
	b.canAcceptApplicationPause = false
	return b
}

// WithRegistry sets the registry that owns and ticks the timer.
func (b Builder) WithRegistry(r Registry) Builder {
	b.registry = r
	return b
}

// WithLogger sets the logger that receives hook failures.
func (b Builder) WithLogger(l *log.Logger) Builder {
	b.logger = l
	return b
}

// Build creates a stopped timer and adds it to the registry, if any.
func (b Builder) Build(name string) *Timer {
	if b.interval <= 0 {
		log.Panicf("timer %s: interval must be positive, got %v",
			name, b.interval)
	}

	t := &Timer{
		HookableBase:              hooking.NewHookableBase(),
		id:                        idgen.GetIDGenerator().Generate(),
		name:                      name,
		registry:                  b.registry,
		logger:                    b.logger,
		interval:                  b.interval,
		repeatCount:               b.repeatCount,
		ignoreTimeScale:           b.ignoreTimeScale,
		canAcceptApplicationPause: b.canAcceptApplicationPause,
		state:                     Stopped,
	}

	if t.logger == nil {
		t.logger = log.Default()
	}

	if t.registry != nil {
		t.registry.Add(t)
	}

	return t
}
