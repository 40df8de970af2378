package frame

import (
	"errors"
	"log"

	"github.com/sarchlab/framesync/hooking"
)

// ErrInvalidTimeScale is returned when a time scale is negative.
var ErrInvalidTimeScale = errors.New("frame: time scale must not be negative")

// Builder can build frame drivers.
type Builder struct {
	clock     Clock
	targetFPS float64
	timeScale float64
	maxFrames uint64
	logger    *log.Logger
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		clock:     SystemClock{},
		targetFPS: 60,
		timeScale: 1,
	}
}

// WithClock sets the clock the frame deltas are measured with.
func (b Builder) WithClock(clock Clock) Builder {
	b.clock = clock
	return b
}

// WithTargetFPS sets the number of frames per second Run aims for.
func (b Builder) WithTargetFPS(fps float64) Builder {
	b.targetFPS = fps
	return b
}

// WithTimeScale sets the factor applied to the wall-clock delta.
func (b Builder) WithTimeScale(scale float64) Builder {
	b.timeScale = scale
	return b
}

// WithMaxFrames sets the number of frames after which Run returns. Zero
// means no limit.
func (b Builder) WithMaxFrames(n uint64) Builder {
	b.maxFrames = n
	return b
}

// WithLogger sets the logger used to report failures.
func (b Builder) WithLogger(logger *log.Logger) Builder {
	b.logger = logger
	return b
}

// Build creates a driver.
func (b Builder) Build() *Driver {
	if b.targetFPS <= 0 {
		log.Panicf("target FPS must be positive, got %v", b.targetFPS)
	}

	if b.timeScale < 0 {
		log.Panicf("time scale must not be negative, got %v", b.timeScale)
	}

	if b.clock == nil {
		log.Panic("clock is not set")
	}

	logger := b.logger
	if logger == nil {
		logger = log.Default()
	}

	return &Driver{
		HookableBase: hooking.NewHookableBase(),
		clock:        b.clock,
		targetFPS:    b.targetFPS,
		timeScale:    b.timeScale,
		maxFrames:    b.maxFrames,
		logger:       logger,
		synchronizer: NewSynchronizer(),
		invoker:      NewInvoker(logger),
	}
}
