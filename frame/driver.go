package frame

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sarchlab/framesync/hooking"
)

// HookPosBeforeFrame is triggered at the start of a frame, before any queued
// work runs. The Item is an Info.
var HookPosBeforeFrame = &hooking.HookPos{Name: "BeforeFrame"}

// HookPosAfterFrame is triggered after every Tickable has been ticked. The
// Item is an Info.
var HookPosAfterFrame = &hooking.HookPos{Name: "AfterFrame"}

// Info describes one frame.
type Info struct {
	Number uint64
	Delta  Delta

	// Time is the accumulated scaled time at the end of the frame.
	Time float64
}

// A Driver owns the frame loop. Everything that the driver synchronizes or
// ticks runs on the goroutine that calls Step or Run.
type Driver struct {
	*hooking.HookableBase

	clock     Clock
	targetFPS float64
	maxFrames uint64
	logger    *log.Logger

	synchronizer *Synchronizer
	invoker      *Invoker
	tickables    []Tickable
	lifecycle    []LifecycleListener

	stateLock   sync.RWMutex
	timeScale   float64
	frameCount  uint64
	now         float64
	lastTime    time.Time
	appPaused   bool
	needResync  bool
	tickersLock sync.Mutex

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex

	singleRunLock sync.Mutex
}

// Synchronizer returns the synchronizer run once per frame. It is the
// registry to give to dispatchers.
func (d *Driver) Synchronizer() *Synchronizer {
	return d.synchronizer
}

// Invoker returns the queue of functions run at the start of each frame.
func (d *Driver) Invoker() *Invoker {
	return d.invoker
}

// TargetFPS returns the frame rate Run aims for.
func (d *Driver) TargetFPS() float64 {
	return d.targetFPS
}

// MaxFrames returns the number of frames after which Run returns. Zero means
// no limit.
func (d *Driver) MaxFrames() uint64 {
	return d.maxFrames
}

// RegisterTickable adds an object to be ticked every frame.
func (d *Driver) RegisterTickable(t Tickable) {
	if t == nil {
		log.Panic("cannot register a nil tickable")
	}

	d.tickersLock.Lock()
	d.tickables = append(d.tickables, t)
	d.tickersLock.Unlock()
}

// RegisterLifecycleListener adds an object to be told when the application
// is suspended or resumed.
func (d *Driver) RegisterLifecycleListener(l LifecycleListener) {
	if l == nil {
		log.Panic("cannot register a nil lifecycle listener")
	}

	d.tickersLock.Lock()
	d.lifecycle = append(d.lifecycle, l)
	d.tickersLock.Unlock()
}

// TimeScale returns the factor applied to the wall-clock delta.
func (d *Driver) TimeScale() float64 {
	d.stateLock.RLock()
	defer d.stateLock.RUnlock()

	return d.timeScale
}

// SetTimeScale changes the factor applied to the wall-clock delta from the
// next frame on.
func (d *Driver) SetTimeScale(scale float64) error {
	if scale < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidTimeScale, scale)
	}

	d.stateLock.Lock()
	d.timeScale = scale
	d.stateLock.Unlock()

	return nil
}

// FrameCount returns the number of frames run so far.
func (d *Driver) FrameCount() uint64 {
	d.stateLock.RLock()
	defer d.stateLock.RUnlock()

	return d.frameCount
}

// Now returns the accumulated scaled time in seconds.
func (d *Driver) Now() float64 {
	d.stateLock.RLock()
	defer d.stateLock.RUnlock()

	return d.now
}

// IsApplicationPaused tells if the application is currently suspended.
func (d *Driver) IsApplicationPaused() bool {
	d.stateLock.RLock()
	defer d.stateLock.RUnlock()

	return d.appPaused
}

// SetApplicationPaused tells every lifecycle listener that the application
// has been suspended or resumed. The listeners are called at the start of
// the next frame. Repeating the current state has no effect.
func (d *Driver) SetApplicationPaused(paused bool) {
	d.stateLock.Lock()
	if d.appPaused == paused {
		d.stateLock.Unlock()
		return
	}
	d.appPaused = paused
	d.stateLock.Unlock()

	d.invoker.Invoke(func() {
		d.tickersLock.Lock()
		listeners := make([]LifecycleListener, len(d.lifecycle))
		copy(listeners, d.lifecycle)
		d.tickersLock.Unlock()

		for _, l := range listeners {
			l.ApplicationPaused(paused)
		}
	})
}

// Step runs one frame. The error joins the errors returned by the
// synchronized objects. Every tickable is ticked even if synchronization
// failed.
func (d *Driver) Step() error {
	info := d.advance()

	ctx := hooking.HookCtx{
		Domain: d,
		Pos:    HookPosBeforeFrame,
		Item:   info,
	}
	d.InvokeHook(ctx)

	d.invoker.Drain()
	err := d.synchronizer.SynchronizeAll()

	d.tickersLock.Lock()
	tickables := make([]Tickable, len(d.tickables))
	copy(tickables, d.tickables)
	d.tickersLock.Unlock()

	for _, t := range tickables {
		t.Tick(info.Delta)
	}

	ctx.Pos = HookPosAfterFrame
	d.InvokeHook(ctx)

	return err
}

func (d *Driver) advance() Info {
	now := d.clock.Now()

	d.stateLock.Lock()
	defer d.stateLock.Unlock()

	unscaled := 0.0
	if !d.lastTime.IsZero() && !d.needResync {
		unscaled = now.Sub(d.lastTime).Seconds()
		if unscaled < 0 {
			unscaled = 0
		}
	}

	d.lastTime = now
	d.needResync = false

	delta := Delta{
		Scaled:   unscaled * d.timeScale,
		Unscaled: unscaled,
	}

	d.frameCount++
	d.now += delta.Scaled

	return Info{
		Number: d.frameCount,
		Delta:  delta,
		Time:   d.now,
	}
}

// Run runs frames at the target frame rate until ctx is done, MaxFrames is
// reached, or a frame fails. Only one Run can be active at a time.
func (d *Driver) Run(ctx context.Context) error {
	d.singleRunLock.Lock()
	defer d.singleRunLock.Unlock()

	ticker := time.NewTicker(d.framePeriod())
	defer ticker.Stop()

	for {
		if d.reachedMaxFrames() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if !d.pauseLock.TryLock() {
			d.resync()
			continue
		}

		err := d.Step()

		d.pauseLock.Unlock()

		if err != nil {
			return fmt.Errorf("frame %d: %w", d.FrameCount(), err)
		}
	}
}

func (d *Driver) framePeriod() time.Duration {
	return time.Duration(float64(time.Second) / d.targetFPS)
}

func (d *Driver) reachedMaxFrames() bool {
	return d.maxFrames > 0 && d.FrameCount() >= d.maxFrames
}

// resync makes the next frame start with a zero delta, so that the time
// spent paused is not replayed.
func (d *Driver) resync() {
	d.stateLock.Lock()
	d.needResync = true
	d.stateLock.Unlock()
}

// Pause prevents Run from starting new frames. It returns after the frame in
// progress, if any, completes.
func (d *Driver) Pause() {
	d.isPausedLock.Lock()
	defer d.isPausedLock.Unlock()

	if d.isPaused {
		return
	}

	d.pauseLock.Lock()
	d.isPaused = true
}

// Continue allows Run to start new frames again.
func (d *Driver) Continue() {
	d.isPausedLock.Lock()
	defer d.isPausedLock.Unlock()

	if !d.isPaused {
		return
	}

	d.resync()
	d.pauseLock.Unlock()
	d.isPaused = false
}

// Do runs fn on the frame goroutine at the start of the next frame and waits
// for it. If the driver is paused, fn runs right away on the calling
// goroutine, as no frame can start before Continue returns.
func (d *Driver) Do(ctx context.Context, fn func()) error {
	d.isPausedLock.Lock()
	if d.isPaused {
		defer d.isPausedLock.Unlock()
		fn()

		return nil
	}
	d.isPausedLock.Unlock()

	return d.invoker.InvokeAndWait(ctx, fn)
}

// IsPaused tells if the driver is paused.
func (d *Driver) IsPaused() bool {
	d.isPausedLock.Lock()
	defer d.isPausedLock.Unlock()

	return d.isPaused
}
