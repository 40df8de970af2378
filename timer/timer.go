// Package timer provides countdown timers that are advanced by an external
// frame driver.
package timer

import (
	"errors"
	"fmt"
	"log"

	"github.com/sarchlab/framesync/hooking"
)

// ErrDisposed is returned by operations on a disposed timer.
var ErrDisposed = errors.New("timer: disposed")

// ErrInvalidInterval is returned when an interval is not positive.
var ErrInvalidInterval = errors.New("timer: interval must be positive")

// tolerance is relative to the interval. It absorbs the rounding error of
// accumulating float deltas, so that five ticks of 0.2s complete a 1s
// interval.
const tolerance = 1e-9

// Hook positions triggered by a timer. The Item of the HookCtx is always the
// timer.
var (
	HookPosStarted   = &hooking.HookPos{Name: "TimerStarted"}
	HookPosPaused    = &hooking.HookPos{Name: "TimerPaused"}
	HookPosResumed   = &hooking.HookPos{Name: "TimerResumed"}
	HookPosStopped   = &hooking.HookPos{Name: "TimerStopped"}
	HookPosReset     = &hooking.HookPos{Name: "TimerReset"}
	HookPosCompleted = &hooking.HookPos{Name: "TimerCompleted"}

	// HookPosTicking is triggered every time an interval elapses. The Detail
	// is the new count as a uint32.
	HookPosTicking = &hooking.HookPos{Name: "TimerTicking"}
)

// A Registry owns timers for their whole lifetime.
type Registry interface {
	Add(t *Timer)
	Remove(t *Timer) bool
}

// A Timer counts intervals of time and raises hooks when an interval
// elapses. A timer must only be used from the goroutine that ticks it.
type Timer struct {
	*hooking.HookableBase

	id       string
	name     string
	registry Registry
	logger   *log.Logger

	interval                  float64
	repeatCount               uint32
	ignoreTimeScale           bool
	canAcceptApplicationPause bool

	state        State
	currentCount uint32
	elapsed      float64
	disposed     bool
}

// ID returns the unique ID of the timer.
func (t *Timer) ID() string {
	return t.id
}

// Name returns the name of the timer.
func (t *Timer) Name() string {
	return t.name
}

// Interval returns the length of one interval in seconds.
func (t *Timer) Interval() float64 {
	return t.interval
}

// SetInterval changes the length of one interval.
func (t *Timer) SetInterval(interval float64) error {
	if interval <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidInterval, interval)
	}

	t.interval = interval

	return nil
}

// RepeatCount returns the number of intervals after which the timer
// completes. Zero means the timer never completes.
func (t *Timer) RepeatCount() uint32 {
	return t.repeatCount
}

// SetRepeatCount changes the repeat count.
func (t *Timer) SetRepeatCount(n uint32) {
	t.repeatCount = n
}

// IgnoreTimeScale tells if the timer is ticked with unscaled time.
func (t *Timer) IgnoreTimeScale() bool {
	return t.ignoreTimeScale
}

// SetIgnoreTimeScale sets whether the timer is ticked with unscaled time.
func (t *Timer) SetIgnoreTimeScale(ignore bool) {
	t.ignoreTimeScale = ignore
}

// CanAcceptApplicationPause tells if the timer pauses when the application
// is suspended.
func (t *Timer) CanAcceptApplicationPause() bool {
	return t.canAcceptApplicationPause
}

// SetCanAcceptApplicationPause sets whether the timer pauses when the
// application is suspended.
func (t *Timer) SetCanAcceptApplicationPause(accept bool) {
	t.canAcceptApplicationPause = accept
}

// State returns the current state.
func (t *Timer) State() State {
	return t.state
}

// CurrentCount returns the number of intervals elapsed since the last reset.
func (t *Timer) CurrentCount() uint32 {
	return t.currentCount
}

// Elapsed returns the time accumulated in the current interval.
func (t *Timer) Elapsed() float64 {
	return t.elapsed
}

// IsDisposed tells if Dispose has been called.
func (t *Timer) IsDisposed() bool {
	return t.disposed
}

// Start starts the timer. Starting a running timer has no effect.
func (t *Timer) Start() error {
	if err := t.mustNotBeDisposed(); err != nil {
		return err
	}

	if t.state == Running {
		return nil
	}

	t.state = Running
	t.invokeHook(HookPosStarted, nil)

	return nil
}

// Pause pauses a running timer. If the pause is caused by the application
// being suspended and the timer does not accept application pauses, the
// timer keeps running.
func (t *Timer) Pause(causedByApplicationPause bool) error {
	if err := t.mustNotBeDisposed(); err != nil {
		return err
	}

	if causedByApplicationPause && !t.canAcceptApplicationPause {
		return nil
	}

	if t.state != Running {
		return nil
	}

	t.state = Paused
	t.invokeHook(HookPosPaused, nil)

	return nil
}

// Resume resumes a paused timer.
func (t *Timer) Resume() error {
	if err := t.mustNotBeDisposed(); err != nil {
		return err
	}

	if t.state != Paused {
		return nil
	}

	t.state = Running
	t.invokeHook(HookPosResumed, nil)

	return nil
}

// Stop stops the timer. The count and the elapsed time are kept.
func (t *Timer) Stop() error {
	if err := t.mustNotBeDisposed(); err != nil {
		return err
	}

	t.stop()

	return nil
}

func (t *Timer) stop() {
	if t.state == Stopped {
		return
	}

	t.state = Stopped
	t.invokeHook(HookPosStopped, nil)
}

// Reset stops the timer and clears the count and the elapsed time.
func (t *Timer) Reset() error {
	if err := t.mustNotBeDisposed(); err != nil {
		return err
	}

	t.reset()

	return nil
}

func (t *Timer) reset() {
	t.stop()
	t.currentCount = 0
	t.elapsed = 0
	t.invokeHook(HookPosReset, nil)
}

// Tick advances a running timer by delta seconds. Each elapsed interval
// raises HookPosTicking. The interval is consumed before the hook runs, so
// Elapsed reports the time carried into the next interval. When the repeat
// count is reached, the timer is reset before HookPosCompleted is raised and
// Elapsed is zero.
func (t *Timer) Tick(delta float64) {
	if t.state != Running || delta < 0 {
		return
	}

	t.elapsed += delta

	for t.state == Running && t.intervalElapsed() {
		t.elapsed -= t.interval
		if t.elapsed < 0 {
			t.elapsed = 0
		}

		t.currentCount++
		t.invokeHook(HookPosTicking, t.currentCount)

		if t.repeatCount != 0 && t.currentCount >= t.repeatCount {
			t.reset()
			t.invokeHook(HookPosCompleted, nil)
		}
	}
}

func (t *Timer) intervalElapsed() bool {
	return t.elapsed+t.interval*tolerance >= t.interval
}

// Dispose stops the timer and removes it from its registry. Calling it more
// than once has no effect.
func (t *Timer) Dispose() {
	if t.disposed {
		return
	}

	t.disposed = true
	t.state = Stopped

	if t.registry != nil {
		t.registry.Remove(t)
	}
}

func (t *Timer) mustNotBeDisposed() error {
	if t.disposed {
		return fmt.Errorf("%w: %s", ErrDisposed, t.name)
	}

	return nil
}

func (t *Timer) invokeHook(pos *hooking.HookPos, detail interface{}) {
	if t.NumHooks() == 0 {
		return
	}

	ctx := hooking.HookCtx{
		Domain: t,
		Pos:    pos,
		Item:   t,
		Detail: detail,
	}

	t.InvokeHookIsolated(ctx, func(_ hooking.Hook, err error) {
		t.logger.Printf("timer %s: %v", t.name, err)
	})
}

// On registers f to be called whenever the timer triggers pos.
func (t *Timer) On(pos *hooking.HookPos, f func(t *Timer)) *hooking.HookFunc {
	hook := hooking.NewHookFunc(func(ctx hooking.HookCtx) {
		if ctx.Pos == pos {
			f(ctx.Item.(*Timer))
		}
	})
	t.AcceptHook(hook)

	return hook
}

// OnTicking registers f to be called every time an interval elapses.
func (t *Timer) OnTicking(f func(t *Timer, count uint32)) *hooking.HookFunc {
	hook := hooking.NewHookFunc(func(ctx hooking.HookCtx) {
		if ctx.Pos == HookPosTicking {
			f(ctx.Item.(*Timer), ctx.Detail.(uint32))
		}
	})
	t.AcceptHook(hook)

	return hook
}

// OnCompleted registers f to be called when the repeat count is reached.
func (t *Timer) OnCompleted(f func(t *Timer)) *hooking.HookFunc {
	return t.On(HookPosCompleted, f)
}
