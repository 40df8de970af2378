package tracing

import (
	"github.com/sarchlab/framesync/datarecording"
	"github.com/sarchlab/framesync/hooking"
	"github.com/sarchlab/framesync/timer"
)

// TimerTable is the table TimerTracer writes into.
const TimerTable = "timer_transition"

// TimerEntry is one state transition or tick of a timer.
type TimerEntry struct {
	Frame      uint64
	TimerID    string
	Name       string
	Transition string
	State      string
	Count      uint32
}

// TimerTracer records timer transitions.
type TimerTracer struct {
	recorder datarecording.DataRecorder
	frames   FrameTeller

	skipTicks bool
}

// NewTimerTracer creates a TimerTracer that writes into recorder.
func NewTimerTracer(
	recorder datarecording.DataRecorder,
	frames FrameTeller,
) *TimerTracer {
	createTableOnce(recorder, TimerTable, TimerEntry{})

	return &TimerTracer{
		recorder: recorder,
		frames:   frames,
	}
}

// SkipTicks stops the tracer from recording every elapsed interval. Only the
// state changes are recorded.
func (t *TimerTracer) SkipTicks() *TimerTracer {
	t.skipTicks = true
	return t
}

// Trace starts recording the transitions of a timer.
func (t *TimerTracer) Trace(tm *timer.Timer) {
	CollectTrace(tm, t)
}

// TraceGroup starts recording the transitions of every timer in a group.
func (t *TimerTracer) TraceGroup(g *timer.Group) {
	g.ForEach(t.Trace)
}

// Func records a row for a timer hook.
func (t *TimerTracer) Func(ctx hooking.HookCtx) {
	tm, ok := ctx.Item.(*timer.Timer)
	if !ok {
		return
	}

	if ctx.Pos == timer.HookPosTicking && t.skipTicks {
		return
	}

	count := tm.CurrentCount()
	if ctx.Pos == timer.HookPosTicking {
		count = ctx.Detail.(uint32)
	}

	t.recorder.InsertData(TimerTable, TimerEntry{
		Frame:      t.frames.FrameCount(),
		TimerID:    tm.ID(),
		Name:       tm.Name(),
		Transition: ctx.Pos.Name,
		State:      tm.State().String(),
		Count:      count,
	})
}
