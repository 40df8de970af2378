package tracing

import (
	"github.com/sarchlab/framesync/datarecording"
	"github.com/sarchlab/framesync/frame"
	"github.com/sarchlab/framesync/hooking"
)

// FrameTable is the table FrameTracer writes into.
const FrameTable = "frame"

// FrameEntry is one frame.
type FrameEntry struct {
	Frame    uint64
	Scaled   float64
	Unscaled float64
	Time     float64
}

// FrameTracer records the time step of every frame.
type FrameTracer struct {
	recorder datarecording.DataRecorder
}

// NewFrameTracer creates a FrameTracer that writes into recorder.
func NewFrameTracer(recorder datarecording.DataRecorder) *FrameTracer {
	createTableOnce(recorder, FrameTable, FrameEntry{})

	return &FrameTracer{recorder: recorder}
}

// Trace starts recording the frames of a driver.
func (t *FrameTracer) Trace(d *frame.Driver) {
	CollectTrace(d, t)
}

// Func records a row at the end of every frame.
func (t *FrameTracer) Func(ctx hooking.HookCtx) {
	if ctx.Pos != frame.HookPosAfterFrame {
		return
	}

	info := ctx.Item.(frame.Info)

	t.recorder.InsertData(FrameTable, FrameEntry{
		Frame:    info.Number,
		Scaled:   info.Delta.Scaled,
		Unscaled: info.Delta.Unscaled,
		Time:     info.Time,
	})
}
