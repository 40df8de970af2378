package tracing

import (
	"github.com/sarchlab/framesync/datarecording"
	"github.com/sarchlab/framesync/event"
	"github.com/sarchlab/framesync/hooking"
)

// DeliveryTable is the table DeliveryTracer writes into.
const DeliveryTable = "event_delivery"

// DeliveryEntry is one delivered event, or one listener failure.
type DeliveryEntry struct {
	Frame      uint64
	Dispatcher string
	EventID    string
	EventType  string
	Listeners  int
	Failed     bool
	Error      string
}

// DeliveryTracer records the events delivered by dispatchers.
type DeliveryTracer struct {
	recorder datarecording.DataRecorder
	frames   FrameTeller
}

// NewDeliveryTracer creates a DeliveryTracer that writes into recorder.
func NewDeliveryTracer(
	recorder datarecording.DataRecorder,
	frames FrameTeller,
) *DeliveryTracer {
	createTableOnce(recorder, DeliveryTable, DeliveryEntry{})

	return &DeliveryTracer{
		recorder: recorder,
		frames:   frames,
	}
}

// Trace starts recording the deliveries of a dispatcher.
func (t *DeliveryTracer) Trace(d event.Dispatcher) {
	CollectTrace(d, t)
}

// Func records a row when an event has been delivered or a listener failed.
func (t *DeliveryTracer) Func(ctx hooking.HookCtx) {
	e, ok := ctx.Item.(*event.Event)
	if !ok {
		return
	}

	entry := DeliveryEntry{
		Frame:      t.frames.FrameCount(),
		Dispatcher: domainName(ctx.Domain),
		EventID:    e.ID,
		EventType:  string(e.Type),
	}

	switch ctx.Pos {
	case event.HookPosAfterDeliver:
		entry.Listeners = ctx.Detail.(int)
	case event.HookPosListenerFailed:
		entry.Failed = true
		entry.Error = ctx.Detail.(error).Error()
	default:
		return
	}

	t.recorder.InsertData(DeliveryTable, entry)
}
