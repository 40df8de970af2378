// Package tracing records what dispatchers, timers and the frame driver do
// into a DataRecorder.
package tracing

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/sarchlab/framesync/datarecording"
	"github.com/sarchlab/framesync/hooking"
)

// A NamedHookable is a hookable object with a name.
type NamedHookable interface {
	hooking.Hookable
	Name() string
}

// A FrameTeller tells the number of the frame being run.
type FrameTeller interface {
	FrameCount() uint64
}

// CollectTrace attaches a tracer hook to a domain. A domain can only carry a
// tracer once.
func CollectTrace(domain hooking.Hookable, tracer hooking.Hook) {
	for _, hook := range domain.Hooks() {
		if hook == tracer {
			panic(fmt.Sprintf("domain %s already has tracer %s",
				domainName(domain), reflect.TypeOf(tracer)))
		}
	}

	domain.AcceptHook(tracer)
}

func domainName(domain any) string {
	if named, ok := domain.(interface{ Name() string }); ok {
		return named.Name()
	}

	return reflect.TypeOf(domain).String()
}

func createTableOnce(
	recorder datarecording.DataRecorder,
	tableName string,
	sample any,
) {
	if slices.Contains(recorder.ListTables(), tableName) {
		return
	}

	recorder.CreateTable(tableName, sample)
}
