package datarecording

import (
	"context"
	"os"
	"strings"
	"time"
)

// ExecInfoTable is the table ExecRecorder writes into.
const ExecInfoTable = "exec_info"

// ExecInfo is a property of one program execution.
type ExecInfo struct {
	Property string
	Value    string
}

// ExecRecorder records when and how the program was run.
type ExecRecorder struct {
	recorder DataRecorder
	entries  []ExecInfo
}

// NewExecRecorder creates the exec_info table in the recorder.
func NewExecRecorder(recorder DataRecorder) *ExecRecorder {
	recorder.CreateTable(ExecInfoTable, ExecInfo{})

	return &ExecRecorder{recorder: recorder}
}

// Start captures the start time, the command line and the working directory.
func (e *ExecRecorder) Start() {
	e.add("Start Time", now())
	e.add("Command", strings.Join(os.Args, " "))

	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}

	e.add("Working Directory", cwd)
}

// Set records an extra property, such as a configuration value.
func (e *ExecRecorder) Set(property, value string) {
	e.add(property, value)
}

// End writes the captured properties along with the end time.
func (e *ExecRecorder) End() {
	e.add("End Time", now())

	for _, entry := range e.entries {
		e.recorder.InsertData(ExecInfoTable, entry)
	}

	e.entries = nil

	e.recorder.Flush()
}

func (e *ExecRecorder) add(property, value string) {
	e.entries = append(e.entries, ExecInfo{Property: property, Value: value})
}

func now() string {
	return time.Now().Format("2006-01-02 15:04:05.000000000")
}

// ReadExecInfo returns the properties written by an ExecRecorder, in the
// order they were captured.
func ReadExecInfo(ctx context.Context, r *Reader) ([]ExecInfo, error) {
	return Read[ExecInfo](ctx, r, ExecInfoTable, Filter{})
}
