package datarecording

import (
	"os"
	"strings"
	"time"
)

// RunInfoTable is the table run properties are written to.
const RunInfoTable = "run_info"

// RunInfo is one property of a run.
type RunInfo struct {
	RunID    string
	Property string
	Value    string
}

// RunRecorder records how a run was started and when it ended.
type RunRecorder struct {
	runID    string
	recorder DataRecorder
	entries  []RunInfo
}

// NewRunRecorder creates a RunRecorder and its table.
func NewRunRecorder(recorder DataRecorder, runID string) *RunRecorder {
	recorder.CreateTable(RunInfoTable, RunInfo{})

	return &RunRecorder{
		runID:    runID,
		recorder: recorder,
	}
}

// Start records the start time, the command line and the working
// directory.
func (e *RunRecorder) Start() {
	e.Set("Start Time", now())
	e.Set("Command", strings.Join(os.Args, " "))

	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}

	e.Set("Working Directory", cwd)
}

// Set records a property, such as a setting the run used.
func (e *RunRecorder) Set(property, value string) {
	e.entries = append(e.entries, RunInfo{e.runID, property, value})
}

// End writes every property along with the end time.
func (e *RunRecorder) End() {
	e.Set("End Time", now())

	for _, entry := range e.entries {
		e.recorder.InsertData(RunInfoTable, entry)
	}

	e.entries = nil

	e.recorder.Flush()
}

func now() string {
	return time.Now().Format("2006-01-02 15:04:05.000000000")
}
