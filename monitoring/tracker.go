package monitoring

import (
	"fmt"

	"github.com/sarchlab/retention/retention/sweep"
	"github.com/sarchlab/retention/sim/hooking"
)

// PointResult is a finished point as shown on the results page.
type PointResult struct {
	DecayCycles uint64 `json:"decay_cycles"`
	Address     string `json:"address"`
	RepeatIndex int    `json:"repeat_index"`
	BitErrors   int    `json:"bit_errors"`
	TimedOut    bool   `json:"timed_out"`
	Passed      bool   `json:"passed"`
}

// SweepTracker is a hook that shows the progress of sweeps on the monitor.
type SweepTracker struct {
	monitor *Monitor
	name    string
	bar     *ProgressBar
	sweeps  int
}

// NewSweepTracker creates a SweepTracker that reports to m.
func NewSweepTracker(m *Monitor, name string) *SweepTracker {
	return &SweepTracker{monitor: m, name: name}
}

// Func updates the progress bar and the results.
func (t *SweepTracker) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case sweep.HookPosSweepStart:
		t.sweeps++

		if t.bar != nil {
			t.monitor.CompleteProgressBar(t.bar)
		}

		t.bar = t.monitor.CreateProgressBar(
			fmt.Sprintf("%s sweep %d", t.name, t.sweeps),
			uint64(ctx.Item.(int)))
		t.bar.StartPoint()
	case sweep.HookPosPointDone:
		o := ctx.Item.(sweep.Outcome)

		if t.bar != nil {
			t.bar.FinishPoint(o.Result.Passed())
		}

		t.monitor.AddResult(PointResult{
			DecayCycles: o.Point.DecayCycles,
			Address:     fmt.Sprintf("%08X", o.Point.Location.Pack()),
			RepeatIndex: o.Point.RepeatIndex,
			BitErrors:   o.Result.BitErrors(),
			TimedOut:    o.Result.TimedOut,
			Passed:      o.Result.Passed(),
		})
	case sweep.HookPosSweepEnd:
		if t.bar != nil {
			t.monitor.CompleteProgressBar(t.bar)
			t.bar = nil
		}
	}
}
