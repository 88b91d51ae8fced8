package datarecording

import (
	"encoding/hex"
	"strings"

	"github.com/sarchlab/retention/retention/sweep"
	"github.com/sarchlab/retention/sim/hooking"
	"github.com/sarchlab/retention/sim/timing"
)

// ResultTable is the table sweep outcomes are written to.
const ResultTable = "retention_result"

// ResultEntry is one test point of a sweep.
type ResultEntry struct {
	RunID         string
	Sweep         int
	Point         int
	DecayCycles   uint64
	DecaySeconds  float64
	BankAddr      uint32
	RowAddr       uint32
	ColAddr       uint32
	RepeatIndex   int
	DurationIndex int
	AddressIndex  int
	MatchingBits  int
	BitErrors     int
	TimedOut      bool
	WrittenData   string
	ReadData      string
}

// ResultRecorder is a hook that writes one row per finished point and
// flushes when a sweep ends.
type ResultRecorder struct {
	runID      string
	recorder   DataRecorder
	controller timing.FreqInHz

	sweep int
	point int
}

// NewResultRecorder creates a ResultRecorder and its table. Decay cycles are
// converted to seconds with the controller clock.
func NewResultRecorder(
	recorder DataRecorder,
	runID string,
	controller timing.FreqInHz,
) *ResultRecorder {
	recorder.CreateTable(ResultTable, ResultEntry{})

	return &ResultRecorder{
		runID:      runID,
		recorder:   recorder,
		controller: controller,
	}
}

// Func records orchestrator events.
func (r *ResultRecorder) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case sweep.HookPosSweepStart:
		r.sweep++
		r.point = 0
	case sweep.HookPosPointDone:
		r.insert(ctx.Item.(sweep.Outcome))
	case sweep.HookPosSweepEnd:
		r.recorder.Flush()
	}
}

func (r *ResultRecorder) insert(o sweep.Outcome) {
	r.point++

	r.recorder.InsertData(ResultTable, ResultEntry{
		RunID:         r.runID,
		Sweep:         r.sweep,
		Point:         r.point,
		DecayCycles:   o.Point.DecayCycles,
		DecaySeconds:  float64(o.Point.DecayCycles) / float64(r.controller),
		BankAddr:      o.Point.Location.Bank,
		RowAddr:       o.Point.Location.Row,
		ColAddr:       o.Point.Location.Column,
		RepeatIndex:   o.Point.RepeatIndex,
		DurationIndex: o.Point.DurationIndex,
		AddressIndex:  o.Point.AddressIndex,
		MatchingBits:  o.Result.MatchingBits,
		BitErrors:     o.Result.BitErrors(),
		TimedOut:      o.Result.TimedOut,
		WrittenData:   strings.ToUpper(hex.EncodeToString(o.Result.Written[:])),
		ReadData:      strings.ToUpper(hex.EncodeToString(o.Result.Read[:])),
	})
}
