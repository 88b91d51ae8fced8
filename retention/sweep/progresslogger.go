package sweep

import (
	"log"

	"github.com/sarchlab/retention/sim/hooking"
)

// ProgressLogger writes one line per finished point and one per sweep.
type ProgressLogger struct {
	hooking.LogHookBase

	total int
	done  int
}

// NewProgressLogger returns a ProgressLogger that writes to logger.
func NewProgressLogger(logger *log.Logger) *ProgressLogger {
	return &ProgressLogger{LogHookBase: hooking.NewLogHookBase(logger)}
}

// Func writes progress.
func (h *ProgressLogger) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case HookPosSweepStart:
		h.total = ctx.Item.(int)
		h.done = 0
		h.Printf("sweep started, %d points", h.total)
	case HookPosPointDone:
		h.done++
		o := ctx.Item.(Outcome)
		h.Printf("point %d/%d, decay %d, addr %08X, repeat %d, %d/%d bits, timed out %t",
			h.done, h.total,
			o.Point.DecayCycles, o.Point.Location.Pack(), o.Point.RepeatIndex,
			o.Result.MatchingBits, o.Result.TotalBits, o.Result.TimedOut)
	case HookPosSweepEnd:
		h.Printf("sweep finished, %d points", ctx.Item.(int))
	}
}
