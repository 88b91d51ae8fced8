package protocol

import (
	"log"

	"github.com/sarchlab/retention/mem/dram/signal"
	"github.com/sarchlab/retention/sim/hooking"
)

type named interface {
	Name() string
}

// CommandLogger writes one line per issued command.
type CommandLogger struct {
	hooking.LogHookBase
}

// NewCommandLogger returns a CommandLogger that writes to logger.
func NewCommandLogger(logger *log.Logger) *CommandLogger {
	return &CommandLogger{LogHookBase: hooking.NewLogHookBase(logger)}
}

// Func writes the command.
func (h *CommandLogger) Func(ctx hooking.HookCtx) {
	if ctx.Pos != HookPosCommandIssued {
		return
	}

	cmd := ctx.Item.(signal.Command)
	cycle, _ := ctx.Detail.(uint64)

	source := "?"
	if n, ok := ctx.Domain.(named); ok {
		source = n.Name()
	}

	h.Printf("%d, %s, %s", cycle, source, cmd)
}
