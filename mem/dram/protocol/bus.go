package protocol

import (
	"github.com/sarchlab/retention/mem/dram/phy"
	"github.com/sarchlab/retention/mem/dram/signal"
	"github.com/sarchlab/retention/sim/hooking"
	"github.com/sarchlab/retention/sim/id"
)

// HookPosCommandIssued marks a command put on the command bus. The item is
// the signal.Command and the detail is the controller cycle as a uint64.
var HookPosCommandIssued = &hooking.HookPos{Name: "CommandIssued"}

// commandBus is the single path from a sequencer to the transceiver.
type commandBus struct {
	phy   phy.Transceiver
	ids   id.IDGenerator
	owner hooking.Hookable
}

func (b *commandBus) issue(cmd signal.Command, now uint64) {
	cmd.ID = b.ids.Generate()
	b.phy.Issue(cmd, now)

	b.owner.InvokeHook(hooking.HookCtx{
		Domain: b.owner,
		Pos:    HookPosCommandIssued,
		Item:   cmd,
		Detail: now,
	})
}
