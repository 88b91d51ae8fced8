package protocol

import (
	"github.com/sarchlab/retention/mem/dram/phy"
	"github.com/sarchlab/retention/sim/hooking"
	"github.com/sarchlab/retention/sim/id"
)

// Builder can build init sequencers and protocol engines that share one
// transceiver.
type Builder struct {
	timing             TimingTable
	phy                phy.Transceiver
	ids                id.IDGenerator
	refreshDuringDecay bool
	hooks              []hooking.Hook
}

// MakeBuilder creates a builder with the DDR3-1600 timing table.
func MakeBuilder() Builder {
	return Builder{
		timing: MakeTimingBuilder().Build(),
	}
}

// WithTiming sets the timing table.
func (b Builder) WithTiming(t TimingTable) Builder {
	b.timing = t
	return b
}

// WithTransceiver sets the transceiver commands are issued to.
func (b Builder) WithTransceiver(p phy.Transceiver) Builder {
	b.phy = p
	return b
}

// WithIDGenerator sets where command IDs come from.
func (b Builder) WithIDGenerator(ids id.IDGenerator) Builder {
	b.ids = ids
	return b
}

// WithRefreshDuringDecay makes decay waits issue a REFRESH every tREFI.
// Without it a decay wait issues no commands at all.
func (b Builder) WithRefreshDuringDecay() Builder {
	b.refreshDuringDecay = true
	return b
}

// WithAdditionalHooks sets hooks attached to everything built.
func (b Builder) WithAdditionalHooks(hooks ...hooking.Hook) Builder {
	b.hooks = append(b.hooks, hooks...)
	return b
}

// BuildInitSequencer creates an init sequencer.
func (b Builder) BuildInitSequencer(name string) *InitSequencer {
	b.mustBeValid()

	s := &InitSequencer{
		HookableBase: hooking.NewHookableBase(),
		name:         name,
		timing:       b.timing,
	}
	s.bus = b.makeBus(s)

	for _, h := range b.hooks {
		s.AcceptHook(h)
	}

	s.Reset()

	return s
}

// BuildEngine creates a protocol engine.
func (b Builder) BuildEngine(name string) *Engine {
	b.mustBeValid()

	e := &Engine{
		HookableBase:       hooking.NewHookableBase(),
		name:               name,
		timing:             b.timing,
		refreshDuringDecay: b.refreshDuringDecay,
	}
	e.bus = b.makeBus(e)

	for _, h := range b.hooks {
		e.AcceptHook(h)
	}

	return e
}

func (b Builder) makeBus(owner hooking.Hookable) commandBus {
	ids := b.ids
	if ids == nil {
		ids = id.NewIDGenerator()
	}

	return commandBus{phy: b.phy, ids: ids, owner: owner}
}

func (b Builder) mustBeValid() {
	if b.phy == nil {
		panic("transceiver is not set")
	}

	if err := b.timing.Validate(); err != nil {
		panic(err)
	}
}
