package retention

import (
	"github.com/sarchlab/retention/mem/dram/phy"
	"github.com/sarchlab/retention/mem/dram/protocol"
	"github.com/sarchlab/retention/retention/cdc"
	"github.com/sarchlab/retention/retention/report"
	"github.com/sarchlab/retention/retention/sweep"
	"github.com/sarchlab/retention/retention/uart"
	"github.com/sarchlab/retention/sim/hooking"
	"github.com/sarchlab/retention/sim/modeling"
	"github.com/sarchlab/retention/sim/timing"
)

// Rig is a device under test, the controller that tests it and the serial
// port its results leave through.
type Rig struct {
	name     string
	engine   *timing.SerialEngine
	registry *timing.FrequencyRegistry

	controllerDomain *timing.FreqDomain
	serialDomain     *timing.FreqDomain

	device         *phy.Device
	initSequencer  *protocol.InitSequencer
	protocolEngine *protocol.Engine
	orchestrator   *sweep.Orchestrator
	serializer     *report.Serializer
	slot           *cdc.HandshakeSlot
	line           *uart.Line

	controller *controller
	serialPort *serialPort
	button     *startButton
}

// Name returns the name of the rig.
func (r *Rig) Name() string {
	return r.name
}

// Start presses the start button. A press while the device is still being
// initialized is held until initialization completes.
func (r *Rig) Start() {
	r.button.Press()
}

// Reset aborts whatever is running and initializes the device again.
func (r *Rig) Reset() {
	r.button.pending = false
	r.orchestrator.Reset()
	r.slot.Clear()
	r.serialPort.reset()
	r.controller.Wake()
}

// Run simulates until neither domain has anything left to do.
func (r *Rig) Run() error {
	if err := r.engine.Run(); err != nil {
		return err
	}

	return r.line.Err()
}

// Engine returns the engine both domains run on.
func (r *Rig) Engine() *timing.SerialEngine {
	return r.engine
}

// Registry returns the frequency registry of the two domains.
func (r *Rig) Registry() *timing.FrequencyRegistry {
	return r.registry
}

// Now returns the simulated time in seconds.
func (r *Rig) Now() timing.VTimeInSec {
	return r.registry.CyclesToSeconds(r.engine.CurrentTime())
}

// ControllerCycle returns the current cycle of the controller clock.
func (r *Rig) ControllerCycle() uint64 {
	return r.controller.CurrentCycle()
}

// Device returns the device model.
func (r *Rig) Device() *phy.Device {
	return r.device
}

// Orchestrator returns the sweep orchestrator.
func (r *Rig) Orchestrator() *sweep.Orchestrator {
	return r.orchestrator
}

// Serializer returns the report serializer.
func (r *Rig) Serializer() *report.Serializer {
	return r.serializer
}

// Line returns the serial line.
func (r *Rig) Line() *uart.Line {
	return r.line
}

// Components returns the components that tick on the engine.
func (r *Rig) Components() []modeling.Component {
	return []modeling.Component{r.controller, r.serialPort}
}

// controller ticks the orchestrator in the controller clock.
type controller struct {
	*modeling.TickingComponent

	orchestrator *sweep.Orchestrator
}

func (c *controller) Tick() bool {
	return c.orchestrator.Tick(c.CurrentCycle())
}

func (c *controller) NextWake() (uint64, bool) {
	return c.orchestrator.NextWake()
}

// serialPort ticks the receiving side of the report channel and the line in
// the serial clock.
type serialPort struct {
	*modeling.TickingComponent

	line     *uart.Line
	consumer *cdc.Consumer
}

func (p *serialPort) Tick() bool {
	progress := p.line.Tick()
	progress = p.consumer.Tick() || progress

	return progress
}

func (p *serialPort) reset() {
	p.consumer.Reset()
	p.line.Reset()
}

type buttonRelease struct{}

// startButton produces a clean start edge: the level drops, and goes high
// again two controller cycles later.
type startButton struct {
	engine       timing.EventScheduler
	domain       *timing.FreqDomain
	orchestrator *sweep.Orchestrator
	controller   *controller
	pending      bool
}

func (b *startButton) Press() {
	if b.orchestrator.State() == sweep.StateInit {
		b.pending = true
		return
	}

	b.orchestrator.SetStart(false)
	b.controller.Wake()

	b.engine.Schedule(timing.ScheduledEvent{
		Event:   buttonRelease{},
		Time:    b.domain.NTicksLater(b.engine.CurrentTime(), 2),
		Handler: b,
	})
}

func (b *startButton) Handle(e any) error {
	if _, ok := e.(buttonRelease); !ok {
		return nil
	}

	b.orchestrator.SetStart(true)
	b.controller.Wake()

	return nil
}

// Func presses the button held during initialization.
func (b *startButton) Func(ctx hooking.HookCtx) {
	if ctx.Pos != sweep.HookPosReady || !b.pending {
		return
	}

	b.pending = false
	b.Press()
}
