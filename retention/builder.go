// Package retention assembles a complete data-retention rig: a DRAM device
// model, the controller domain that sequences it and the serial domain that
// carries the report records, all on one engine.
package retention

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/sarchlab/retention/mem/dram/phy"
	"github.com/sarchlab/retention/mem/dram/protocol"
	"github.com/sarchlab/retention/mem/dram/signal"
	"github.com/sarchlab/retention/retention/cdc"
	"github.com/sarchlab/retention/retention/report"
	"github.com/sarchlab/retention/retention/sweep"
	"github.com/sarchlab/retention/retention/uart"
	"github.com/sarchlab/retention/sim/hooking"
	"github.com/sarchlab/retention/sim/id"
	"github.com/sarchlab/retention/sim/modeling"
	"github.com/sarchlab/retention/sim/timing"
)

// ErrInvalidRig is wrapped by every error returned from Build.
var ErrInvalidRig = errors.New("invalid rig")

// Builder can build rigs.
type Builder struct {
	controllerFreq timing.FreqInHz
	serialFreq     timing.FreqInHz
	baud           uint64

	timing             protocol.TimingTable
	refreshDuringDecay bool

	plan    sweep.Plan
	pattern sweep.PatternSource
	layout  report.Layout
	output  io.Writer

	shortestRetention timing.VTimeInSec
	longestRetention  timing.VTimeInSec
	deviceSeed        uint64
	unresponsive      bool

	eventLog    *log.Logger
	commandLog  *log.Logger
	progressLog *log.Logger
	hooks       []hooking.Hook
}

// MakeBuilder creates a builder for a DDR3-1600 device on an 800 MHz
// controller, reporting at 115200 baud from a 1.8432 MHz serial clock. The
// default plan tests one address once after 64 ms.
func MakeBuilder() Builder {
	return Builder{
		controllerFreq: 800 * timing.MHz,
		serialFreq:     1843200 * timing.Hz,
		baud:           115200,
		timing:         protocol.MakeTimingBuilder().Build(),
		plan: sweep.Plan{
			Durations: []uint64{51_200_000},
			Addresses: []signal.Location{{}},
			Repeats:   1,
		},
		pattern:           sweep.ConstantPattern(signal.FilledBurst(0xFF)),
		layout:            report.LayoutCompact,
		output:            io.Discard,
		shortestRetention: 0.064,
		longestRetention:  64,
		deviceSeed:        1,
	}
}

// WithControllerFreq sets the clock of the controller domain. Every cycle
// count of the timing table and the plan is in this clock.
func (b Builder) WithControllerFreq(freq timing.FreqInHz) Builder {
	b.controllerFreq = freq
	return b
}

// WithSerialClock sets the clock of the serial domain.
func (b Builder) WithSerialClock(freq timing.FreqInHz) Builder {
	b.serialFreq = freq
	return b
}

// WithBaud sets the bit rate of the serial line.
func (b Builder) WithBaud(baud uint64) Builder {
	b.baud = baud
	return b
}

// WithTiming sets the timing table.
func (b Builder) WithTiming(t protocol.TimingTable) Builder {
	b.timing = t
	return b
}

// WithRefreshDuringDecay keeps the device refreshed during decay waits.
func (b Builder) WithRefreshDuringDecay() Builder {
	b.refreshDuringDecay = true
	return b
}

// WithPlan sets the sweep plan.
func (b Builder) WithPlan(plan sweep.Plan) Builder {
	b.plan = plan
	return b
}

// WithPattern sets where test patterns come from.
func (b Builder) WithPattern(p sweep.PatternSource) Builder {
	b.pattern = p
	return b
}

// WithLayout sets the record layout.
func (b Builder) WithLayout(layout report.Layout) Builder {
	b.layout = layout
	return b
}

// WithOutput sets where the serial line delivers the bytes it sent.
func (b Builder) WithOutput(w io.Writer) Builder {
	b.output = w
	return b
}

// WithDeviceRetention sets the range of cell retention times of the device
// model.
func (b Builder) WithDeviceRetention(shortest, longest timing.VTimeInSec) Builder {
	b.shortestRetention = shortest
	b.longestRetention = longest

	return b
}

// WithDeviceSeed sets the seed of the device retention distribution.
func (b Builder) WithDeviceSeed(seed uint64) Builder {
	b.deviceSeed = seed
	return b
}

// WithUnresponsiveReads makes the device model never drive read data.
func (b Builder) WithUnresponsiveReads() Builder {
	b.unresponsive = true
	return b
}

// WithEventLog logs every event the engine handles.
func (b Builder) WithEventLog(logger *log.Logger) Builder {
	b.eventLog = logger
	return b
}

// WithCommandLog logs every command issued to the device.
func (b Builder) WithCommandLog(logger *log.Logger) Builder {
	b.commandLog = logger
	return b
}

// WithProgressLog logs every finished point.
func (b Builder) WithProgressLog(logger *log.Logger) Builder {
	b.progressLog = logger
	return b
}

// WithAdditionalHooks sets hooks attached to the orchestrator.
func (b Builder) WithAdditionalHooks(hooks ...hooking.Hook) Builder {
	b.hooks = append(b.hooks, hooks...)
	return b
}

// Build creates a rig whose controller is initializing the device.
func (b Builder) Build(name string) (*Rig, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	r := &Rig{
		name:     name,
		engine:   timing.NewSerialEngine(),
		registry: timing.NewFrequencyRegistry(),
	}

	if err := b.registerDomains(r); err != nil {
		return nil, err
	}

	cyclesPerBit, err := uart.CyclesPerBit(b.serialFreq, b.baud)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRig, err)
	}

	if b.eventLog != nil {
		r.engine.AcceptHook(timing.NewEventLogger(b.eventLog, r.registry))
	}

	b.buildDevice(r)
	b.buildController(r)
	b.buildSerialPort(r, cyclesPerBit)
	b.wire(r)

	return r, nil
}

func (b Builder) validate() error {
	if err := b.timing.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRig, err)
	}

	if err := b.plan.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRig, err)
	}

	if err := checkRecordRange(b.plan); err != nil {
		return err
	}

	if b.pattern == nil {
		return fmt.Errorf("%w: no pattern source", ErrInvalidRig)
	}

	if b.shortestRetention <= 0 || b.longestRetention < b.shortestRetention {
		return fmt.Errorf("%w: retention range [%g, %g] s",
			ErrInvalidRig, b.shortestRetention, b.longestRetention)
	}

	if b.layout != report.LayoutCompact && b.layout != report.LayoutVerbose {
		return fmt.Errorf("%w: %s", ErrInvalidRig, b.layout)
	}

	return nil
}

// checkRecordRange rejects plans whose points would not be told apart by
// their records.
func checkRecordRange(plan sweep.Plan) error {
	for _, d := range plan.DecayDurations() {
		if d > report.MaxDecayCycles {
			return fmt.Errorf("%w: decay of %d cycles exceeds the record "+
				"limit of %d", ErrInvalidRig, d, uint64(report.MaxDecayCycles))
		}
	}

	if plan.Repeats > report.MaxRepeatIndex+1 {
		return fmt.Errorf("%w: %d repeats exceed the record limit of %d",
			ErrInvalidRig, plan.Repeats, report.MaxRepeatIndex+1)
	}

	return nil
}

func (b Builder) registerDomains(r *Rig) error {
	var err error

	r.controllerDomain, err = r.registry.RegisterFrequency(b.controllerFreq)
	if err != nil {
		return fmt.Errorf("%w: controller clock: %w", ErrInvalidRig, err)
	}

	r.serialDomain, err = r.registry.RegisterFrequency(b.serialFreq)
	if err != nil {
		return fmt.Errorf("%w: serial clock: %w", ErrInvalidRig, err)
	}

	return nil
}

func (b Builder) buildDevice(r *Rig) {
	db := phy.MakeDeviceBuilder().
		WithFreq(b.controllerFreq).
		WithChecks(b.timing.DeviceChecks()).
		WithRetention(b.shortestRetention, b.longestRetention).
		WithSeed(b.deviceSeed)

	if b.unresponsive {
		db = db.WithUnresponsiveReads()
	}

	r.device = db.Build(r.name + ".Device")
}

func (b Builder) buildController(r *Rig) {
	pb := protocol.MakeBuilder().
		WithTiming(b.timing).
		WithTransceiver(r.device).
		WithIDGenerator(id.NewIDGenerator())

	if b.refreshDuringDecay {
		pb = pb.WithRefreshDuringDecay()
	}

	if b.commandLog != nil {
		pb = pb.WithAdditionalHooks(protocol.NewCommandLogger(b.commandLog))
	}

	r.initSequencer = pb.BuildInitSequencer(r.name + ".Init")
	r.protocolEngine = pb.BuildEngine(r.name + ".Protocol")

	r.slot = cdc.NewHandshakeSlot()
	r.serializer = report.NewSerializer(b.layout, cdc.NewProducer(r.slot))

	ob := sweep.MakeBuilder().
		WithPlan(b.plan).
		WithPattern(b.pattern).
		WithInitializer(r.initSequencer).
		WithEngine(r.protocolEngine).
		WithReporter(r.serializer).
		WithAdditionalHooks(b.hooks...)

	if b.progressLog != nil {
		ob = ob.WithAdditionalHooks(sweep.NewProgressLogger(b.progressLog))
	}

	r.orchestrator = ob.Build(r.name + ".Orchestrator")

	r.controller = &controller{orchestrator: r.orchestrator}
	r.controller.TickingComponent = modeling.NewTickingComponent(
		r.name+".Controller", r.engine, r.controllerDomain, r.controller)
}

func (b Builder) buildSerialPort(r *Rig, cyclesPerBit int) {
	r.line = uart.NewLine(cyclesPerBit, b.output)

	r.serialPort = &serialPort{
		line:     r.line,
		consumer: cdc.NewConsumer(r.slot, r.line),
	}
	r.serialPort.TickingComponent = modeling.NewTickingComponent(
		r.name+".Serial", r.engine, r.serialDomain, r.serialPort)
}

func (b Builder) wire(r *Rig) {
	r.slot.NotifyRequest(r.serialPort.Wake)
	r.slot.NotifyAck(r.controller.Wake)

	r.button = &startButton{
		engine:       r.engine,
		domain:       r.controllerDomain,
		orchestrator: r.orchestrator,
		controller:   r.controller,
	}
	r.orchestrator.AcceptHook(r.button)

	r.controller.TickNow()
}
