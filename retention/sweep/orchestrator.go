package sweep

import (
	"fmt"

	"github.com/sarchlab/retention/mem/dram/signal"
	"github.com/sarchlab/retention/sim/hooking"
)

// Hook positions of the orchestrator.
var (
	// HookPosReady fires when initialization completes and the orchestrator
	// starts waiting for a start edge.
	HookPosReady = &hooking.HookPos{Name: "Ready"}

	// HookPosSweepStart fires when a start edge begins a sweep. The item is
	// the number of points of the sweep.
	HookPosSweepStart = &hooking.HookPos{Name: "SweepStart"}

	// HookPosPointDone fires when a read completes. The item is an Outcome.
	HookPosPointDone = &hooking.HookPos{Name: "PointDone"}

	// HookPosSweepEnd fires after the record of the last point is sent. The
	// item is the number of points visited.
	HookPosSweepEnd = &hooking.HookPos{Name: "SweepEnd"}
)

// An Initializer brings the device up after power-up or reset.
type Initializer interface {
	Tick(now uint64) bool
	Done() bool
	Reset()
	NextWake() (uint64, bool)
}

// A ProtocolEngine runs one write, decay wait or read at a time.
type ProtocolEngine interface {
	StartWrite(loc signal.Location, data signal.Burst)
	StartRead(loc signal.Location)
	StartDecay(cycles uint64)
	Tick(now uint64) bool
	Done() bool
	ReadResult() (signal.Burst, bool)
	Reset()
	NextWake() (uint64, bool)
}

// State is a state of the orchestrator.
type State int

// A list of orchestrator states.
const (
	StateInit State = iota
	StateReady
	StateWrite
	StateDecay
	StateRead
	StateReport
	StateAllDone
)

var stateNames = [...]string{
	"Init",
	"Ready",
	"Write",
	"Decay",
	"Read",
	"Report",
	"AllDone",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}

	return stateNames[s]
}

// Orchestrator visits every point of a plan: it writes a pattern, waits,
// reads it back, and reports how many bits survived.
type Orchestrator struct {
	*hooking.HookableBase

	name     string
	init     Initializer
	engine   ProtocolEngine
	reporter RecordSink
	pattern  PatternSource

	plan      Plan
	durations []uint64
	cursor    cursor

	state      State
	startLevel bool
	lastStart  bool

	point      TestPoint
	written    signal.Burst
	pointsDone int
}

// Name returns the name of the orchestrator.
func (o *Orchestrator) Name() string {
	return o.name
}

// State returns the current state.
func (o *Orchestrator) State() State {
	return o.state
}

// Progress returns the number of finished points and the size of the sweep.
func (o *Orchestrator) Progress() (done, total int) {
	return o.pointsDone, o.plan.NumPoints()
}

// Plan returns the plan being swept.
func (o *Orchestrator) Plan() Plan {
	return o.plan
}

// SetStart drives the start input. A sweep begins on a rising edge seen by
// a tick while the orchestrator is Ready or AllDone.
func (o *Orchestrator) SetStart(level bool) {
	o.startLevel = level
}

// Reset rewinds every counter and re-enters initialization.
func (o *Orchestrator) Reset() {
	o.init.Reset()
	o.engine.Reset()
	o.reporter.Reset()
	o.cursor.rewind()

	o.state = StateInit
	o.pointsDone = 0
	o.lastStart = o.startLevel
}

// Tick runs one controller cycle.
func (o *Orchestrator) Tick(now uint64) bool {
	rising := o.startLevel && !o.lastStart
	o.lastStart = o.startLevel

	return o.step(now, rising)
}

func (o *Orchestrator) step(now uint64, startEdge bool) bool {
	switch o.state {
	case StateInit:
		progress := o.init.Tick(now)
		if !o.init.Done() {
			return progress
		}

		o.state = StateReady
		o.InvokeHook(hooking.HookCtx{Domain: o, Pos: HookPosReady})

		return o.step(now, startEdge)
	case StateReady, StateAllDone:
		if !startEdge {
			return false
		}

		o.beginSweep()

		return o.step(now, false)
	case StateWrite:
		return o.runEngine(now, func() {
			o.engine.StartDecay(o.point.DecayCycles)
			o.state = StateDecay
		})
	case StateDecay:
		return o.runEngine(now, func() {
			o.engine.StartRead(o.point.Location)
			o.state = StateRead
		})
	case StateRead:
		return o.runEngine(now, o.finishPoint)
	case StateReport:
		progress := o.reporter.Tick()
		if !o.reporter.Done() {
			return progress
		}

		if o.cursor.advance() {
			o.endSweep()
			return true
		}

		o.startPoint()

		return o.step(now, false)
	default:
		panic(fmt.Sprintf("%s: unknown state %d", o.name, o.state))
	}
}

// runEngine ticks the engine and moves on once its operation completes.
func (o *Orchestrator) runEngine(now uint64, next func()) bool {
	progress := o.engine.Tick(now)
	if !o.engine.Done() {
		return progress
	}

	next()

	return o.step(now, false)
}

func (o *Orchestrator) beginSweep() {
	o.cursor.rewind()
	o.pointsDone = 0

	o.InvokeHook(hooking.HookCtx{
		Domain: o,
		Pos:    HookPosSweepStart,
		Item:   o.plan.NumPoints(),
	})

	o.startPoint()
}

func (o *Orchestrator) startPoint() {
	o.point = TestPoint{
		DecayCycles:   o.durations[o.cursor.duration.index],
		Location:      o.plan.Addresses[o.cursor.address.index],
		RepeatIndex:   o.cursor.repeat.index,
		DurationIndex: o.cursor.duration.index,
		AddressIndex:  o.cursor.address.index,
	}
	o.written = o.pattern.Pattern(o.point)

	o.engine.StartWrite(o.point.Location, o.written)
	o.state = StateWrite
}

func (o *Orchestrator) finishPoint() {
	read, timedOut := o.engine.ReadResult()
	result := NewTestResult(o.written, read, timedOut)

	o.reporter.Load(o.point, result)
	o.pointsDone++
	o.state = StateReport

	o.InvokeHook(hooking.HookCtx{
		Domain: o,
		Pos:    HookPosPointDone,
		Item:   Outcome{Point: o.point, Result: result},
	})
}

func (o *Orchestrator) endSweep() {
	o.state = StateAllDone

	o.InvokeHook(hooking.HookCtx{
		Domain: o,
		Pos:    HookPosSweepEnd,
		Item:   o.pointsDone,
	})
}

// NextWake returns the cycle the current timer expires. Waits on the report
// channel and on the start input end through an explicit wake instead.
func (o *Orchestrator) NextWake() (uint64, bool) {
	switch o.state {
	case StateInit:
		return o.init.NextWake()
	case StateWrite, StateDecay, StateRead:
		return o.engine.NextWake()
	default:
		return 0, false
	}
}
