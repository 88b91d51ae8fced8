package protocol

import (
	"fmt"

	"github.com/sarchlab/retention/mem/dram/signal"
	"github.com/sarchlab/retention/sim/hooking"
)

// EngineState is a state of the command protocol engine.
type EngineState int

// A list of engine states.
const (
	StateIdle EngineState = iota
	StateActivating
	StateActivateWait
	StateWriteCmd
	StateBurstBeat
	StateRecoveryWait
	StateReadCmd
	StateLatencyWait
	StateCaptureBeat
	StatePrecharge
	StatePrechargeWait
	StateDecay
	StateRefreshWait
	StateDone
)

var engineStateNames = [...]string{
	"Idle",
	"Activating",
	"ActivateWait",
	"WriteCmd",
	"BurstBeat",
	"RecoveryWait",
	"ReadCmd",
	"LatencyWait",
	"CaptureBeat",
	"Precharge",
	"PrechargeWait",
	"Decay",
	"RefreshWait",
	"Done",
}

func (s EngineState) String() string {
	if s < 0 || int(s) >= len(engineStateNames) {
		return fmt.Sprintf("EngineState(%d)", int(s))
	}

	return engineStateNames[s]
}

type operation int

const (
	opNone operation = iota
	opWrite
	opRead
	opDecay
)

// Engine issues the command sequences of one write, one read or one decay
// wait, honoring the minimum waits of its timing table.
type Engine struct {
	*hooking.HookableBase
	bus commandBus

	name               string
	timing             TimingTable
	refreshDuringDecay bool

	state    EngineState
	op       operation
	loc      signal.Location
	beat     int
	deadline uint64

	activatedAt  uint64
	readIssuedAt uint64

	decayCycles uint64
	decayArmed  bool
	decayEnd    uint64
	nextRefresh uint64

	writeBuf signal.Burst
	readBuf  signal.Burst
	timedOut bool
}

// Name returns the name of the engine.
func (e *Engine) Name() string {
	return e.name
}

// State returns the current state.
func (e *Engine) State() EngineState {
	return e.state
}

// Done reports whether the last started operation has completed.
func (e *Engine) Done() bool {
	return e.state == StateDone
}

// Idle reports whether the engine can accept an operation.
func (e *Engine) Idle() bool {
	return e.state == StateIdle || e.state == StateDone
}

// Reset abandons any operation in progress.
func (e *Engine) Reset() {
	e.state = StateIdle
	e.op = opNone
	e.decayArmed = false
	e.timedOut = false
	e.readBuf = signal.Burst{}
}

// StartWrite begins writing data to loc.
func (e *Engine) StartWrite(loc signal.Location, data signal.Burst) {
	e.mustBeIdle()

	e.op = opWrite
	e.loc = loc
	e.writeBuf = data
	e.state = StateActivating
}

// StartRead begins reading loc. The result is available from ReadResult once
// Done.
func (e *Engine) StartRead(loc signal.Location) {
	e.mustBeIdle()

	e.op = opRead
	e.loc = loc
	e.readBuf = signal.Burst{}
	e.timedOut = false
	e.state = StateActivating
}

// StartDecay begins a wait of the given number of cycles, counted from the
// next tick.
func (e *Engine) StartDecay(cycles uint64) {
	e.mustBeIdle()

	e.op = opDecay
	e.decayCycles = cycles
	e.decayArmed = false
	e.state = StateDecay
}

// ReadResult returns the data of the last read and whether the device failed
// to signal valid data in time.
func (e *Engine) ReadResult() (signal.Burst, bool) {
	return e.readBuf, e.timedOut
}

func (e *Engine) mustBeIdle() {
	if !e.Idle() {
		panic(fmt.Sprintf("%s: operation started in state %s", e.name, e.state))
	}
}

// Tick runs one controller cycle. It returns false while the engine only
// waits for a timer.
func (e *Engine) Tick(now uint64) bool {
	switch e.state {
	case StateIdle, StateDone:
		return false
	case StateActivating:
		return e.activate(now)
	case StateActivateWait:
		if now < e.deadline {
			return false
		}

		e.state = StateReadCmd
		if e.op == opWrite {
			e.state = StateWriteCmd
		}

		return e.Tick(now)
	case StateWriteCmd:
		e.issueColumn(signal.CmdKindWrite, now)
		e.beat = 0
		e.state = StateBurstBeat

		return true
	case StateBurstBeat:
		return e.driveBeat(now)
	case StateRecoveryWait:
		if now < e.deadline {
			return false
		}

		e.toPrecharge()

		return e.Tick(now)
	case StateReadCmd:
		e.issueColumn(signal.CmdKindRead, now)
		e.readIssuedAt = now
		e.state = StateLatencyWait

		return true
	case StateLatencyWait:
		return e.awaitData(now)
	case StateCaptureBeat:
		return e.captureBeat(now)
	case StatePrecharge:
		return e.precharge(now)
	case StatePrechargeWait:
		if now < e.deadline {
			return false
		}

		e.state = StateDone

		return true
	case StateDecay:
		return e.decay(now)
	case StateRefreshWait:
		if now < e.deadline {
			return false
		}

		e.state = StateDecay

		return e.Tick(now)
	default:
		panic(fmt.Sprintf("%s: unknown state %d", e.name, e.state))
	}
}

func (e *Engine) activate(now uint64) bool {
	e.bus.issue(signal.Command{
		Kind:     signal.CmdKindActivate,
		Location: signal.Location{Bank: e.loc.Bank, Row: e.loc.Row},
	}, now)

	e.activatedAt = now
	e.deadline = now + uint64(e.timing.TRCD)
	e.state = StateActivateWait

	return true
}

func (e *Engine) issueColumn(kind signal.CommandKind, now uint64) {
	e.bus.issue(signal.Command{
		Kind: kind,
		Location: signal.Location{
			Bank:   e.loc.Bank,
			Column: e.loc.Column,
		},
	}, now)
}

func (e *Engine) driveBeat(now uint64) bool {
	n := e.timing.BurstLength
	e.bus.phy.DriveBeat(e.beat, e.writeBuf.Beat(e.beat, n), now)
	e.beat++

	if e.beat == n {
		e.deadline = now + uint64(e.timing.TWR)
		e.state = StateRecoveryWait
	}

	return true
}

func (e *Engine) awaitData(now uint64) bool {
	elapsed := now - e.readIssuedAt
	if elapsed < uint64(e.timing.TCL) {
		return false
	}

	if !e.bus.phy.DataValid(now) {
		if elapsed < uint64(e.timing.ReadTimeout()) {
			return true
		}

		e.timedOut = true
	}

	e.beat = 0
	e.state = StateCaptureBeat

	return e.Tick(now)
}

func (e *Engine) captureBeat(now uint64) bool {
	n := e.timing.BurstLength
	e.bus.phy.CaptureBeat(e.beat, e.readBuf.Beat(e.beat, n), now)
	e.beat++

	if e.beat == n {
		e.toPrecharge()
	}

	return true
}

// toPrecharge holds the precharge until tRAS has passed since the ACTIVATE.
func (e *Engine) toPrecharge() {
	e.deadline = e.activatedAt + uint64(e.timing.TRAS)
	e.state = StatePrecharge
}

func (e *Engine) precharge(now uint64) bool {
	if now < e.deadline {
		return false
	}

	e.bus.issue(signal.Command{
		Kind:     signal.CmdKindPrecharge,
		Location: signal.Location{Bank: e.loc.Bank},
	}, now)

	e.deadline = now + uint64(e.timing.TRP)
	e.state = StatePrechargeWait

	return true
}

func (e *Engine) decay(now uint64) bool {
	if !e.decayArmed {
		e.decayArmed = true
		e.decayEnd = now + e.decayCycles
		e.nextRefresh = now + uint64(e.timing.TREFI)
	}

	if e.refreshDuringDecay && now >= e.nextRefresh && e.nextRefresh < e.decayEnd {
		e.bus.issue(signal.Command{
			Kind:     signal.CmdKindRefresh,
			AllBanks: true,
		}, now)

		e.nextRefresh += uint64(e.timing.TREFI)
		e.deadline = now + uint64(e.timing.TRFC)
		e.state = StateRefreshWait

		return true
	}

	if now < e.decayEnd {
		return false
	}

	e.state = StateDone

	return true
}

// NextWake returns the cycle the current timer expires.
func (e *Engine) NextWake() (uint64, bool) {
	switch e.state {
	case StateActivateWait, StateRecoveryWait, StatePrecharge,
		StatePrechargeWait, StateRefreshWait:
		return e.deadline, true
	case StateLatencyWait:
		return e.readIssuedAt + uint64(e.timing.TCL), true
	case StateDecay:
		if !e.decayArmed {
			return 0, false
		}

		if e.refreshDuringDecay && e.nextRefresh < e.decayEnd {
			return e.nextRefresh, true
		}

		return e.decayEnd, true
	default:
		return 0, false
	}
}
