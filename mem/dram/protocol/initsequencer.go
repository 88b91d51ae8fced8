package protocol

import (
	"fmt"

	"github.com/sarchlab/retention/mem/dram/signal"
	"github.com/sarchlab/retention/sim/hooking"
)

// InitState is a step of the device initialization.
type InitState int

// The steps of the initialization, in order.
const (
	InitResetAssert InitState = iota
	InitResetHold
	InitCKELow
	InitNOPStabilize
	InitModeSet
	InitModeSetWait
	InitZQCalibrate
	InitZQWait
	InitDone
)

var initStateNames = [...]string{
	"ResetAssert",
	"ResetHold",
	"CKELow",
	"NOPStabilize",
	"ModeSet",
	"ModeSetWait",
	"ZQCalibrate",
	"ZQWait",
	"Done",
}

func (s InitState) String() string {
	if s < 0 || int(s) >= len(initStateNames) {
		return fmt.Sprintf("InitState(%d)", int(s))
	}

	return initStateNames[s]
}

// InitSequencer brings a device from power-up or reset to a state where it
// accepts test traffic. It is open loop: every step waits its minimum time
// and moves on.
type InitSequencer struct {
	*hooking.HookableBase
	bus commandBus

	name   string
	timing TimingTable

	state    InitState
	mrIndex  int
	deadline uint64
}

// Name returns the name of the sequencer.
func (s *InitSequencer) Name() string {
	return s.name
}

// State returns the current step.
func (s *InitSequencer) State() InitState {
	return s.state
}

// Done reports whether the device is initialized.
func (s *InitSequencer) Done() bool {
	return s.state == InitDone
}

// Reset rewinds the sequencer to its first step.
func (s *InitSequencer) Reset() {
	s.state = InitResetAssert
	s.mrIndex = 0
	s.deadline = 0
}

// Tick runs one controller cycle. It returns false while waiting.
func (s *InitSequencer) Tick(now uint64) bool {
	switch s.state {
	case InitResetAssert:
		s.bus.phy.SetReset(true, now)
		s.bus.phy.SetClockEnable(false, now)
		s.waitUntil(now+uint64(s.timing.TResetHold), InitResetHold)

		return true
	case InitResetHold:
		if now < s.deadline {
			return false
		}

		s.bus.phy.SetReset(false, now)
		s.waitUntil(now+uint64(s.timing.TCKEStabilize), InitCKELow)

		return true
	case InitCKELow:
		if now < s.deadline {
			return false
		}

		s.bus.phy.SetClockEnable(true, now)
		s.waitUntil(now+uint64(s.timing.TXPR), InitNOPStabilize)

		return s.Tick(now)
	case InitNOPStabilize:
		if now < s.deadline {
			s.bus.issue(signal.Command{Kind: signal.CmdKindNOP}, now)
			return true
		}

		s.state = s.afterModeSets()

		return s.Tick(now)
	case InitModeSet:
		return s.modeSet(now)
	case InitModeSetWait:
		if now < s.deadline {
			return false
		}

		s.state = s.afterModeSets()

		return s.Tick(now)
	case InitZQCalibrate:
		s.bus.issue(signal.Command{
			Kind:     signal.CmdKindZQCalibrate,
			AllBanks: true,
		}, now)
		s.waitUntil(now+uint64(s.timing.TZQInit), InitZQWait)

		return true
	case InitZQWait:
		if now < s.deadline {
			return false
		}

		s.state = InitDone

		return true
	case InitDone:
		return false
	default:
		panic(fmt.Sprintf("unknown init state %d", s.state))
	}
}

func (s *InitSequencer) modeSet(now uint64) bool {
	mr := s.timing.ModeRegisters[s.mrIndex]
	s.bus.issue(signal.Command{
		Kind:     signal.CmdKindModeSet,
		Location: signal.Location{Bank: mr.Register},
		Payload:  mr.Value,
	}, now)
	s.mrIndex++

	wait := s.timing.TMRD
	if s.mrIndex == len(s.timing.ModeRegisters) {
		wait = s.timing.TMOD
	}

	s.waitUntil(now+uint64(wait), InitModeSetWait)

	return true
}

func (s *InitSequencer) afterModeSets() InitState {
	if s.mrIndex < len(s.timing.ModeRegisters) {
		return InitModeSet
	}

	return InitZQCalibrate
}

func (s *InitSequencer) waitUntil(deadline uint64, next InitState) {
	s.deadline = deadline
	s.state = next
}

// NextWake returns the cycle the current wait ends.
func (s *InitSequencer) NextWake() (uint64, bool) {
	switch s.state {
	case InitResetHold, InitCKELow, InitModeSetWait, InitZQWait:
		return s.deadline, true
	default:
		return 0, false
	}
}
