// Package protocol sequences a DRAM device through its command protocol:
// the one-shot initialization and the activate/write/read/precharge cycles
// of a retention test.
package protocol

import (
	"errors"
	"fmt"

	"github.com/sarchlab/retention/mem/dram/phy"
	"github.com/sarchlab/retention/mem/dram/signal"
)

// ModeRegisterSetting is one MODE_SET issued during initialization.
type ModeRegisterSetting struct {
	Register uint32 `yaml:"register"`
	Value    uint32 `yaml:"value"`
}

// TimingTable holds the minimum waits of every protocol phase, in controller
// cycles. A table is never changed while a session runs.
type TimingTable struct {
	TResetHold    int
	TCKEStabilize int
	TXPR          int
	TMRD          int
	TMOD          int
	TZQInit       int

	TRCD        int
	TWR         int
	TRP         int
	TRAS        int
	TCL         int
	TReadGrace  int
	BurstLength int

	TREFI int
	TRFC  int

	ModeRegisters []ModeRegisterSetting
}

// ErrInvalidTiming is wrapped by every error returned from Validate.
var ErrInvalidTiming = errors.New("invalid timing table")

// Validate checks that every wait is usable.
func (t TimingTable) Validate() error {
	waits := []struct {
		name  string
		value int
	}{
		{"tResetHold", t.TResetHold},
		{"tCKEStabilize", t.TCKEStabilize},
		{"tXPR", t.TXPR},
		{"tMRD", t.TMRD},
		{"tMOD", t.TMOD},
		{"tZQInit", t.TZQInit},
		{"tRCD", t.TRCD},
		{"tWR", t.TWR},
		{"tRP", t.TRP},
		{"tCL", t.TCL},
		{"tREFI", t.TREFI},
		{"tRFC", t.TRFC},
	}

	for _, w := range waits {
		if w.value < 1 {
			return fmt.Errorf("%w: %s must be at least 1 cycle, got %d",
				ErrInvalidTiming, w.name, w.value)
		}
	}

	if t.TRAS < 0 || t.TReadGrace < 0 {
		return fmt.Errorf("%w: tRAS and read grace cannot be negative",
			ErrInvalidTiming)
	}

	if !signal.ValidBurstLength(t.BurstLength) {
		return fmt.Errorf("%w: burst length %d does not divide %d bytes",
			ErrInvalidTiming, t.BurstLength, signal.BurstBytes)
	}

	if t.TRFC >= t.TREFI {
		return fmt.Errorf("%w: tRFC (%d) must be shorter than tREFI (%d)",
			ErrInvalidTiming, t.TRFC, t.TREFI)
	}

	for _, mr := range t.ModeRegisters {
		if mr.Register >= signal.NumBank {
			return fmt.Errorf("%w: mode register MR%d does not exist",
				ErrInvalidTiming, mr.Register)
		}
	}

	return nil
}

// ReadTimeout is the last cycle, counted from the READ, at which data valid
// is still awaited.
func (t TimingTable) ReadTimeout() int {
	return t.TCL + t.TReadGrace
}

// DeviceChecks returns the spacings a device running this table must honor.
func (t TimingTable) DeviceChecks() phy.Checks {
	return phy.Checks{
		TRCD: t.TRCD,
		TRP:  t.TRP,
		TRAS: t.TRAS,
		TWR:  t.TWR,
		TMRD: t.TMRD,
		TMOD: t.TMOD,
		TRFC: t.TRFC,
		CL:   t.TCL,
	}
}

// Preset names a built-in timing table.
type Preset string

// Built-in presets.
const (
	PresetDDR3_1600 Preset = "ddr3-1600"
	PresetRelaxed   Preset = "relaxed"
)

// ErrUnknownPreset is returned by LookupPreset for a name it does not know.
var ErrUnknownPreset = errors.New("unknown timing preset")

// LookupPreset returns the builder of a preset.
func LookupPreset(name Preset) (TimingBuilder, error) {
	switch name {
	case PresetDDR3_1600, "":
		return MakeTimingBuilder(), nil
	case PresetRelaxed:
		return MakeRelaxedTimingBuilder(), nil
	default:
		return TimingBuilder{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
}

// DDR3ModeRegisters returns the JEDEC MRS order (MR2, MR3, MR1, MR0) for a
// DDR3 device with CWL 8, CL 11, write recovery 12, burst length 8.
func DDR3ModeRegisters() []ModeRegisterSetting {
	return []ModeRegisterSetting{
		{Register: 2, Value: 0x0018},
		{Register: 3, Value: 0x0000},
		{Register: 1, Value: 0x0004},
		{Register: 0, Value: 0x0D70},
	}
}

// TimingBuilder can build timing tables.
type TimingBuilder struct {
	t TimingTable
}

// MakeTimingBuilder creates a builder with a DDR3-1600 timing table at an
// 800 MHz controller clock.
func MakeTimingBuilder() TimingBuilder {
	return TimingBuilder{t: TimingTable{
		TResetHold:    160000,
		TCKEStabilize: 400000,
		TXPR:          216,
		TMRD:          4,
		TMOD:          12,
		TZQInit:       512,
		TRCD:          11,
		TWR:           12,
		TRP:           11,
		TRAS:          28,
		TCL:           11,
		TReadGrace:    10,
		BurstLength:   8,
		TREFI:         6240,
		TRFC:          208,
		ModeRegisters: DDR3ModeRegisters(),
	}}
}

// MakeRelaxedTimingBuilder creates a builder with short initialization waits
// and generous command spacing, for slow bench devices and tests.
func MakeRelaxedTimingBuilder() TimingBuilder {
	return TimingBuilder{t: TimingTable{
		TResetHold:    20,
		TCKEStabilize: 50,
		TXPR:          10,
		TMRD:          4,
		TMOD:          12,
		TZQInit:       64,
		TRCD:          4,
		TWR:           4,
		TRP:           4,
		TRAS:          10,
		TCL:           5,
		TReadGrace:    10,
		BurstLength:   8,
		TREFI:         780,
		TRFC:          26,
		ModeRegisters: DDR3ModeRegisters(),
	}}
}

// WithTResetHold sets the minimum width of the reset pulse.
func (b TimingBuilder) WithTResetHold(cycle int) TimingBuilder {
	b.t.TResetHold = cycle
	return b
}

// WithTCKEStabilize sets how long clock-enable stays low after reset is
// released.
func (b TimingBuilder) WithTCKEStabilize(cycle int) TimingBuilder {
	b.t.TCKEStabilize = cycle
	return b
}

// WithTXPR sets the NOP-only window after clock-enable rises.
func (b TimingBuilder) WithTXPR(cycle int) TimingBuilder {
	b.t.TXPR = cycle
	return b
}

// WithTMRD sets the mode-register-set to mode-register-set period.
func (b TimingBuilder) WithTMRD(cycle int) TimingBuilder {
	b.t.TMRD = cycle
	return b
}

// WithTMOD sets the wait after the last mode-register-set.
func (b TimingBuilder) WithTMOD(cycle int) TimingBuilder {
	b.t.TMOD = cycle
	return b
}

// WithTZQInit sets the initial ZQ calibration period.
func (b TimingBuilder) WithTZQInit(cycle int) TimingBuilder {
	b.t.TZQInit = cycle
	return b
}

// WithTRCD sets the row-to-column delay in cycles.
func (b TimingBuilder) WithTRCD(cycle int) TimingBuilder {
	b.t.TRCD = cycle
	return b
}

// WithTWR sets the write recovery time in cycles.
func (b TimingBuilder) WithTWR(cycle int) TimingBuilder {
	b.t.TWR = cycle
	return b
}

// WithTRP sets the row precharge latency in cycles.
func (b TimingBuilder) WithTRP(cycle int) TimingBuilder {
	b.t.TRP = cycle
	return b
}

// WithTRAS sets the minimum time between ACTIVATE and PRECHARGE.
func (b TimingBuilder) WithTRAS(cycle int) TimingBuilder {
	b.t.TRAS = cycle
	return b
}

// WithTCL sets the read latency window in cycles.
func (b TimingBuilder) WithTCL(cycle int) TimingBuilder {
	b.t.TCL = cycle
	return b
}

// WithTReadGrace sets how long after tCL a read waits for data valid before
// capturing anyway.
func (b TimingBuilder) WithTReadGrace(cycle int) TimingBuilder {
	b.t.TReadGrace = cycle
	return b
}

// WithBurstLength sets the number of beats per burst.
func (b TimingBuilder) WithBurstLength(n int) TimingBuilder {
	b.t.BurstLength = n
	return b
}

// WithTREFI sets the refresh interval in cycles.
func (b TimingBuilder) WithTREFI(cycle int) TimingBuilder {
	b.t.TREFI = cycle
	return b
}

// WithTRFC sets the refresh cycle time in cycles.
func (b TimingBuilder) WithTRFC(cycle int) TimingBuilder {
	b.t.TRFC = cycle
	return b
}

// WithModeRegisters replaces the mode-register program.
func (b TimingBuilder) WithModeRegisters(mrs []ModeRegisterSetting) TimingBuilder {
	b.t.ModeRegisters = append([]ModeRegisterSetting(nil), mrs...)
	return b
}

// Build returns the timing table.
func (b TimingBuilder) Build() TimingTable {
	t := b.t
	t.ModeRegisters = append([]ModeRegisterSetting(nil), b.t.ModeRegisters...)

	return t
}
