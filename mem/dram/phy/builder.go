package phy

import (
	"github.com/sarchlab/retention/sim/hooking"
	"github.com/sarchlab/retention/sim/timing"
)

// DeviceBuilder can build behavioral devices.
type DeviceBuilder struct {
	freq         timing.FreqInHz
	checks       Checks
	minRetention timing.VTimeInSec
	maxRetention timing.VTimeInSec
	seed         uint64
	unresponsive bool
	hooks        []hooking.Hook
}

// MakeDeviceBuilder creates a builder for a DDR3-1600 device clocked at
// 800 MHz.
func MakeDeviceBuilder() DeviceBuilder {
	return DeviceBuilder{
		freq: 800 * timing.MHz,
		checks: Checks{
			TRCD: 11,
			TRP:  11,
			TRAS: 28,
			TWR:  12,
			TMRD: 4,
			TMOD: 12,
			TRFC: 208,
			CL:   11,
		},
		minRetention: 0.064,
		maxRetention: 64,
		seed:         1,
	}
}

// WithFreq sets the controller clock the cycle counts are measured in.
func (b DeviceBuilder) WithFreq(freq timing.FreqInHz) DeviceBuilder {
	b.freq = freq
	return b
}

// WithChecks sets the command spacings the device enforces.
func (b DeviceBuilder) WithChecks(checks Checks) DeviceBuilder {
	b.checks = checks
	return b
}

// WithRetention sets the range cell retention times are drawn from.
func (b DeviceBuilder) WithRetention(
	shortest, longest timing.VTimeInSec,
) DeviceBuilder {
	b.minRetention = shortest
	b.maxRetention = longest

	return b
}

// WithSeed sets the seed of the retention distribution.
func (b DeviceBuilder) WithSeed(seed uint64) DeviceBuilder {
	b.seed = seed
	return b
}

// WithUnresponsiveReads makes the device never drive read data.
func (b DeviceBuilder) WithUnresponsiveReads() DeviceBuilder {
	b.unresponsive = true
	return b
}

// WithAdditionalHooks sets the hooks attached to the device.
func (b DeviceBuilder) WithAdditionalHooks(hooks ...hooking.Hook) DeviceBuilder {
	b.hooks = append(b.hooks, hooks...)
	return b
}

// Build creates a device.
func (b DeviceBuilder) Build(name string) *Device {
	if b.minRetention <= 0 || b.maxRetention < b.minRetention {
		panic("retention range must be positive and ordered")
	}

	d := &Device{
		HookableBase: hooking.NewHookableBase(),
		name:         name,
		checks:       b.checks,
		freq:         b.freq,
		minRetention: float64(b.minRetention),
		maxRetention: float64(b.maxRetention),
		seed:         b.seed,
		unresponsive: b.unresponsive,
		reset:        true,
		cells:        make(map[uint32]*cellBlock),
	}

	for _, h := range b.hooks {
		d.AcceptHook(h)
	}

	return d
}
