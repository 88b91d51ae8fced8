package timing

import (
	"fmt"
	"math"
	"math/bits"
)

// FrequencyRegistry coordinates multiple clock domains by deriving a single
// cycle resolution that preserves deterministic ordering. Two domains never
// need a fixed phase relationship; they only share the global time line.
type FrequencyRegistry struct {
	global  FreqInHz
	domains map[FreqInHz]*FreqDomain
}

// NewFrequencyRegistry builds an empty registry ready to accept clock domains.
func NewFrequencyRegistry() *FrequencyRegistry {
	return &FrequencyRegistry{
		domains: make(map[FreqInHz]*FreqDomain),
	}
}

// RegisterFrequency adds a clock domain and returns its descriptor.
//
// All domains must be registered before any of them is used for scheduling,
// because a new frequency may change the global resolution.
func (r *FrequencyRegistry) RegisterFrequency(
	freq FreqInHz,
) (*FreqDomain, error) {
	if freq == 0 {
		return nil, ErrZeroFrequency
	}

	if domain, exists := r.domains[freq]; exists {
		return domain, nil
	}

	if r.global == 0 {
		r.global = freq
	} else {
		newGlobal, err := lcmFreq(r.global, freq)
		if err != nil {
			return nil, err
		}

		r.global = newGlobal
	}

	domain := &FreqDomain{
		freq:     freq,
		registry: r,
	}
	r.domains[freq] = domain

	return domain, nil
}

// GlobalFrequency returns the resolution of one global cycle.
func (r *FrequencyRegistry) GlobalFrequency() FreqInHz {
	return r.global
}

// CyclesToSeconds converts global cycles to seconds.
func (r *FrequencyRegistry) CyclesToSeconds(cycles VTimeInCycle) VTimeInSec {
	if r.global == 0 {
		return 0
	}

	return VTimeInSec(float64(cycles) / float64(r.global))
}

// SecondsToCycles converts a duration in seconds to global cycles. The
// duration must be a whole number of global cycles.
func (r *FrequencyRegistry) SecondsToCycles(
	sec VTimeInSec,
) (VTimeInCycle, error) {
	if r.global == 0 {
		return 0, ErrNoFrequencyDomains
	}

	if sec < 0 {
		return 0, fmt.Errorf(
			"timing: negative durations are not supported: %.12g",
			sec,
		)
	}

	scaled := float64(sec) * float64(r.global)
	rounded := math.Round(scaled)
	tickDuration := 1.0 / float64(r.global)

	if math.Abs(scaled-rounded) > cycleAlignmentTolerance(scaled) {
		return 0, fmt.Errorf(
			"%w: duration %.12g s exceeds cycle %.12g s",
			ErrTickPrecisionLoss,
			sec,
			tickDuration,
		)
	}

	if rounded < 0 || rounded >= float64(math.MaxUint64) {
		return 0, ErrTickOverflow
	}

	return VTimeInCycle(rounded), nil
}

func cycleAlignmentTolerance(scaled float64) float64 {
	return math.Max(1e-9, math.Abs(scaled)*1e-12)
}

func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}

	return a
}

func lcmFreq(a, b FreqInHz) (FreqInHz, error) {
	g := gcd(uint64(a), uint64(b))

	hi, lo := bits.Mul64(uint64(a)/g, uint64(b))
	if hi != 0 {
		return 0, fmt.Errorf("%w: lcm(%d, %d)", ErrTickOverflow, a, b)
	}

	return FreqInHz(lo), nil
}

// FreqDomain is one clock domain. Its ticks fall on every Stride() global
// cycles, starting at global cycle 0.
type FreqDomain struct {
	freq     FreqInHz
	registry *FrequencyRegistry
}

// FrequencyHz returns the frequency of the domain.
func (d *FreqDomain) FrequencyHz() FreqInHz {
	return d.freq
}

// Stride returns the number of global cycles between two ticks.
func (d *FreqDomain) Stride() VTimeInCycle {
	return VTimeInCycle(d.registry.global / d.freq)
}

// Cycle converts a global time to the index of the most recent tick of this
// domain.
func (d *FreqDomain) Cycle(now VTimeInCycle) uint64 {
	return uint64(now / d.Stride())
}

// TimeOfCycle returns the global time of the given local tick index.
func (d *FreqDomain) TimeOfCycle(cycle uint64) VTimeInCycle {
	hi, lo := bits.Mul64(cycle, uint64(d.Stride()))
	if hi != 0 {
		return VTimeInCycle(math.MaxUint64)
	}

	return VTimeInCycle(lo)
}

// ThisTick returns the current tick time, or the following tick if now is
// between two ticks.
//
//	           Input
//	           (          ]
//	|----------|----------|----------|----->
//	                      |
//	                      Output
func (d *FreqDomain) ThisTick(now VTimeInCycle) VTimeInCycle {
	stride := d.Stride()

	rem := now % stride
	if rem == 0 {
		return now
	}

	return saturatingAdd(now, stride-rem)
}

// NextTick returns the tick strictly after now.
//
//	           Input
//	           [          )
//	|----------|----------|----------|----->
//	                      |
//	                      Output
func (d *FreqDomain) NextTick(now VTimeInCycle) VTimeInCycle {
	stride := d.Stride()

	return saturatingAdd(now-now%stride, stride)
}

// NTicksLater returns the time n ticks after the current tick.
func (d *FreqDomain) NTicksLater(now VTimeInCycle, n VTimeInCycle) VTimeInCycle {
	hi, lo := bits.Mul64(uint64(n), uint64(d.Stride()))
	if hi != 0 {
		return VTimeInCycle(math.MaxUint64)
	}

	return saturatingAdd(d.ThisTick(now), VTimeInCycle(lo))
}

func saturatingAdd(a, b VTimeInCycle) VTimeInCycle {
	sum, carry := bits.Add64(uint64(a), uint64(b), 0)
	if carry != 0 {
		return VTimeInCycle(math.MaxUint64)
	}

	return VTimeInCycle(sum)
}
