// Package sweep drives a data-retention experiment over a space of decay
// durations, addresses and repetitions.
package sweep

import (
	"errors"
	"fmt"
	"math"

	"github.com/sarchlab/retention/mem/dram/signal"
)

// ErrInvalidPlan is wrapped by every error returned from Plan.Validate.
var ErrInvalidPlan = errors.New("invalid sweep plan")

// DurationCurve is a logarithmic series of decay durations. Setting i of n
// waits Base × 10^(i × Decades / (n-1)) cycles.
type DurationCurve struct {
	Base    uint64
	Decades float64
	Count   int
}

// Durations expands the curve.
func (c DurationCurve) Durations() []uint64 {
	out := make([]uint64, c.Count)

	for i := range out {
		if c.Count == 1 {
			out[i] = c.Base
			continue
		}

		exp := float64(i) * c.Decades / float64(c.Count-1)
		out[i] = uint64(math.Round(float64(c.Base) * math.Pow(10, exp)))
	}

	return out
}

// Plan describes a sweep. Durations are controller cycles. When Curve is set
// it replaces Durations.
type Plan struct {
	Durations []uint64
	Curve     *DurationCurve
	Addresses []signal.Location
	Repeats   int
}

// DecayDurations returns the outer loop of the sweep.
func (p Plan) DecayDurations() []uint64 {
	if p.Curve != nil {
		return p.Curve.Durations()
	}

	return p.Durations
}

// NumPoints returns the number of test points of a full sweep.
func (p Plan) NumPoints() int {
	return len(p.DecayDurations()) * len(p.Addresses) * p.Repeats
}

// Validate checks that every loop of the sweep has at least one iteration.
func (p Plan) Validate() error {
	if p.Curve != nil {
		if p.Curve.Count < 1 {
			return fmt.Errorf("%w: curve needs at least one setting",
				ErrInvalidPlan)
		}

		if p.Curve.Decades < 0 || math.IsNaN(p.Curve.Decades) ||
			math.IsInf(p.Curve.Decades, 0) {
			return fmt.Errorf("%w: curve span %v", ErrInvalidPlan,
				p.Curve.Decades)
		}

		last := float64(p.Curve.Base) * math.Pow(10, p.Curve.Decades)
		if last >= math.MaxUint64 {
			return fmt.Errorf("%w: curve ends beyond the cycle counter",
				ErrInvalidPlan)
		}
	} else if len(p.Durations) == 0 {
		return fmt.Errorf("%w: no decay durations", ErrInvalidPlan)
	}

	if len(p.Addresses) == 0 {
		return fmt.Errorf("%w: no addresses", ErrInvalidPlan)
	}

	for _, a := range p.Addresses {
		if !a.Valid() {
			return fmt.Errorf("%w: address %+v is outside the device",
				ErrInvalidPlan, a)
		}
	}

	if p.Repeats < 1 {
		return fmt.Errorf("%w: repeat count %d", ErrInvalidPlan, p.Repeats)
	}

	return nil
}
