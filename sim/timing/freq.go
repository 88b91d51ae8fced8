package timing

import "errors"

// VTimeInCycle is the simulation time in global cycles. The length of one
// global cycle is set by the FrequencyRegistry so that the period of every
// registered domain is a whole number of global cycles.
type VTimeInCycle uint64

// VTimeInSec is a time in the simulated space in the unit of second.
type VTimeInSec float64

// FreqInHz defines the type of frequency.
type FreqInHz uint64

// Defines the unit of frequency.
const (
	Hz  FreqInHz = 1
	KHz FreqInHz = 1e3
	MHz FreqInHz = 1e6
	GHz FreqInHz = 1e9
)

var (
	// ErrZeroFrequency is returned when a domain with a 0 Hz clock is
	// registered.
	ErrZeroFrequency = errors.New("timing: frequency cannot be 0")

	// ErrNoFrequencyDomains is returned when a conversion is requested before
	// any domain is registered.
	ErrNoFrequencyDomains = errors.New("timing: no frequency domain registered")

	// ErrTickPrecisionLoss is returned when a duration is not a whole number
	// of global cycles.
	ErrTickPrecisionLoss = errors.New("timing: duration is not cycle aligned")

	// ErrTickOverflow is returned when a time does not fit into
	// VTimeInCycle.
	ErrTickOverflow = errors.New("timing: cycle count overflow")
)
