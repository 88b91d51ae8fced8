package config

import (
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/retention/mem/dram/signal"
	"github.com/sarchlab/retention/retention/sweep"
)

// PlanFile is the YAML form of a sweep plan. Durations are in seconds and
// are converted to controller cycles.
//
//	durations: [0.064, 0.128, 0.256]
//	curve: {base: 0.001, decades: 4, count: 9}
//	addresses:
//	  - {bank: 0, row: 0, column: 0}
//	repeats: 3
//	pattern: {kind: hash, seed: 7}
type PlanFile struct {
	Durations []float64     `yaml:"durations,omitempty"`
	Curve     *CurveFile    `yaml:"curve,omitempty"`
	Addresses []AddressFile `yaml:"addresses"`
	Repeats   int           `yaml:"repeats"`
	Pattern   PatternFile   `yaml:"pattern,omitempty"`
}

// CurveFile is a logarithmic duration curve starting at Base seconds.
type CurveFile struct {
	Base    float64 `yaml:"base"`
	Decades float64 `yaml:"decades"`
	Count   int     `yaml:"count"`
}

// AddressFile is one tested location.
type AddressFile struct {
	Bank   uint32 `yaml:"bank"`
	Row    uint32 `yaml:"row"`
	Column uint32 `yaml:"column"`
}

// PatternFile selects the test pattern. Kind is "constant" (every byte is
// Byte) or "hash" (derived from the address and Seed).
type PatternFile struct {
	Kind string `yaml:"kind"`
	Byte uint8  `yaml:"byte"`
	Seed uint64 `yaml:"seed"`
}

// LoadPlanFile reads a plan file.
func LoadPlanFile(path string) (PlanFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PlanFile{}, fmt.Errorf("read plan: %w", err)
	}

	return ParsePlanFile(data)
}

// ParsePlanFile decodes a plan. Unknown keys are rejected.
func ParsePlanFile(data []byte) (PlanFile, error) {
	var p PlanFile

	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)

	if err := dec.Decode(&p); err != nil {
		return PlanFile{}, fmt.Errorf("%w: decode plan: %w", ErrInvalid, err)
	}

	return p, nil
}

// Plan converts the file to a validated sweep plan in cycles of a clock of
// controllerHz.
func (p PlanFile) Plan(controllerHz uint64) (sweep.Plan, error) {
	plan := sweep.Plan{Repeats: p.Repeats}

	if p.Curve != nil {
		base, err := secondsToCycles(p.Curve.Base, controllerHz)
		if err != nil {
			return sweep.Plan{}, err
		}

		plan.Curve = &sweep.DurationCurve{
			Base:    base,
			Decades: p.Curve.Decades,
			Count:   p.Curve.Count,
		}
	}

	for _, d := range p.Durations {
		cycles, err := secondsToCycles(d, controllerHz)
		if err != nil {
			return sweep.Plan{}, err
		}

		plan.Durations = append(plan.Durations, cycles)
	}

	for _, a := range p.Addresses {
		plan.Addresses = append(plan.Addresses,
			signal.Location{Bank: a.Bank, Row: a.Row, Column: a.Column})
	}

	if err := plan.Validate(); err != nil {
		return sweep.Plan{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	return plan, nil
}

// PatternSource returns the pattern the file selects. The default writes
// all ones.
func (p PlanFile) PatternSource() (sweep.PatternSource, error) {
	switch strings.ToLower(p.Pattern.Kind) {
	case "":
		return sweep.ConstantPattern(signal.FilledBurst(0xFF)), nil
	case "constant":
		return sweep.ConstantPattern(signal.FilledBurst(p.Pattern.Byte)), nil
	case "hash":
		return sweep.AddressHashPattern{Seed: p.Pattern.Seed}, nil
	default:
		return nil, fmt.Errorf("%w: unknown pattern kind %q",
			ErrInvalid, p.Pattern.Kind)
	}
}

func secondsToCycles(sec float64, hz uint64) (uint64, error) {
	if sec < 0 || math.IsNaN(sec) {
		return 0, fmt.Errorf("%w: duration %g s", ErrInvalid, sec)
	}

	cycles := math.Round(sec * float64(hz))
	if cycles >= math.MaxUint64 {
		return 0, fmt.Errorf("%w: duration %g s overflows the cycle counter",
			ErrInvalid, sec)
	}

	return uint64(cycles), nil
}
