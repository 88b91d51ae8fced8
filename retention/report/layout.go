// Package report renders sweep outcomes as fixed-width ASCII records and
// feeds them through the report channel.
package report

import (
	"fmt"
	"strings"
)

// Layout selects the fields of a record.
type Layout int

// Supported layouts.
const (
	// LayoutCompact is T<decay>,A<address>,M<repeat>,E<errors>,D<read>.
	LayoutCompact Layout = iota

	// LayoutVerbose appends the written pattern and a pass/fail flag.
	LayoutVerbose
)

// Field widths in characters.
const (
	decayDigits   = 10
	addressDigits = 8
	repeatDigits  = 3
	errorDigits   = 2
	dataDigits    = 32
)

// Record lengths including the line break.
const (
	CompactLen = 1 + decayDigits + 2 + addressDigits + 2 + repeatDigits +
		2 + errorDigits + 2 + dataDigits + 2
	VerboseLen = CompactLen + 2 + dataDigits + 3
	MaxLen     = VerboseLen
)

// Largest values the fields can hold. Encode saturates larger values; the
// rig builder rejects plans that would produce them.
const (
	MaxDecayCycles = 1<<(4*decayDigits) - 1
	MaxRepeatIndex = 999
)

func (l Layout) String() string {
	switch l {
	case LayoutCompact:
		return "compact"
	case LayoutVerbose:
		return "verbose"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// Len returns the length of a record in this layout.
func (l Layout) Len() int {
	if l == LayoutVerbose {
		return VerboseLen
	}

	return CompactLen
}

// ParseLayout converts a layout name.
func ParseLayout(name string) (Layout, error) {
	switch strings.ToLower(name) {
	case "", "compact":
		return LayoutCompact, nil
	case "verbose":
		return LayoutVerbose, nil
	default:
		return 0, fmt.Errorf("unknown record layout %q", name)
	}
}
