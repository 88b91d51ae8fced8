// Package id generates identifiers for commands, events and progress bars.
package id

import (
	"strconv"
	"sync/atomic"

	"github.com/rs/xid"
)

// IDGenerator produces unique identifiers.
type IDGenerator interface {
	Generate() string
}

// NewIDGenerator returns a generator counting up from "1". A rig numbers its
// commands with its own generator, so two rigs built the same way log the
// same IDs.
func NewIDGenerator() IDGenerator {
	return &sequentialIDGenerator{}
}

// NewXIDGenerator returns a generator whose IDs are unique across processes
// and sort by creation time.
func NewXIDGenerator() IDGenerator {
	return xidGenerator{}
}

type sequentialIDGenerator struct {
	last atomic.Uint64
}

func (g *sequentialIDGenerator) Generate() string {
	return strconv.FormatUint(g.last.Add(1), 10)
}

type xidGenerator struct{}

func (xidGenerator) Generate() string {
	return xid.New().String()
}

var defaultGenerator = NewIDGenerator()

// Generate returns a new ID from the process-wide sequential generator.
func Generate() string {
	return defaultGenerator.Generate()
}
