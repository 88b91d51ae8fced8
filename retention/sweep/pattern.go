package sweep

import (
	"encoding/binary"

	"github.com/sarchlab/retention/mem/dram/signal"
)

// A PatternSource chooses the data written at a test point. It must return
// the same data for every repeat of a point.
type PatternSource interface {
	Pattern(point TestPoint) signal.Burst
}

// ConstantPattern writes the same burst everywhere.
type ConstantPattern signal.Burst

// Pattern returns the constant burst.
func (c ConstantPattern) Pattern(TestPoint) signal.Burst {
	return signal.Burst(c)
}

// AddressHashPattern writes a pseudo-random burst derived from the address.
type AddressHashPattern struct {
	Seed uint64
}

// Pattern hashes the seed and the packed address.
func (h AddressHashPattern) Pattern(point TestPoint) signal.Burst {
	var b signal.Burst

	x := h.Seed ^ uint64(point.Location.Pack())
	binary.BigEndian.PutUint64(b[:8], mix64(x))
	binary.BigEndian.PutUint64(b[8:], mix64(x+1))

	return b
}

// mix64 is the splitmix64 finalizer.
func mix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB

	return x ^ (x >> 31)
}
