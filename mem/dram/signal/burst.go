package signal

import (
	"encoding/binary"
	"math/bits"
)

// BurstBytes is the number of bytes moved by one READ or WRITE.
const BurstBytes = 16

// BurstBits is the number of bits moved by one READ or WRITE.
const BurstBits = BurstBytes * 8

// Burst is the data of one READ or WRITE. Byte 0 is transferred first.
type Burst [BurstBytes]byte

// ValidBurstLength reports whether a burst can be split into n equal beats.
func ValidBurstLength(n int) bool {
	return n > 0 && n <= BurstBytes && BurstBytes%n == 0
}

// Beat returns the bytes of beat i when the burst is split into n beats.
func (b *Burst) Beat(i, n int) []byte {
	width := BurstBytes / n

	return b[i*width : (i+1)*width]
}

// MatchingBits counts the bit positions where a and b agree.
func MatchingBits(a, b Burst) int {
	diff := 0

	for i := 0; i < BurstBytes; i += 8 {
		x := binary.BigEndian.Uint64(a[i:]) ^ binary.BigEndian.Uint64(b[i:])
		diff += bits.OnesCount64(x)
	}

	return BurstBits - diff
}

// FilledBurst returns a burst with every byte set to v.
func FilledBurst(v byte) Burst {
	var b Burst
	for i := range b {
		b[i] = v
	}

	return b
}
