package report

import (
	"github.com/sarchlab/retention/mem/dram/signal"
	"github.com/sarchlab/retention/retention/sweep"
)

const hexDigits = "0123456789ABCDEF"

// Encode renders a record into dst, which must hold at least layout.Len()
// bytes, and returns the used part.
func Encode(
	dst []byte,
	layout Layout,
	point sweep.TestPoint,
	result sweep.TestResult,
) []byte {
	n := layout.Len()
	if len(dst) < n {
		panic("report: record buffer too small")
	}

	buf := dst[:0]

	decay := point.DecayCycles
	if decay > MaxDecayCycles {
		decay = MaxDecayCycles
	}

	repeat := point.RepeatIndex
	if repeat > MaxRepeatIndex {
		repeat = MaxRepeatIndex
	}

	buf = append(buf, 'T')
	buf = appendHex(buf, decay, decayDigits)
	buf = append(buf, ',', 'A')
	buf = appendHex(buf, uint64(point.Location.Pack()), addressDigits)
	buf = append(buf, ',', 'M')
	buf = appendDec(buf, uint64(repeat), repeatDigits)
	buf = append(buf, ',', 'E')
	buf = appendHex(buf, uint64(result.BitErrors()), errorDigits)
	buf = append(buf, ',', 'D')
	buf = appendBurst(buf, &result.Read)

	if layout == LayoutVerbose {
		buf = append(buf, ',', 'W')
		buf = appendBurst(buf, &result.Written)
		buf = append(buf, ',', 'P')

		if result.Passed() {
			buf = append(buf, 'P')
		} else {
			buf = append(buf, 'F')
		}
	}

	return append(buf, '\r', '\n')
}

// appendHex writes the low digits of v as zero-padded uppercase hex.
func appendHex(buf []byte, v uint64, digits int) []byte {
	for i := digits - 1; i >= 0; i-- {
		buf = append(buf, hexDigits[(v>>(4*uint(i)))&0xF])
	}

	return buf
}

func appendDec(buf []byte, v uint64, digits int) []byte {
	start := len(buf)
	for i := 0; i < digits; i++ {
		buf = append(buf, '0')
	}

	for i := len(buf) - 1; i >= start; i-- {
		buf[i] = byte('0' + v%10)
		v /= 10
	}

	return buf
}

func appendBurst(buf []byte, b *signal.Burst) []byte {
	for _, x := range b {
		buf = append(buf, hexDigits[x>>4], hexDigits[x&0xF])
	}

	return buf
}
