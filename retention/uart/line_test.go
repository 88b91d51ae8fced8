package uart

import (
	"bytes"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/retention/sim/timing"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("closed")
}

// decode recovers the bytes of an 8N1 level trace sampled once per cycle.
func decode(levels []bool, cyclesPerBit int) []byte {
	var out []byte

	for i := 0; i < len(levels); {
		if levels[i] {
			i++
			continue
		}

		var b byte
		for bit := 0; bit < 8; bit++ {
			mid := i + (bit+1)*cyclesPerBit + cyclesPerBit/2
			if levels[mid] {
				b |= 1 << bit
			}
		}

		out = append(out, b)
		i += frameBits * cyclesPerBit
	}

	return out
}

var _ = Describe("Line", func() {
	It("should compute cycles per bit", func() {
		n, err := CyclesPerBit(1843200*timing.Hz, 115200)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(16))

		_, err = CyclesPerBit(9600*timing.Hz, 115200)
		Expect(errors.Is(err, ErrBaudTooHigh)).To(BeTrue())
	})

	It("should idle high", func() {
		l := NewLine(4, nil)

		Expect(l.Level()).To(BeTrue())
		Expect(l.Busy()).To(BeFalse())
		Expect(l.Tick()).To(BeFalse())
	})

	It("should be busy for exactly one frame", func() {
		buf := new(bytes.Buffer)
		l := NewLine(4, buf)

		l.Start('A')

		ticks := 0
		for l.Busy() {
			l.Tick()
			ticks++
		}

		Expect(ticks).To(Equal(frameBits * 4))
		Expect(buf.String()).To(Equal("A"))
		Expect(l.BytesSent()).To(Equal(uint64(1)))
	})

	It("should put an 8N1 frame on the line", func() {
		l := NewLine(3, nil)
		msg := []byte("T0,\r\n\xFF\x00")

		var levels []bool
		for _, b := range msg {
			l.Start(b)
			for l.Busy() {
				levels = append(levels, l.Level())
				l.Tick()
			}

			levels = append(levels, l.Level())
			l.Tick()
		}

		Expect(decode(levels, 3)).To(Equal(msg))
	})

	It("should panic when started while busy", func() {
		l := NewLine(2, nil)
		l.Start(1)

		Expect(func() { l.Start(2) }).To(Panic())
	})

	It("should keep the first sink error", func() {
		l := NewLine(1, failingWriter{})
		l.Start(1)
		for l.Busy() {
			l.Tick()
		}

		Expect(l.Err()).To(MatchError("closed"))
		Expect(l.BytesSent()).To(Equal(uint64(1)))
	})
})
