// Package uart models the bit-serial transmitter the report channel drains
// into.
package uart

import (
	"errors"
	"fmt"
	"io"

	"github.com/sarchlab/retention/sim/timing"
)

// A Transmitter sends one byte at a time and is busy while doing so.
type Transmitter interface {
	Busy() bool
	Start(b byte)
}

// frameBits is one start bit, eight data bits and one stop bit.
const frameBits = 10

// ErrBaudTooHigh is returned when a bit would be shorter than one clock
// cycle.
var ErrBaudTooHigh = errors.New("baud rate exceeds the clock frequency")

// CyclesPerBit returns the number of clock cycles one bit lasts, rounded to
// the nearest cycle.
func CyclesPerBit(clock timing.FreqInHz, baud uint64) (int, error) {
	if baud == 0 {
		return 0, fmt.Errorf("%w: zero baud", ErrBaudTooHigh)
	}

	n := (uint64(clock) + baud/2) / baud
	if n < 1 {
		return 0, fmt.Errorf("%w: %d baud at %d Hz", ErrBaudTooHigh, baud, clock)
	}

	return int(n), nil
}

// Line is an 8N1 transmitter. Bits go out least significant first. The line
// idles high. A byte is handed to the sink once its stop bit has been sent.
type Line struct {
	cyclesPerBit int
	sink         io.Writer

	busy       bool
	frame      uint16
	bit        int
	cycleInBit int
	level      bool

	sent uint64
	err  error
}

// NewLine creates an idle line.
func NewLine(cyclesPerBit int, sink io.Writer) *Line {
	if cyclesPerBit < 1 {
		panic("a bit must last at least one cycle")
	}

	if sink == nil {
		sink = io.Discard
	}

	return &Line{
		cyclesPerBit: cyclesPerBit,
		sink:         sink,
		level:        true,
	}
}

// Busy reports whether a frame is being sent.
func (l *Line) Busy() bool {
	return l.busy
}

// Start begins sending b. Starting a busy line is a programming error.
func (l *Line) Start(b byte) {
	if l.busy {
		panic("uart: start while busy")
	}

	l.busy = true
	l.frame = 1<<(frameBits-1) | uint16(b)<<1
	l.bit = 0
	l.cycleInBit = 0
	l.level = false
}

// Tick advances the line by one cycle. It returns false if the line is idle.
func (l *Line) Tick() bool {
	if !l.busy {
		return false
	}

	l.cycleInBit++
	if l.cycleInBit < l.cyclesPerBit {
		return true
	}

	l.cycleInBit = 0
	l.bit++

	if l.bit == frameBits {
		l.busy = false
		l.level = true
		l.deliver(byte(l.frame >> 1))

		return true
	}

	l.level = l.frame>>l.bit&1 == 1

	return true
}

func (l *Line) deliver(b byte) {
	l.sent++

	if l.err != nil {
		return
	}

	_, l.err = l.sink.Write([]byte{b})
}

// Level returns the current line level.
func (l *Line) Level() bool {
	return l.level
}

// BytesSent returns the number of complete frames.
func (l *Line) BytesSent() uint64 {
	return l.sent
}

// Err returns the first error of the sink.
func (l *Line) Err() error {
	return l.err
}

// Reset abandons the frame in progress.
func (l *Line) Reset() {
	l.busy = false
	l.level = true
	l.bit = 0
	l.cycleInBit = 0
}

var _ Transmitter = (*Line)(nil)
