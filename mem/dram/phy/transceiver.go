// Package phy models the physical side of the memory interface: the
// transceiver the controller drives and a behavioral DRAM device behind it.
package phy

import "github.com/sarchlab/retention/mem/dram/signal"

// A Transceiver turns commands and control levels into bus activity. All
// times are controller cycles.
type Transceiver interface {
	// SetReset drives the device reset pin.
	SetReset(asserted bool, now uint64)

	// SetClockEnable drives the clock-enable pin.
	SetClockEnable(high bool, now uint64)

	// Issue puts one command on the command bus.
	Issue(cmd signal.Command, now uint64)

	// DriveBeat puts one beat of write data on the data bus.
	DriveBeat(beat int, data []byte, now uint64)

	// DataValid reports whether read data is on the bus.
	DataValid(now uint64) bool

	// CaptureBeat copies one beat of read data into dst. It returns false
	// and leaves dst untouched if no data is valid.
	CaptureBeat(beat int, dst []byte, now uint64) bool
}
