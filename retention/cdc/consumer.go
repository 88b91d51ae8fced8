package cdc

import "github.com/sarchlab/retention/retention/uart"

// Consumer is the receiving side of a slot. It belongs to the slow domain.
type Consumer struct {
	slot    *HandshakeSlot
	reqSync Synchronizer
	sink    uart.Transmitter
}

// NewConsumer creates the receiving side of slot, handing bytes to a
// transmitter.
func NewConsumer(slot *HandshakeSlot, sink uart.Transmitter) *Consumer {
	return &Consumer{slot: slot, sink: sink}
}

// Tick samples the request flag. A settled request is answered only when the
// sink is free; until then it stays unanswered. A settled drop of the request
// drops the acknowledge. It returns false if nothing changed and nothing is
// settling.
func (c *Consumer) Tick() bool {
	c.reqSync.Shift(c.slot.req.Load())

	req := c.reqSync.Settled()
	ack := c.slot.ack.Load()

	switch {
	case req && !ack:
		if c.sink.Busy() {
			return c.reqSync.Settling()
		}

		c.sink.Start(byte(c.slot.data.Load()))
		c.slot.setAck(true)

		return true
	case !req && ack:
		c.slot.setAck(false)
		return true
	}

	return c.reqSync.Settling()
}

// Pending reports whether a settled request waits for the sink.
func (c *Consumer) Pending() bool {
	return c.reqSync.Settled() && !c.slot.ack.Load()
}

// Reset clears the synchronizer.
func (c *Consumer) Reset() {
	c.reqSync.Reset()
}
