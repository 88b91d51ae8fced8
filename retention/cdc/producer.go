package cdc

// Producer is the sending side of a slot. It belongs to the fast domain.
type Producer struct {
	slot    *HandshakeSlot
	ackSync Synchronizer
}

// NewProducer creates the sending side of slot.
func NewProducer(slot *HandshakeSlot) *Producer {
	return &Producer{slot: slot}
}

// Tick samples the acknowledge flag and drops the request once the
// acknowledge has settled high. It returns false if nothing changed and
// nothing is settling.
func (p *Producer) Tick() bool {
	p.ackSync.Shift(p.slot.ack.Load())

	if p.slot.req.Load() && p.ackSync.Settled() {
		p.slot.setRequest(false)
		return true
	}

	return p.ackSync.Settling()
}

// Ready reports whether a new byte may be loaded: the own request is low and
// the settled acknowledge of the previous byte is low again.
func (p *Producer) Ready() bool {
	return !p.slot.req.Load() && !p.ackSync.Settled()
}

// Send loads b and raises the request. It returns false and does nothing if
// the producer is not ready.
func (p *Producer) Send(b byte) bool {
	if !p.Ready() {
		return false
	}

	p.slot.data.Store(uint32(b))
	p.slot.setRequest(true)

	return true
}

// Reset clears the synchronizer.
func (p *Producer) Reset() {
	p.ackSync.Reset()
}
