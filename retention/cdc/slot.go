package cdc

import "sync/atomic"

// HandshakeSlot is a one-byte mailbox with a request flag written by the
// producer and an acknowledge flag written by the consumer. It is the only
// state the two domains share.
type HandshakeSlot struct {
	data atomic.Uint32
	req  atomic.Bool
	ack  atomic.Bool

	onRequest func()
	onAck     func()
}

// NewHandshakeSlot creates an empty slot.
func NewHandshakeSlot() *HandshakeSlot {
	return &HandshakeSlot{}
}

// NotifyRequest registers a function called whenever the request flag
// changes. It is meant to wake the consumer domain and must not read the
// slot.
func (s *HandshakeSlot) NotifyRequest(f func()) {
	s.onRequest = f
}

// NotifyAck registers a function called whenever the acknowledge flag
// changes.
func (s *HandshakeSlot) NotifyAck(f func()) {
	s.onAck = f
}

// Clear drops both flags. Only an external reset of both domains may call it.
func (s *HandshakeSlot) Clear() {
	s.setRequest(false)
	s.setAck(false)
}

func (s *HandshakeSlot) setRequest(v bool) {
	if s.req.Swap(v) != v && s.onRequest != nil {
		s.onRequest()
	}
}

func (s *HandshakeSlot) setAck(v bool) {
	if s.ack.Swap(v) != v && s.onAck != nil {
		s.onAck()
	}
}
