package report

import (
	"github.com/sarchlab/retention/retention/cdc"
	"github.com/sarchlab/retention/retention/sweep"
)

// Serializer renders one outcome at a time and pushes it through a report
// channel producer, one byte per completed handshake.
type Serializer struct {
	layout   Layout
	producer *cdc.Producer

	buf [MaxLen]byte
	n   int
	pos int

	records uint64
}

// NewSerializer creates a serializer feeding producer.
func NewSerializer(layout Layout, producer *cdc.Producer) *Serializer {
	return &Serializer{layout: layout, producer: producer}
}

// Load renders a record. Loading before the previous record is drained is a
// programming error.
func (s *Serializer) Load(point sweep.TestPoint, result sweep.TestResult) {
	if s.pos < s.n {
		panic("report: record loaded before the previous one was sent")
	}

	s.n = len(Encode(s.buf[:], s.layout, point, result))
	s.pos = 0
	s.records++
}

// Tick runs the producer and hands it the next byte when it is ready. It
// returns false if it only waits for the other domain.
func (s *Serializer) Tick() bool {
	progress := s.producer.Tick()

	if s.pos < s.n && s.producer.Send(s.buf[s.pos]) {
		s.pos++
		return true
	}

	return progress
}

// Done reports whether every byte of the record went through a complete
// handshake.
func (s *Serializer) Done() bool {
	return s.pos == s.n && s.producer.Ready()
}

// Record returns the bytes of the current record.
func (s *Serializer) Record() []byte {
	return s.buf[:s.n]
}

// RecordsLoaded returns how many records were loaded.
func (s *Serializer) RecordsLoaded() uint64 {
	return s.records
}

// Reset drops the record in progress.
func (s *Serializer) Reset() {
	s.n = 0
	s.pos = 0
	s.producer.Reset()
}

var _ sweep.RecordSink = (*Serializer)(nil)
