package sweep

import "github.com/sarchlab/retention/mem/dram/signal"

// TestPoint is one write/decay/read cycle of a sweep.
type TestPoint struct {
	DecayCycles   uint64
	Location      signal.Location
	RepeatIndex   int
	DurationIndex int
	AddressIndex  int
}

// TestResult is the outcome of one TestPoint.
type TestResult struct {
	Written      signal.Burst
	Read         signal.Burst
	MatchingBits int
	TotalBits    int

	// TimedOut marks a read whose data valid never arrived in time.
	TimedOut bool
}

// NewTestResult compares the written and read bursts.
func NewTestResult(written, read signal.Burst, timedOut bool) TestResult {
	return TestResult{
		Written:      written,
		Read:         read,
		MatchingBits: signal.MatchingBits(written, read),
		TotalBits:    signal.BurstBits,
		TimedOut:     timedOut,
	}
}

// BitErrors returns the number of bits that did not survive.
func (r TestResult) BitErrors() int {
	return r.TotalBits - r.MatchingBits
}

// Passed reports whether every bit survived.
func (r TestResult) Passed() bool {
	return r.MatchingBits == r.TotalBits
}

// Outcome is the item of HookPosPointDone.
type Outcome struct {
	Point  TestPoint
	Result TestResult
}

// A RecordSink turns outcomes into an output record, one tick at a time.
type RecordSink interface {
	Load(point TestPoint, result TestResult)
	Tick() bool
	Done() bool
	Reset()
}
