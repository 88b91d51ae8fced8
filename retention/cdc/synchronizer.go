// Package cdc moves bytes between two clock domains that share no clock and
// no phase relationship.
package cdc

// A Synchronizer samples a signal owned by another clock domain through two
// settle stages. Only the second stage may be trusted.
type Synchronizer struct {
	stage [2]bool
}

// Shift samples in and moves the first stage into the second. It must be
// called once per tick of the sampling domain.
func (s *Synchronizer) Shift(in bool) {
	s.stage[1] = s.stage[0]
	s.stage[0] = in
}

// Settled returns the value of the second stage.
func (s *Synchronizer) Settled() bool {
	return s.stage[1]
}

// Settling reports whether a change is still travelling through the stages.
func (s *Synchronizer) Settling() bool {
	return s.stage[0] != s.stage[1]
}

// Reset clears both stages.
func (s *Synchronizer) Reset() {
	s.stage = [2]bool{}
}
