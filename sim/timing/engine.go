package timing

import "github.com/sarchlab/retention/sim/hooking"

// An Engine runs events in time order. Every clock domain of a rig shares
// one engine.
type Engine interface {
	hooking.Hookable
	EventScheduler

	// Run handles events until none is left or a handler fails.
	Run() error

	// Pause blocks Run before its next event until Continue is called.
	Pause()
	Continue()

	// EventsHandled counts the events dispatched so far.
	EventsHandled() uint64
}
