package timing

import "github.com/sarchlab/retention/sim/hooking"

// Handler processes the events scheduled for it. Events are plain values and
// a handler switches on their type, ignoring or rejecting types it does not
// know.
type Handler interface {
	Handle(event any) error
}

// TimeTeller tells the current time in cycles of the global clock.
type TimeTeller interface {
	CurrentTime() VTimeInCycle
}

// EventScheduler accepts events to be handled in the future.
type EventScheduler interface {
	TimeTeller
	Schedule(event ScheduledEvent)
}

// ScheduledEvent is an event together with when and by whom it is handled.
type ScheduledEvent struct {
	Event   any
	Time    VTimeInCycle
	Handler Handler

	// Secondary events at a time run after every primary event at that
	// time, so a clock edge sees the state all other edges left behind.
	IsSecondary bool
}

// Hook positions of an engine. The item of both is the *ScheduledEvent.
var (
	HookPosBeforeEvent = &hooking.HookPos{Name: "BeforeEvent"}
	HookPosAfterEvent  = &hooking.HookPos{Name: "AfterEvent"}
)
