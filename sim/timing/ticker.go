package timing

import (
	"sync"

	"github.com/sarchlab/retention/sim/id"
)

// TickEvent is a generic event that almost all the component can use to
// update their status.
type TickEvent struct {
	ID string
}

// A Ticker is an object that updates states with ticks.
type Ticker interface {
	Tick() bool
}

// TickScheduler can help schedule tick events of one clock domain.
type TickScheduler struct {
	lock      sync.Mutex
	handler   Handler
	Domain    *FreqDomain
	Engine    EventScheduler
	secondary bool

	hasPending   bool
	nextTickTime VTimeInCycle
}

// NewTickScheduler creates a scheduler for tick events.
func NewTickScheduler(
	handler Handler,
	engine EventScheduler,
	domain *FreqDomain,
) *TickScheduler {
	ticker := new(TickScheduler)

	ticker.handler = handler
	ticker.Engine = engine
	ticker.Domain = domain

	return ticker
}

// NewSecondaryTickScheduler creates a scheduler that always schedule secondary
// tick events.
func NewSecondaryTickScheduler(
	handler Handler,
	engine EventScheduler,
	domain *FreqDomain,
) *TickScheduler {
	ticker := NewTickScheduler(handler, engine, domain)
	ticker.secondary = true

	return ticker
}

// TickNow schedule a Tick event at the current tick of the domain.
func (t *TickScheduler) TickNow() {
	t.schedule(t.Domain.ThisTick(t.Now()))
}

// TickLater will schedule a tick event at the cycle after the now time.
func (t *TickScheduler) TickLater() {
	t.schedule(t.Domain.NextTick(t.Now()))
}

// TickAtCycle schedules a tick at the given local cycle of the domain. A
// cycle that has already passed is treated as TickLater.
func (t *TickScheduler) TickAtCycle(cycle uint64) {
	at := t.Domain.TimeOfCycle(cycle)

	next := t.Domain.NextTick(t.Now())
	if at < next {
		at = next
	}

	t.schedule(at)
}

func (t *TickScheduler) schedule(time VTimeInCycle) {
	t.lock.Lock()
	defer t.lock.Unlock()

	now := t.Engine.CurrentTime()
	if t.hasPending && t.nextTickTime >= now && t.nextTickTime <= time {
		return
	}

	t.hasPending = true
	t.nextTickTime = time

	t.Engine.Schedule(ScheduledEvent{
		Event:       TickEvent{ID: id.Generate()},
		Time:        time,
		Handler:     t.handler,
		IsSecondary: t.secondary,
	})
}

// TickHandled tells the scheduler that the tick at now has been consumed.
func (t *TickScheduler) TickHandled(now VTimeInCycle) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.hasPending && t.nextTickTime <= now {
		t.hasPending = false
	}
}

// Now returns the current global time.
func (t *TickScheduler) Now() VTimeInCycle {
	return t.Engine.CurrentTime()
}

// CurrentCycle returns the local cycle index of the domain.
func (t *TickScheduler) CurrentCycle() uint64 {
	return t.Domain.Cycle(t.Now())
}
