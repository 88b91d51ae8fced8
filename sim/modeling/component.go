// Package modeling provides the building blocks of simulated hardware
// components.
package modeling

import (
	"github.com/sarchlab/retention/sim/hooking"
	"github.com/sarchlab/retention/sim/timing"
)

// A Component is a element that is being simulated.
type Component interface {
	timing.Handler
	hooking.Hookable

	Name() string
}

// ComponentBase provides some functions that other component can use.
type ComponentBase struct {
	*hooking.HookableBase

	name string
}

// NewComponentBase creates a new ComponentBase
func NewComponentBase(name string) *ComponentBase {
	c := new(ComponentBase)
	c.HookableBase = hooking.NewHookableBase()
	c.name = name

	return c
}

// Name returns the name of the component.
func (c *ComponentBase) Name() string {
	return c.name
}

// A Sleeper is a Ticker that can tell when it next has work to do after a
// tick without progress. Tickers that are not Sleepers simply stop ticking
// until woken up.
type Sleeper interface {
	NextWake() (cycle uint64, ok bool)
}

// TickingComponent is a type of component that update states from cycle to
// cycle. A programmer would only need to program a tick function for a ticking
// component.
type TickingComponent struct {
	*ComponentBase
	*timing.TickScheduler

	ticker timing.Ticker

	everTicked   bool
	lastTickTime timing.VTimeInCycle
}

// NewTickingComponent creates a new ticking component
func NewTickingComponent(
	name string,
	engine timing.EventScheduler,
	domain *timing.FreqDomain,
	ticker timing.Ticker,
) *TickingComponent {
	tc := new(TickingComponent)
	tc.TickScheduler = timing.NewTickScheduler(tc, engine, domain)
	tc.ComponentBase = NewComponentBase(name)
	tc.ticker = ticker

	return tc
}

// Handle triggers the tick function of the TickingComponent. A component
// ticks at most once per global time.
func (c *TickingComponent) Handle(e any) error {
	if _, ok := e.(timing.TickEvent); !ok {
		return nil
	}

	now := c.Now()
	c.TickHandled(now)

	if c.everTicked && c.lastTickTime == now {
		return nil
	}

	c.everTicked = true
	c.lastTickTime = now

	madeProgress := c.ticker.Tick()
	if madeProgress {
		c.TickLater()
		return nil
	}

	if sleeper, ok := c.ticker.(Sleeper); ok {
		if cycle, wake := sleeper.NextWake(); wake {
			c.TickAtCycle(cycle)
		}
	}

	return nil
}

// Wake makes a sleeping component tick again on its next clock edge.
func (c *TickingComponent) Wake() {
	c.TickLater()
}
