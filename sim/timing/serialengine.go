package timing

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sarchlab/retention/sim/hooking"
)

// SerialEngine dispatches events one at a time in cycle order. At equal
// cycles, primary events go before secondary ones.
type SerialEngine struct {
	*hooking.HookableBase

	now     atomic.Uint64
	handled atomic.Uint64

	primary   eventQueue
	secondary eventQueue

	// gate is held while an event is dispatched and for as long as the
	// engine is paused.
	gate     sync.Mutex
	pauseMu  sync.Mutex
	paused   bool
	runGuard sync.Mutex
}

// NewSerialEngine creates a SerialEngine at cycle 0.
func NewSerialEngine() *SerialEngine {
	return &SerialEngine{
		HookableBase: hooking.NewHookableBase(),
		primary:      newScheduledEventQueue(),
		secondary:    newScheduledEventQueue(),
	}
}

// Name returns the name of the engine.
func (e *SerialEngine) Name() string {
	return "SerialEngine"
}

// Schedule queues an event. Scheduling before the current cycle panics.
func (e *SerialEngine) Schedule(evt ScheduledEvent) {
	if now := e.CurrentTime(); evt.Time < now {
		panic(pastEvent("schedule", &evt, now))
	}

	queued := evt
	if queued.IsSecondary {
		e.secondary.Push(&queued)
		return
	}

	e.primary.Push(&queued)
}

// Run dispatches events until none is left. A handler error stops the run.
func (e *SerialEngine) Run() error {
	e.runGuard.Lock()
	defer e.runGuard.Unlock()

	for !e.idle() {
		if err := e.step(); err != nil {
			return err
		}
	}

	return nil
}

func (e *SerialEngine) step() error {
	e.gate.Lock()
	defer e.gate.Unlock()

	evt := e.pop()
	if now := e.CurrentTime(); evt.Time < now {
		panic(pastEvent("run", evt, now))
	}

	e.now.Store(uint64(evt.Time))

	ctx := hooking.HookCtx{Domain: e, Pos: HookPosBeforeEvent, Item: evt}
	e.InvokeHook(ctx)

	var err error
	if evt.Handler != nil {
		err = evt.Handler.Handle(evt.Event)
	}

	e.handled.Add(1)

	ctx.Pos = HookPosAfterEvent
	e.InvokeHook(ctx)

	if err != nil {
		return fmt.Errorf("timing: handling %T @ %d: %w", evt.Event, evt.Time, err)
	}

	return nil
}

func pastEvent(action string, evt *ScheduledEvent, now VTimeInCycle) string {
	return fmt.Sprintf("timing: cannot %s event in the past, evt %T @ %d, now %d",
		action, evt.Event, evt.Time, now)
}

func (e *SerialEngine) idle() bool {
	return e.primary.Len() == 0 && e.secondary.Len() == 0
}

func (e *SerialEngine) pop() *ScheduledEvent {
	switch {
	case e.primary.Len() == 0:
		return e.secondary.Pop()
	case e.secondary.Len() == 0:
		return e.primary.Pop()
	case e.primary.Peek().Time <= e.secondary.Peek().Time:
		return e.primary.Pop()
	default:
		return e.secondary.Pop()
	}
}

// Pause blocks dispatching after the current event until Continue.
func (e *SerialEngine) Pause() {
	e.pauseMu.Lock()
	defer e.pauseMu.Unlock()

	if !e.paused {
		e.gate.Lock()
		e.paused = true
	}
}

// Continue undoes Pause.
func (e *SerialEngine) Continue() {
	e.pauseMu.Lock()
	defer e.pauseMu.Unlock()

	if e.paused {
		e.paused = false
		e.gate.Unlock()
	}
}

// CurrentTime returns the cycle of the event being or last dispatched.
func (e *SerialEngine) CurrentTime() VTimeInCycle {
	return VTimeInCycle(e.now.Load())
}

// EventsHandled returns how many events the engine has dispatched.
func (e *SerialEngine) EventsHandled() uint64 {
	return e.handled.Load()
}

var _ Engine = (*SerialEngine)(nil)
