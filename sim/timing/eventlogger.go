package timing

import (
	"log"
	"reflect"

	"github.com/sarchlab/retention/sim/hooking"
)

// EventLogger is a hook that logs every event before the engine handles it.
type EventLogger struct {
	hooking.LogHookBase

	registry *FrequencyRegistry
}

// NewEventLogger creates an EventLogger. With a registry, each line also
// carries the time in seconds.
func NewEventLogger(logger *log.Logger, registry *FrequencyRegistry) *EventLogger {
	return &EventLogger{
		LogHookBase: hooking.NewLogHookBase(logger),
		registry:    registry,
	}
}

type named interface {
	Name() string
}

// Func logs the time, the event type and the handler.
func (h *EventLogger) Func(ctx hooking.HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(*ScheduledEvent)
	if !ok {
		return
	}

	handlerName := reflect.TypeOf(evt.Handler).String()
	if n, ok := evt.Handler.(named); ok {
		handlerName = n.Name()
	}

	if h.registry == nil {
		h.Printf("%d, %T -> %s", evt.Time, evt.Event, handlerName)
		return
	}

	h.Printf("%d (%.9fs), %T -> %s", evt.Time,
		h.registry.CyclesToSeconds(evt.Time), evt.Event, handlerName)
}
