package sweep

import (
	"github.com/sarchlab/retention/sim/hooking"
)

// Builder can build orchestrators.
type Builder struct {
	plan     Plan
	pattern  PatternSource
	init     Initializer
	engine   ProtocolEngine
	reporter RecordSink
	hooks    []hooking.Hook
}

// MakeBuilder creates a builder that writes all ones.
func MakeBuilder() Builder {
	var ones ConstantPattern
	for i := range ones {
		ones[i] = 0xFF
	}

	return Builder{pattern: ones}
}

// WithPlan sets the sweep plan.
func (b Builder) WithPlan(plan Plan) Builder {
	b.plan = plan
	return b
}

// WithPattern sets where test patterns come from.
func (b Builder) WithPattern(p PatternSource) Builder {
	b.pattern = p
	return b
}

// WithInitializer sets the device initializer.
func (b Builder) WithInitializer(init Initializer) Builder {
	b.init = init
	return b
}

// WithEngine sets the protocol engine.
func (b Builder) WithEngine(e ProtocolEngine) Builder {
	b.engine = e
	return b
}

// WithReporter sets where outcomes are reported.
func (b Builder) WithReporter(r RecordSink) Builder {
	b.reporter = r
	return b
}

// WithAdditionalHooks sets the hooks attached to the orchestrator.
func (b Builder) WithAdditionalHooks(hooks ...hooking.Hook) Builder {
	b.hooks = append(b.hooks, hooks...)
	return b
}

// Build creates an orchestrator in the Init state.
func (b Builder) Build(name string) *Orchestrator {
	if err := b.plan.Validate(); err != nil {
		panic(err)
	}

	if b.init == nil || b.engine == nil || b.reporter == nil {
		panic("initializer, engine and reporter must be set")
	}

	durations := b.plan.DecayDurations()

	o := &Orchestrator{
		HookableBase: hooking.NewHookableBase(),
		name:         name,
		init:         b.init,
		engine:       b.engine,
		reporter:     b.reporter,
		pattern:      b.pattern,
		plan:         b.plan,
		durations:    durations,
		cursor: newCursor(len(durations), len(b.plan.Addresses),
			b.plan.Repeats),
	}

	for _, h := range b.hooks {
		o.AcceptHook(h)
	}

	return o
}
