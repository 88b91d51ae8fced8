// Package hooking lets observers attach to components and the engine without
// the observed code knowing who listens.
package hooking

import "fmt"

// HookPos names a site that hooks fire from. Sites are compared by pointer,
// so every site is declared once as a package variable.
type HookPos struct {
	Name string
}

func (p *HookPos) String() string {
	if p == nil {
		return "<nil>"
	}

	return p.Name
}

// HookCtx describes one firing of a hook site.
type HookCtx struct {
	// Domain is the object firing the hook.
	Domain Hookable

	// Pos is the site the hook fires from.
	Pos *HookPos

	// Item is the subject of the firing: an event, a command or a result.
	Item any

	// Detail is optional and site specific.
	Detail any
}

// Hookable is an object that hooks can attach to.
type Hookable interface {
	// AcceptHook attaches a hook. Hooks are attached while a rig is being
	// assembled, never while it runs.
	AcceptHook(hook Hook)

	// NumHooks returns the number of attached hooks.
	NumHooks() int

	// Hooks returns the attached hooks in the order they fire.
	Hooks() []Hook

	// InvokeHook fires every attached hook.
	InvokeHook(ctx HookCtx)
}

// Hook observes a Hookable.
type Hook interface {
	Func(ctx HookCtx)
}

// HookableBase implements Hookable for embedding. Its zero value has no
// hooks and is ready to use.
type HookableBase struct {
	hooks []Hook
}

// NewHookableBase creates a HookableBase with no hooks.
func NewHookableBase() *HookableBase {
	return &HookableBase{}
}

// NumHooks returns the number of attached hooks.
func (h *HookableBase) NumHooks() int {
	return len(h.hooks)
}

// Hooks returns the attached hooks.
func (h *HookableBase) Hooks() []Hook {
	return h.hooks
}

// AcceptHook attaches a hook. Attaching the same hook twice panics, since it
// would observe every firing twice.
func (h *HookableBase) AcceptHook(hook Hook) {
	for _, attached := range h.hooks {
		if attached == hook {
			panic(fmt.Sprintf("hook %T attached twice", hook))
		}
	}

	h.hooks = append(h.hooks, hook)
}

// InvokeHook fires the attached hooks in the order they were attached.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hooks {
		hook.Func(ctx)
	}
}

var _ Hookable = (*HookableBase)(nil)
