// Package hooking defines the hook mechanism that dispatchers, timers and the
// frame driver use to report what happens inside them.
package hooking

import "fmt"

// HookPos defines the enum of possible hooking positions.
type HookPos struct {
	Name string
}

// HookCtx is the context that holds all the information about the site that a
// hook is triggered.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   interface{}
	Detail interface{}
}

// Hookable defines an object that accept Hooks.
type Hookable interface {
	// AcceptHook registers a hook.
	AcceptHook(hook Hook)

	// NumHooks returns the number of hooks registered.
	NumHooks() int

	// Hooks returns all the hooks registered.
	Hooks() []Hook
}

// Hook is a short piece of program that can be invoked by a hookable object.
type Hook interface {
	// Func determines what to do if hook is invoked.
	Func(ctx HookCtx)
}

// HookFunc turns a function into a Hook. Use NewHookFunc so that the hook has
// an identity that can be compared.
type HookFunc struct {
	f func(ctx HookCtx)
}

// NewHookFunc wraps f as a Hook.
func NewHookFunc(f func(ctx HookCtx)) *HookFunc {
	return &HookFunc{f: f}
}

// Func calls the wrapped function.
func (h *HookFunc) Func(ctx HookCtx) {
	h.f(ctx)
}

// A HookableBase provides some utility function for other type that implement
// the Hookable interface. Hooks must be registered before the owner starts
// invoking them.
type HookableBase struct {
	hookList []Hook
}

// NewHookableBase creates a HookableBase object.
func NewHookableBase() *HookableBase {
	return &HookableBase{}
}

// NumHooks returns the number of hooks registered.
func (h *HookableBase) NumHooks() int {
	return len(h.hookList)
}

// Hooks returns all the hooks registered.
func (h *HookableBase) Hooks() []Hook {
	return h.hookList
}

// AcceptHook register a hook.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.mustNotHaveDuplicatedHook(hook)
	h.hookList = append(h.hookList, hook)
}

func (h *HookableBase) mustNotHaveDuplicatedHook(hook Hook) {
	for _, h := range h.hookList {
		if h == hook {
			panic("duplicated hook")
		}
	}
}

// InvokeHook triggers the register Hooks.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hookList {
		hook.Func(ctx)
	}
}

// InvokeHookIsolated triggers the registered hooks one by one. A panic in a
// hook is recovered and reported to onFailure, and the remaining hooks still
// run. It returns the number of hooks that failed.
func (h *HookableBase) InvokeHookIsolated(
	ctx HookCtx,
	onFailure func(hook Hook, err error),
) int {
	failed := 0

	for _, hook := range h.hookList {
		err := invokeRecovered(hook, ctx)
		if err == nil {
			continue
		}

		failed++
		if onFailure != nil {
			onFailure(hook, err)
		}
	}

	return failed
}

func invokeRecovered(hook Hook, ctx HookCtx) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hook panicked at %s: %v", ctx.Pos.Name, r)
		}
	}()

	hook.Func(ctx)

	return nil
}
