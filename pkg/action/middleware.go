package action

import "github.com/mesh-intelligence/arbor/pkg/types"

// Middleware observes intercepted calls.
//
// Filter decides whether the context is instrumented at all. For accepted
// contexts the hooks fire in registration order. OnStart may return a non-nil
// outcome to cancel the call: its body does not run and the outcome becomes
// the result. OnFinish may return a non-nil outcome that replaces the result
// seen by later middleware and the caller.
//
// Hooks must not block. A panicking hook aborts the remaining hooks of the
// context and propagates to the caller.
type Middleware interface {
	Filter(ctx *Context) bool
	OnStart(ctx *Context) *types.Outcome
	OnResume(ctx *Context)
	OnSuspend(ctx *Context)
	OnFinish(ctx *Context, out types.Outcome) *types.Outcome
}

// Hooks adapts optional functions to Middleware. A nil FilterFn accepts
// every context; other nil functions do nothing.
type Hooks struct {
	FilterFn  func(ctx *Context) bool
	StartFn   func(ctx *Context) *types.Outcome
	ResumeFn  func(ctx *Context)
	SuspendFn func(ctx *Context)
	FinishFn  func(ctx *Context, out types.Outcome) *types.Outcome
}

var _ Middleware = Hooks{}

func (h Hooks) Filter(ctx *Context) bool {
	if h.FilterFn == nil {
		return true
	}
	return h.FilterFn(ctx)
}

func (h Hooks) OnStart(ctx *Context) *types.Outcome {
	if h.StartFn == nil {
		return nil
	}
	return h.StartFn(ctx)
}

func (h Hooks) OnResume(ctx *Context) {
	if h.ResumeFn != nil {
		h.ResumeFn(ctx)
	}
}

func (h Hooks) OnSuspend(ctx *Context) {
	if h.SuspendFn != nil {
		h.SuspendFn(ctx)
	}
}

func (h Hooks) OnFinish(ctx *Context, out types.Outcome) *types.Outcome {
	if h.FinishFn == nil {
		return nil
	}
	return h.FinishFn(ctx, out)
}

// UseOption configures a middleware registration.
type UseOption func(*registration)

// InSubtree limits a middleware to calls whose target is root or one of its
// descendants at filter time.
func InSubtree(root types.Handle) UseOption {
	return func(r *registration) {
		r.scope = root
	}
}

type registration struct {
	mw    Middleware
	scope types.Handle
}
