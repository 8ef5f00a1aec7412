package action

import "github.com/mesh-intelligence/arbor/pkg/types"

// Flow is the handle a cooperative action body uses to yield.
type Flow struct {
	c *call
}

// Context returns the context of the running flow.
func (f *Flow) Context() *Context {
	return f.c.ctx
}

// Await marks a yield point: middleware see the flow suspend before fn runs
// and resume after it returns, even when fn panics. Calls made by fn are
// still nested under the flow's context.
func (f *Flow) Await(fn func() (any, error)) (any, error) {
	f.c.suspend()
	defer f.c.resume()
	return fn()
}

// RunFlow is Run for bodies that yield through Flow.Await. The context is
// marked Async.
func (t *Tracker) RunFlow(name string, target types.Handle, args []any, fn func(f *Flow) (any, error)) (any, error) {
	ctx := newContext(t.newID(), name, target, args, t.Current(), true)
	return t.dispatch(ctx, func(c *call) (any, error) {
		return fn(&Flow{c: c})
	})
}
