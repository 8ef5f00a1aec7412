package action

import (
	"fmt"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/mesh-intelligence/arbor/internal/logging"
	"github.com/mesh-intelligence/arbor/pkg/tree"
	"github.com/mesh-intelligence/arbor/pkg/types"
)

// Tracker runs actions and dispatches their lifecycle to middleware. It keeps
// the stack of running contexts so nested calls find their parent.
type Tracker struct {
	reg   *tree.Registry
	regs  []*registration
	stack []*Context

	newID  func() string
	logger *slog.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the structured logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithIDGenerator replaces the UUID v7 context id generator.
func WithIDGenerator(fn func() string) Option {
	return func(t *Tracker) {
		if fn != nil {
			t.newID = fn
		}
	}
}

// NewTracker creates a tracker whose subtree-scoped middleware resolve
// targets against reg.
func NewTracker(reg *tree.Registry, opts ...Option) *Tracker {
	t := &Tracker{
		reg:    reg,
		newID:  newContextID,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func newContextID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Use registers mw and returns a function that removes it. Contexts filtered
// before removal keep mw until they finish.
func (t *Tracker) Use(mw Middleware, opts ...UseOption) (dispose func()) {
	reg := &registration{mw: mw}
	for _, opt := range opts {
		opt(reg)
	}
	t.regs = append(t.regs, reg)
	return func() {
		for i, cur := range t.regs {
			if cur == reg {
				t.regs = append(t.regs[:i:i], t.regs[i+1:]...)
				return
			}
		}
	}
}

// Current returns the innermost running context, or nil outside any action.
func (t *Tracker) Current() *Context {
	if len(t.stack) == 0 {
		return nil
	}
	return t.stack[len(t.stack)-1]
}

// Run calls fn as the action name on target. The error fn returns is passed
// through unchanged after middleware saw it as a throw outcome. A panic in fn
// is reported the same way and then re-raised.
func (t *Tracker) Run(name string, target types.Handle, args []any, fn func() (any, error)) (any, error) {
	ctx := newContext(t.newID(), name, target, args, t.Current(), false)
	return t.dispatch(ctx, func(*call) (any, error) { return fn() })
}

// call is one accepted context and the middleware that observe it.
type call struct {
	ctx      *Context
	accepted bool
	started  []Middleware
}

func (t *Tracker) dispatch(ctx *Context, body func(*call) (any, error)) (any, error) {
	observers, accepted := t.filter(ctx)
	c := &call{ctx: ctx, accepted: accepted}

	t.push(ctx)
	defer t.pop(ctx)

	if !accepted {
		ctx.moveTo(StateRejected)
		t.logger.Debug("action rejected", "action", ctx.String(), "context", ctx.ID)
		return body(c)
	}

	ctx.moveTo(StateStarted)
	cancel := c.start(observers)
	if cancel != nil {
		t.logger.Debug("action cancelled", "action", ctx.String(), "context", ctx.ID)
		c.resume()
		c.suspend()
		return c.finish(*cancel).Unpack()
	}
	c.resume()

	out, panicked, recovered := invoke(c, body)
	c.suspend()
	out = c.finish(out)
	if panicked {
		panic(recovered)
	}
	return out.Unpack()
}

// filter snapshots the registrations in scope for ctx and asks each in
// order. The first refusal rejects the context for all of them.
func (t *Tracker) filter(ctx *Context) ([]Middleware, bool) {
	regs := append([]*registration(nil), t.regs...)
	var observers []Middleware
	for _, r := range regs {
		if !t.inScope(r, ctx) {
			continue
		}
		if !r.mw.Filter(ctx) {
			return nil, false
		}
		observers = append(observers, r.mw)
	}
	return observers, true
}

func (t *Tracker) inScope(r *registration, ctx *Context) bool {
	if r.scope == types.NoHandle {
		return true
	}
	return ctx.Target == r.scope || (t.reg != nil && t.reg.IsDescendant(ctx.Target, r.scope))
}

func (t *Tracker) push(ctx *Context) {
	t.stack = append(t.stack, ctx)
}

func (t *Tracker) pop(ctx *Context) {
	n := len(t.stack)
	if n == 0 || t.stack[n-1] != ctx {
		panic(errors.AssertionFailedf("action %q (%s) is not the running context", ctx.Name, ctx.ID))
	}
	t.stack[n-1] = nil
	t.stack = t.stack[:n-1]
}

// invoke runs the body and turns a panic into a throw outcome.
func invoke(c *call, body func(*call) (any, error)) (out types.Outcome, panicked bool, recovered any) {
	defer func() {
		if r := recover(); r != nil {
			out, panicked, recovered = types.Throw(panicError(r)), true, r
		}
	}()
	return types.OutcomeOf(body(c)), false, nil
}

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return errors.WithMessage(err, "action panicked")
	}
	return errors.Newf("action panicked: %s", fmt.Sprint(r))
}

// start runs OnStart on each observer until one cancels. Only the observers
// that started receive the remaining hooks.
func (c *call) start(observers []Middleware) *types.Outcome {
	for _, mw := range observers {
		c.started = append(c.started, mw)
		if out := mw.OnStart(c.ctx); out != nil {
			return out
		}
	}
	return nil
}

func (c *call) resume() {
	if !c.accepted {
		return
	}
	c.ctx.moveTo(StateResumed)
	for _, mw := range c.started {
		mw.OnResume(c.ctx)
	}
}

func (c *call) suspend() {
	if !c.accepted {
		return
	}
	c.ctx.moveTo(StateSuspended)
	for _, mw := range c.started {
		mw.OnSuspend(c.ctx)
	}
}

func (c *call) finish(out types.Outcome) types.Outcome {
	c.ctx.moveTo(StateFinished)
	for _, mw := range c.started {
		if replaced := mw.OnFinish(c.ctx, out); replaced != nil {
			out = *replaced
		}
	}
	return out
}
