package middleware

import (
	"github.com/cockroachdb/errors"

	"github.com/mesh-intelligence/arbor/pkg/action"
	"github.com/mesh-intelligence/arbor/pkg/types"
)

// Recorder appends one journal event per hook firing. Hooks cannot fail, so
// append errors are collected and reported by Err.
type Recorder struct {
	journal types.Journal
	err     error
}

var _ action.Middleware = (*Recorder)(nil)

// NewRecorder creates a recorder appending to j, which must be attached.
func NewRecorder(j types.Journal) *Recorder {
	return &Recorder{journal: j}
}

// Err returns the append errors seen so far, combined, or nil.
func (r *Recorder) Err() error {
	return r.err
}

func (r *Recorder) record(ctx *action.Context, hook types.HookType, out *types.Outcome) {
	ev := types.Event{
		ContextID:     ctx.ID,
		RootContextID: ctx.Root().ID,
		Depth:         ctx.Depth(),
		Name:          ctx.Name,
		Target:        ctx.Target,
		Hook:          hook,
	}
	if ctx.Parent != nil {
		ev.ParentContextID = ctx.Parent.ID
	}
	if out != nil {
		ev.Result = out.Kind
		if out.Err != nil {
			ev.Error = out.Err.Error()
		}
	}
	if _, err := r.journal.Append(ev); err != nil {
		r.err = errors.CombineErrors(r.err, errors.Wrapf(err, "recording %s of %s", hook, ctx))
	}
}

// Filter records the filter step and accepts the context.
func (r *Recorder) Filter(ctx *action.Context) bool {
	r.record(ctx, types.HookFilter, nil)
	return true
}

// OnStart records the start step.
func (r *Recorder) OnStart(ctx *action.Context) *types.Outcome {
	r.record(ctx, types.HookStart, nil)
	return nil
}

// OnResume records the resume step.
func (r *Recorder) OnResume(ctx *action.Context) {
	r.record(ctx, types.HookResume, nil)
}

// OnSuspend records the suspend step.
func (r *Recorder) OnSuspend(ctx *action.Context) {
	r.record(ctx, types.HookSuspend, nil)
}

// OnFinish records the finish step with its outcome.
func (r *Recorder) OnFinish(ctx *action.Context, out types.Outcome) *types.Outcome {
	r.record(ctx, types.HookFinish, &out)
	return nil
}
