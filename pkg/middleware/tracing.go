package middleware

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mesh-intelligence/arbor/pkg/action"
	"github.com/mesh-intelligence/arbor/pkg/types"
)

// TracerName is the instrumentation scope of spans created by Tracing.
const TracerName = "github.com/mesh-intelligence/arbor/pkg/middleware"

type spanKey struct{ t *Tracing }

// Tracing opens one span per observed action. Spans of nested actions are
// children of the span of the nearest traced enclosing action. Yield points
// show up as suspend and resume span events.
type Tracing struct {
	tracer trace.Tracer
}

var _ action.Middleware = (*Tracing)(nil)

// NewTracing creates a tracing observer using a tracer from tp.
func NewTracing(tp trace.TracerProvider) *Tracing {
	return &Tracing{tracer: tp.Tracer(TracerName)}
}

// Filter accepts every context.
func (t *Tracing) Filter(*action.Context) bool { return true }

// OnStart opens a span under the span of the nearest traced ancestor.
func (t *Tracing) OnStart(ctx *action.Context) *types.Outcome {
	parent := context.Background()
	for p := ctx.Parent; p != nil; p = p.Parent {
		if span, ok := p.Data[spanKey{t}].(trace.Span); ok {
			parent = trace.ContextWithSpan(parent, span)
			break
		}
	}
	_, span := t.tracer.Start(parent, ctx.Name,
		trace.WithAttributes(
			attribute.String("arbor.context_id", ctx.ID),
			attribute.Int64("arbor.target", int64(ctx.Target)),
			attribute.Int("arbor.depth", ctx.Depth()),
			attribute.Bool("arbor.async", ctx.Async),
		))
	ctx.Data[spanKey{t}] = span
	return nil
}

// OnResume adds a "resume" event to the span.
func (t *Tracing) OnResume(ctx *action.Context) {
	if span, ok := ctx.Data[spanKey{t}].(trace.Span); ok {
		span.AddEvent("resume")
	}
}

// OnSuspend adds a "suspend" event to the span.
func (t *Tracing) OnSuspend(ctx *action.Context) {
	if span, ok := ctx.Data[spanKey{t}].(trace.Span); ok {
		span.AddEvent("suspend")
	}
}

// OnFinish sets the span status from the outcome and ends the span.
func (t *Tracing) OnFinish(ctx *action.Context, out types.Outcome) *types.Outcome {
	span, ok := ctx.Data[spanKey{t}].(trace.Span)
	if !ok {
		return nil
	}
	delete(ctx.Data, spanKey{t})
	if out.Kind == types.ResultThrow && out.Err != nil {
		span.RecordError(out.Err)
		span.SetStatus(codes.Error, out.Err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
	return nil
}
