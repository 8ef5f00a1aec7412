package middleware

import (
	"log/slog"
	"time"

	"github.com/mesh-intelligence/arbor/pkg/action"
	"github.com/mesh-intelligence/arbor/pkg/types"
)

type logStartKey struct{ l *Logging }

// Logging logs the lifecycle of every action it observes.
type Logging struct {
	logger *slog.Logger
}

var _ action.Middleware = (*Logging)(nil)

// NewLogging creates a logging observer writing to logger.
func NewLogging(logger *slog.Logger) *Logging {
	return &Logging{logger: logger}
}

func (l *Logging) attrs(ctx *action.Context) []any {
	return []any{
		"action", ctx.String(),
		"context", ctx.ID,
		"target", ctx.Target,
		"depth", ctx.Depth(),
	}
}

// Filter accepts every context.
func (l *Logging) Filter(*action.Context) bool { return true }

// OnStart logs the start at debug level and notes the start time.
func (l *Logging) OnStart(ctx *action.Context) *types.Outcome {
	ctx.Data[logStartKey{l}] = time.Now()
	l.logger.Debug("action started", l.attrs(ctx)...)
	return nil
}

// OnResume logs at debug level.
func (l *Logging) OnResume(ctx *action.Context) {
	l.logger.Debug("action resumed", l.attrs(ctx)...)
}

// OnSuspend logs at debug level.
func (l *Logging) OnSuspend(ctx *action.Context) {
	l.logger.Debug("action suspended", l.attrs(ctx)...)
}

// OnFinish logs a success at info level and a throw at error level, with
// the elapsed time. The outcome is left unchanged.
func (l *Logging) OnFinish(ctx *action.Context, out types.Outcome) *types.Outcome {
	attrs := l.attrs(ctx)
	if started, ok := ctx.Data[logStartKey{l}].(time.Time); ok {
		attrs = append(attrs, "duration", time.Since(started))
		delete(ctx.Data, logStartKey{l})
	}
	if out.Kind == types.ResultThrow {
		l.logger.Error("action failed", append(attrs, slog.String("err", errText(out.Err)))...)
		return nil
	}
	l.logger.Info("action finished", attrs...)
	return nil
}

func errText(err error) string {
	if err == nil {
		return "<nil>"
	}
	return err.Error()
}
