package middleware

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/mesh-intelligence/arbor/internal/journal"
	"github.com/mesh-intelligence/arbor/internal/logging"
	"github.com/mesh-intelligence/arbor/pkg/action"
	"github.com/mesh-intelligence/arbor/pkg/tree"
	"github.com/mesh-intelligence/arbor/pkg/types"
)

// scenario runs a flow that awaits one nested call, then a failing call.
func scenario(t *testing.T, tr *action.Tracker) {
	t.Helper()
	v, err := tr.RunFlow("load", types.NoHandle, nil, func(f *action.Flow) (any, error) {
		return f.Await(func() (any, error) {
			return tr.Run("fetch", types.NoHandle, nil, func() (any, error) { return 1, nil })
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = tr.Run("fail", types.NoHandle, nil, func() (any, error) {
		return nil, errors.New("boom")
	})
	require.EqualError(t, err, "boom")
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	tr := action.NewTracker(tree.NewRegistry())
	tr.Use(NewLogging(logging.NewWithWriter(&buf, slog.LevelDebug)))

	scenario(t, tr)

	out := buf.String()
	assert.Contains(t, out, `msg="action started" action=load`)
	assert.Contains(t, out, `action="load > fetch"`)
	assert.Contains(t, out, `msg="action suspended"`)
	assert.Contains(t, out, `msg="action finished" action=load`)
	assert.Contains(t, out, `level=ERROR msg="action failed" action=fail`)
	assert.Contains(t, out, "err=boom")
	assert.NotContains(t, out, "stack trace")
	assert.Contains(t, out, "duration=")
}

func TestLoggingRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	tr := action.NewTracker(tree.NewRegistry())
	tr.Use(NewLogging(logging.NewWithWriter(&buf, slog.LevelInfo)))

	scenario(t, tr)

	assert.NotContains(t, buf.String(), "action started")
	assert.NotContains(t, buf.String(), "stack trace")
	assert.Equal(t, 3, strings.Count(buf.String(), "\n"), "two finishes and one failure")
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	tr := action.NewTracker(tree.NewRegistry())
	tr.Use(m)
	scenario(t, tr)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.total.WithLabelValues("load", "return")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.total.WithLabelValues("fetch", "return")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.total.WithLabelValues("fail", "throw")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.suspensions.WithLabelValues("load")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.suspensions.WithLabelValues("fetch")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.duration))

	count, err := testutil.GatherAndCount(reg, "arbor_actions_total", "arbor_actions_in_flight")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestMetricsInFlight(t *testing.T) {
	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	tr := action.NewTracker(tree.NewRegistry())
	tr.Use(m)

	_, err = tr.Run("outer", types.NoHandle, nil, func() (any, error) {
		return tr.Run("inner", types.NoHandle, nil, func() (any, error) {
			return testutil.ToFloat64(m.inFlight), nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))
}

func TestMetricsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)
	_, err = NewMetrics(reg)
	assert.Error(t, err)
}

func TestTracing(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tr := action.NewTracker(tree.NewRegistry())
	tr.Use(NewTracing(tp))

	scenario(t, tr)

	spans := recorder.Ended()
	require.Len(t, spans, 3)
	byName := make(map[string]sdktrace.ReadOnlySpan)
	for _, s := range spans {
		byName[s.Name()] = s
	}

	load, fetch, fail := byName["load"], byName["fetch"], byName["fail"]
	require.NotNil(t, load)
	require.NotNil(t, fetch)
	require.NotNil(t, fail)

	assert.Equal(t, load.SpanContext().SpanID(), fetch.Parent().SpanID())
	assert.Equal(t, load.SpanContext().TraceID(), fetch.SpanContext().TraceID())
	assert.False(t, fail.Parent().IsValid())

	var events []string
	for _, ev := range load.Events() {
		events = append(events, ev.Name)
	}
	assert.Equal(t, []string{"resume", "suspend", "resume", "suspend"}, events)

	assert.Equal(t, codes.Ok, load.Status().Code)
	assert.Equal(t, codes.Error, fail.Status().Code)
	assert.Equal(t, "boom", fail.Status().Description)
}

func TestRecorder(t *testing.T) {
	j := journal.NewBackend()
	require.NoError(t, j.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	defer j.Detach()

	rec := NewRecorder(j)
	tr := action.NewTracker(tree.NewRegistry())
	tr.Use(rec)
	scenario(t, tr)
	require.NoError(t, rec.Err())

	events, err := j.Events(types.EventFilter{})
	require.NoError(t, err)

	var hooks []string
	for _, ev := range events {
		hooks = append(hooks, ev.Name+" "+string(ev.Hook))
	}
	assert.Equal(t, []string{
		"load filter", "load start", "load resume", "load suspend",
		"fetch filter", "fetch start", "fetch resume", "fetch suspend", "fetch finish",
		"load resume", "load suspend", "load finish",
		"fail filter", "fail start", "fail resume", "fail suspend", "fail finish",
	}, hooks)

	fetchStart := events[5]
	assert.Equal(t, events[0].ContextID, fetchStart.ParentContextID)
	assert.Equal(t, events[0].ContextID, fetchStart.RootContextID)
	assert.Equal(t, 1, fetchStart.Depth)

	last := events[len(events)-1]
	assert.Equal(t, types.ResultThrow, last.Result)
	assert.Equal(t, "boom", last.Error)
}

func TestRecorderCollectsErrors(t *testing.T) {
	j := journal.NewBackend()
	rec := NewRecorder(j)
	tr := action.NewTracker(tree.NewRegistry())
	tr.Use(rec)

	_, err := tr.Run("a", types.NoHandle, nil, func() (any, error) { return nil, nil })
	require.NoError(t, err, "journal errors never fail the action")
	require.Error(t, rec.Err())
	assert.True(t, errors.Is(rec.Err(), types.ErrJournalDetached))
}
