package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/arbor/pkg/tree"
	"github.com/mesh-intelligence/arbor/pkg/types"
)

func TestFlowAwaitBracketsNestedCalls(t *testing.T) {
	tr := NewTracker(tree.NewRegistry())
	var log eventLog
	tr.Use(log.middleware())

	fetch := func() (any, error) {
		return tr.Run("fetch", types.NoHandle, nil, func() (any, error) { return 2, nil })
	}

	v, err := tr.RunFlow("load", types.NoHandle, nil, func(f *Flow) (any, error) {
		assert.True(t, f.Context().Async)
		a, err := f.Await(fetch)
		if err != nil {
			return nil, err
		}
		b, err := f.Await(fetch)
		if err != nil {
			return nil, err
		}
		return a.(int) + b.(int), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4, v)
	assert.Equal(t, []string{
		"load (filter)",
		"load (start)",
		"load (resume)",
		"load (suspend)",
		"load > fetch (filter)",
		"load > fetch (start)",
		"load > fetch (resume)",
		"load > fetch (suspend)",
		"load > fetch (finish - return)",
		"load (resume)",
		"load (suspend)",
		"load > fetch (filter)",
		"load > fetch (start)",
		"load > fetch (resume)",
		"load > fetch (suspend)",
		"load > fetch (finish - return)",
		"load (resume)",
		"load (suspend)",
		"load (finish - return)",
	}, log.events)
}

func TestFlowAwaitResumesAfterPanic(t *testing.T) {
	tr := NewTracker(tree.NewRegistry())
	var log eventLog
	tr.Use(log.middleware())

	assert.PanicsWithValue(t, "lost", func() {
		_, _ = tr.RunFlow("load", types.NoHandle, nil, func(f *Flow) (any, error) {
			return f.Await(func() (any, error) { panic("lost") })
		})
	})
	assert.Equal(t, []string{
		"load (filter)",
		"load (start)",
		"load (resume)",
		"load (suspend)",
		"load (resume)",
		"load (suspend)",
		"load (finish - throw)",
	}, log.events)
	assert.Nil(t, tr.Current())
}

func TestFlowRejectedAwaitIsPlainCall(t *testing.T) {
	tr := NewTracker(tree.NewRegistry())
	tr.Use(Hooks{FilterFn: func(*Context) bool { return false }})

	v, err := tr.RunFlow("load", types.NoHandle, nil, func(f *Flow) (any, error) {
		return f.Await(func() (any, error) { return "x", nil })
	})
	require.NoError(t, err)
	assert.Equal(t, "x", v)
}

func TestFlowAwaitAfterFinishPanics(t *testing.T) {
	tr := NewTracker(tree.NewRegistry())
	var escaped *Flow
	_, err := tr.RunFlow("load", types.NoHandle, nil, func(f *Flow) (any, error) {
		escaped = f
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, StateFinished, escaped.Context().State())

	assert.Panics(t, func() {
		_, _ = escaped.Await(func() (any, error) { return nil, nil })
	})
}

func TestStateTransitions(t *testing.T) {
	ctx := newContext("id", "a", types.NoHandle, nil, nil, false)
	assert.Equal(t, StateFiltering, ctx.State())

	ctx.moveTo(StateStarted)
	ctx.moveTo(StateResumed)
	ctx.moveTo(StateSuspended)
	ctx.moveTo(StateResumed)
	ctx.moveTo(StateSuspended)
	ctx.moveTo(StateFinished)
	assert.True(t, ctx.State().Terminal())

	assert.Panics(t, func() { ctx.moveTo(StateResumed) })

	rejected := newContext("id2", "b", types.NoHandle, nil, nil, false)
	rejected.moveTo(StateRejected)
	assert.True(t, rejected.State().Terminal())
	assert.Panics(t, func() { rejected.moveTo(StateStarted) })

	skipping := newContext("id3", "c", types.NoHandle, nil, nil, false)
	skipping.moveTo(StateStarted)
	assert.Panics(t, func() { skipping.moveTo(StateFinished) })

	assert.Equal(t, "suspended", StateSuspended.String())
	assert.Equal(t, "unknown", State(99).String())
}
