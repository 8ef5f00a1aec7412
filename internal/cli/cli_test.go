package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/arbor/pkg/arbor"
	"github.com/mesh-intelligence/arbor/pkg/types"
)

type env struct {
	configDir string
	dataDir   string
}

func newEnv(t *testing.T) env {
	t.Helper()
	t.Setenv("ARBOR_CONFIG_DIR", "")
	t.Setenv("ARBOR_DATA_DIR", "")
	t.Setenv("ARBOR_SYNC_STRATEGY", "")
	t.Setenv("ARBOR_BATCH_SIZE", "")
	t.Setenv("ARBOR_BATCH_INTERVAL", "")
	root := t.TempDir()
	return env{
		configDir: filepath.Join(root, "config"),
		dataDir:   filepath.Join(root, "data"),
	}
}

// run executes arbor with the env directories and returns stdout, stderr,
// and the exit code.
func (e env) run(args ...string) (string, string, int) {
	var stdout, stderr bytes.Buffer
	full := append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...)
	code := Execute(full, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func TestVersion(t *testing.T) {
	e := newEnv(t)
	out, _, code := e.run("version")
	assert.Equal(t, exitSuccess, code)
	assert.Equal(t, "arbor v"+arbor.Version+"\nmodule: "+arbor.ModulePath+"\n", out)

	out, _, code = e.run("--json", "version")
	require.Equal(t, exitSuccess, code)
	var v map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, arbor.Version, v["version"])
}

func TestInit(t *testing.T) {
	e := newEnv(t)
	out, _, code := e.run("init")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "wrote ")
	assert.Contains(t, out, "journal ready in "+e.dataDir)

	data, err := os.ReadFile(filepath.Join(e.configDir, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "backend: sqlite")
	assert.Contains(t, string(data), "sync_strategy: immediate")
	assert.FileExists(t, filepath.Join(e.dataDir, "events.jsonl"))

	out, _, code = e.run("init")
	require.Equal(t, exitSuccess, code)
	assert.NotContains(t, out, "wrote ", "an existing config is kept")
}

func TestConfigDataDirUsedWithoutFlag(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.MkdirAll(e.configDir, 0o755))
	custom := filepath.Join(t.TempDir(), "from-config")
	require.NoError(t, os.WriteFile(filepath.Join(e.configDir, "config.yaml"),
		[]byte("backend: sqlite\ndata_dir: "+custom+"\n"), 0o644))

	var stdout, stderr bytes.Buffer
	code := Execute([]string{"--config-dir", e.configDir, "init"}, &stdout, &stderr)
	require.Equal(t, exitSuccess, code, stderr.String())
	assert.FileExists(t, filepath.Join(custom, "events.jsonl"))
}

func TestInvalidConfigIsUserError(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.MkdirAll(e.configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(e.configDir, "config.yaml"),
		[]byte("backend: postgres\n"), 0o644))

	_, stderr, code := e.run("events")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, "unknown backend")
}

func TestSyncStrategyFromEnv(t *testing.T) {
	e := newEnv(t)
	t.Setenv("ARBOR_SYNC_STRATEGY", "whenever")
	_, stderr, code := e.run("events")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, "unknown sync strategy")
}

func TestDemo(t *testing.T) {
	e := newEnv(t)
	out, _, code := e.run("--json", "demo")
	require.Equal(t, exitSuccess, code)

	var res demoResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 49, res.Events)
	assert.Equal(t, 14, res.X)
	assert.Equal(t, 26, res.Y)
	assert.Equal(t, 1, res.AttachedCalls)
	assert.Len(t, res.RootContexts, 5)

	out, _, code = e.run("tree", "--root", res.RootContexts[2])
	require.Equal(t, exitSuccess, code)
	assert.Equal(t, strings.Join([]string{
		"addXY (filter)",
		"addXY (start)",
		"addXY (resume)",
		"addXY > addX (filter)",
		"addXY > addX (start)",
		"addXY > addX (resume)",
		"addXY > addX (suspend)",
		"addXY > addX (finish - return)",
		"addXY > addY (filter)",
		"addXY > addY (start)",
		"addXY > addY (resume)",
		"addXY > addY (suspend)",
		"addXY > addY (finish - return)",
		"addXY (suspend)",
		"addXY (finish - return)",
	}, "\n")+"\n", out)

	out, _, code = e.run("--json", "events", "--name", "reset", "--hook", "finish")
	require.Equal(t, exitSuccess, code)
	var events []types.Event
	require.NoError(t, json.Unmarshal([]byte(out), &events))
	require.Len(t, events, 1)
	assert.Equal(t, types.ResultThrow, events[0].Result)
	assert.Equal(t, "reset refused: demo", events[0].Error)
}

func TestEventsText(t *testing.T) {
	e := newEnv(t)
	_, _, code := e.run("demo")
	require.Equal(t, exitSuccess, code)

	out, _, code := e.run("events", "--name", "addX", "--limit", "2")
	require.Equal(t, exitSuccess, code)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "filter")
	assert.Contains(t, lines[0], "addX")
}

func TestEventsBadFilter(t *testing.T) {
	e := newEnv(t)
	_, stderr, code := e.run("events", "--hook", "explode")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, `unknown hook "explode"`)

	_, _, code = e.run("events", "--limit", "-1")
	assert.Equal(t, exitUserError, code)
}

func TestExport(t *testing.T) {
	e := newEnv(t)
	_, _, code := e.run("demo")
	require.Equal(t, exitSuccess, code)

	out, _, code := e.run("export", "--hook", "start")
	require.Equal(t, exitSuccess, code)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 9)

	file := filepath.Join(t.TempDir(), "events.jsonl")
	out, _, code = e.run("export", file)
	require.Equal(t, exitSuccess, code)
	assert.Equal(t, "exported 49 events to "+file+"\n", out)
}

func TestUnknownCommandIsUserError(t *testing.T) {
	e := newEnv(t)
	_, stderr, code := e.run("prune")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, "unknown command")
}

func TestSystemErrorExitCode(t *testing.T) {
	e := newEnv(t)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	var stdout, stderr bytes.Buffer
	code := Execute([]string{"--config-dir", e.configDir, "--data-dir", filepath.Join(blocker, "data"), "events"}, &stdout, &stderr)
	assert.Equal(t, exitSysError, code)
}

type failingDetach struct {
	types.Journal
	err error
}

func (f failingDetach) Detach() error { return f.err }

func TestDetachJournalReportsFlushError(t *testing.T) {
	flush := errors.New("disk full")

	var err error
	detachJournal(failingDetach{err: flush}, &err)
	require.ErrorIs(t, err, flush)
	assert.Equal(t, exitSysError, exitCode(err))

	earlier := errors.New("step failed")
	err = earlier
	detachJournal(failingDetach{err: flush}, &err)
	assert.Same(t, earlier, err)

	err = nil
	detachJournal(failingDetach{}, &err)
	assert.NoError(t, err)
}

func TestRenderCallTrees(t *testing.T) {
	events := []types.Event{
		{ContextID: "a", RootContextID: "a", Name: "outer", Hook: types.HookStart},
		{ContextID: "b", ParentContextID: "a", RootContextID: "a", Name: "inner", Hook: types.HookFinish, Result: types.ResultThrow},
		{ContextID: "c", RootContextID: "c", Name: "other", Hook: types.HookStart},
	}
	trees := renderCallTrees(events)
	require.Len(t, trees, 2)
	assert.Equal(t, []string{"outer (start)", "outer > inner (finish - throw)"}, trees[0].Lines)
	assert.Equal(t, "c", trees[1].RootContextID)
}
