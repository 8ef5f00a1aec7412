package journal

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/arbor/pkg/types"
)

func TestWriteAndReadJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	records := []json.RawMessage{
		json.RawMessage(`{"a":1}`),
		json.RawMessage(`{"b":2}`),
	}
	require.NoError(t, writeJSONL(path, records))

	got, err := readJSONL(path)
	require.NoError(t, err)
	assert.Equal(t, records, got)

	require.NoError(t, appendJSONL(path, []json.RawMessage{json.RawMessage(`{"c":3}`)}))
	got, err = readJSONL(path)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files are left behind")
}

func TestReadJSONLMissingFile(t *testing.T) {
	_, err := readJSONL(filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	b := setupBackend(t, types.Config{})
	for _, name := range []string{"a", "b", "a"} {
		_, err := b.Append(event("c-"+name, name, types.HookStart))
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	n, err := b.Export(&buf, types.EventFilter{Name: "a"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	var ev types.Event
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &ev))
	assert.Equal(t, int64(3), ev.Seq)

	path := filepath.Join(t.TempDir(), "export.jsonl")
	n, err = b.ExportFile(path, types.EventFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, countLines(t, path))
}
