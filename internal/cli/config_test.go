package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/arbor/pkg/types"
)

func TestLoadConfigDefaults(t *testing.T) {
	newEnv(t)
	v, err := loadConfig(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)

	cfg, err := journalConfig(v, "/data")
	require.NoError(t, err)
	assert.Equal(t, types.Config{
		Backend:      types.BackendSQLite,
		DataDir:      "/data",
		SyncStrategy: types.SyncImmediate,
	}, cfg)
}

func TestLoadConfigFile(t *testing.T) {
	newEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(
		"backend: sqlite\nsync_strategy: batch\nbatch_size: 10\nbatch_interval: 2\n"), 0o644))

	v, err := loadConfig(dir)
	require.NoError(t, err)
	cfg, err := journalConfig(v, "/data")
	require.NoError(t, err)
	assert.Equal(t, types.SyncBatch, cfg.SyncStrategy)
	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, 2, cfg.BatchInterval)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	newEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("sync_strategy: batch\n"), 0o644))
	t.Setenv("ARBOR_SYNC_STRATEGY", "on_close")

	v, err := loadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, types.SyncOnClose, v.GetString(cfgKeySyncStrategy))
}

func TestLoadConfigMalformed(t *testing.T) {
	newEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("backend: [unclosed\n"), 0o644))

	_, err := loadConfig(dir)
	assert.Error(t, err)
}

func TestWriteConfigIfMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	created, err := writeConfigIfMissing(path, "/srv/arbor")
	require.NoError(t, err)
	assert.True(t, created)

	v, err := loadConfig(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, "/srv/arbor", v.GetString(cfgKeyDataDir))

	created, err = writeConfigIfMissing(path, "/elsewhere")
	require.NoError(t, err)
	assert.False(t, created)
}
