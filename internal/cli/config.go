package cli

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/arbor/internal/paths"
	"github.com/mesh-intelligence/arbor/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	cfgKeyBackend       = "backend"
	cfgKeyDataDir       = "data_dir"
	cfgKeySyncStrategy  = "sync_strategy"
	cfgKeyBatchSize     = "batch_size"
	cfgKeyBatchInterval = "batch_interval"

	envPrefix = "ARBOR"
)

// loadConfig reads config.yaml from configDir with Viper. A missing file
// or directory is not an error: the defaults apply. The sync settings may
// also come from ARBOR_SYNC_STRATEGY, ARBOR_BATCH_SIZE, and
// ARBOR_BATCH_INTERVAL.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeySyncStrategy, types.SyncImmediate)
	v.SetEnvPrefix(envPrefix)
	for _, key := range []string{cfgKeySyncStrategy, cfgKeyBatchSize, cfgKeyBatchInterval} {
		if err := v.BindEnv(key); err != nil {
			return nil, errors.Wrapf(err, "binding %s", key)
		}
	}

	if _, err := os.Stat(paths.ConfigFile(configDir)); errors.Is(err, os.ErrNotExist) {
		return v, nil
	}
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, errors.Wrapf(err, "reading %s", paths.ConfigFile(configDir))
	}
	return v, nil
}

// journalConfig builds the journal configuration from loaded settings.
// Invalid settings are user errors.
func journalConfig(v *viper.Viper, dataDir string) (types.Config, error) {
	cfg := types.Config{
		Backend:       v.GetString(cfgKeyBackend),
		DataDir:       dataDir,
		SyncStrategy:  v.GetString(cfgKeySyncStrategy),
		BatchSize:     v.GetInt(cfgKeyBatchSize),
		BatchInterval: v.GetInt(cfgKeyBatchInterval),
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}
