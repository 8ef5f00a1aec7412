package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/arbor/internal/paths"
	"github.com/mesh-intelligence/arbor/pkg/types"
)

// configFile is the structure written to config.yaml.
type configFile struct {
	Backend      string `yaml:"backend"`
	DataDir      string `yaml:"data_dir,omitempty"`
	SyncStrategy string `yaml:"sync_strategy"`
}

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configuration file and the journal",
		Long: "Create the configuration directory with a default config.yaml when\n" +
			"missing, then create the journal in the data directory.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := paths.ConfigFile(a.configDir)
			created, err := writeConfigIfMissing(configPath, a.dataDirFlag)
			if err != nil {
				return sysErr(err)
			}
			j, err := a.openJournal()
			if err != nil {
				return err
			}
			if err := j.Detach(); err != nil {
				return sysErr(errors.Wrap(err, "closing journal"))
			}

			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"config_file":    configPath,
					"config_created": created,
					"data_dir":       a.dataDir,
				})
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", configPath)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "journal ready in %s\n", a.dataDir)
			return nil
		},
	}
}

// writeConfigIfMissing creates config.yaml with default values unless it
// already exists, and reports whether it wrote the file.
func writeConfigIfMissing(path, dataDir string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, errors.Wrapf(err, "checking %s", path)
	}

	data, err := yaml.Marshal(&configFile{
		Backend:      types.BackendSQLite,
		DataDir:      dataDir,
		SyncStrategy: types.SyncImmediate,
	})
	if err != nil {
		return false, errors.Wrap(err, "encoding config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, errors.Wrap(err, "creating config dir")
	}
	header := []byte("# arbor configuration\n")
	if err := os.WriteFile(path, append(header, data...), 0o644); err != nil {
		return false, errors.Wrapf(err, "writing %s", path)
	}
	return true, nil
}
