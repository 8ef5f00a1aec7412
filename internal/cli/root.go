// Package cli implements the arbor command-line interface.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/arbor/internal/journal"
	"github.com/mesh-intelligence/arbor/internal/logging"
	"github.com/mesh-intelligence/arbor/internal/paths"
	"github.com/mesh-intelligence/arbor/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// errSystem marks failures of the environment (I/O, storage) as opposed to
// bad input.
var errSystem = errors.New("system error")

func sysErr(err error) error {
	if err == nil {
		return nil
	}
	return errors.Mark(err, errSystem)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, errSystem):
		return exitSysError
	default:
		return exitUserError
	}
}

// app holds global flag values and the state resolved from them before
// a subcommand runs.
type app struct {
	configDirFlag string
	dataDirFlag   string
	jsonMode      bool
	verbose       bool

	stderr    io.Writer
	logger    *slog.Logger
	configDir string
	dataDir   string
	config    *viper.Viper
}

// NewRootCmd creates the top-level "arbor" command with global flags and
// all subcommands registered. Logs go to stderr.
func NewRootCmd(stderr io.Writer) *cobra.Command {
	a := &app{stderr: stderr}
	root := &cobra.Command{
		Use:   "arbor",
		Short: "Run and inspect instrumented tree actions",
		Long: "Arbor keeps object trees with single-parent rules and records the\n" +
			"lifecycle of actions run on them in a local journal.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return a.setup() },
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configDirFlag, "config-dir", "", "configuration directory (env "+paths.EnvConfigDir+")")
	pf.StringVar(&a.dataDirFlag, "data-dir", "", "journal directory (env "+paths.EnvDataDir+", default ./"+paths.DefaultDataDirName+")")
	pf.BoolVar(&a.jsonMode, "json", false, "output in JSON format")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newVersionCmd(a),
		newInitCmd(a),
		newDemoCmd(a),
		newEventsCmd(a),
		newTreeCmd(a),
		newExportCmd(a),
	)
	return root
}

// Execute runs the arbor command with args and returns the process exit
// code.
func Execute(args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd(stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.Execute()
	if err != nil {
		fmt.Fprintf(stderr, "arbor: %v\n", err)
	}
	return exitCode(err)
}

// setup resolves directories and loads config.yaml.
func (a *app) setup() error {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = logging.NewWithWriter(a.stderr, level)

	configDir, err := paths.ResolveConfigDir(a.configDirFlag)
	if err != nil {
		return sysErr(errors.Wrap(err, "resolving config dir"))
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	dataDir, err := paths.ResolveDataDir(a.dataDirFlag, cfg.GetString(cfgKeyDataDir))
	if err != nil {
		return sysErr(errors.Wrap(err, "resolving data dir"))
	}

	a.configDir, a.config, a.dataDir = configDir, cfg, dataDir
	a.logger.Debug("directories resolved", "config_dir", configDir, "data_dir", dataDir)
	return nil
}

// openJournal attaches the journal in the resolved data directory. The
// caller must Detach it.
func (a *app) openJournal() (*journal.Backend, error) {
	cfg, err := journalConfig(a.config, a.dataDir)
	if err != nil {
		return nil, err
	}
	j := journal.NewBackend()
	if err := j.Attach(cfg); err != nil {
		return nil, sysErr(errors.Wrap(err, "attaching journal"))
	}
	return j, nil
}

// printJSON writes v as indented JSON.
// detachJournal detaches j and reports a failed flush through errp unless
// an earlier error is already set.
func detachJournal(j types.Journal, errp *error) {
	if err := j.Detach(); err != nil && *errp == nil {
		*errp = sysErr(errors.Wrap(err, "closing journal"))
	}
}

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysErr(errors.Wrap(err, "encoding output"))
	}
	_, err = fmt.Fprintln(w, string(out))
	return sysErr(err)
}
