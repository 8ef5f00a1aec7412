package cli

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	var ef eventFlags
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write recorded events as JSONL",
		Long:  "Write the matching events as JSON lines to file, or to stdout when no\nfile is given. An existing file is replaced atomically.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := ef.filter()
			if err != nil {
				return err
			}
			j, err := a.openJournal()
			if err != nil {
				return err
			}
			defer j.Detach()

			if len(args) == 0 {
				_, err := j.Export(cmd.OutOrStdout(), filter)
				return sysErr(err)
			}
			n, err := j.ExportFile(args[0], filter)
			if err != nil {
				return sysErr(errors.Wrapf(err, "exporting to %s", args[0]))
			}
			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), map[string]any{"file": args[0], "events": n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d events to %s\n", n, args[0])
			return nil
		},
	}
	ef.register(cmd)
	return cmd
}
