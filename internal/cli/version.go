package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/arbor/pkg/arbor"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the arbor version",
		Args:  cobra.NoArgs,
		// Works without a readable configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), map[string]string{
					"version": arbor.Version,
					"module":  arbor.ModulePath,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "arbor v%s\nmodule: %s\n", arbor.Version, arbor.ModulePath)
			return nil
		},
	}
}
