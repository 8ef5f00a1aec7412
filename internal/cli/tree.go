package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/arbor/pkg/types"
)

func newTreeCmd(a *app) *cobra.Command {
	var rootID string
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Render recorded call trees",
		Long: "Print every recorded hook as 'outer > inner (hook - result)', one\n" +
			"block per top-level call.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := a.queryEvents(types.EventFilter{RootContextID: rootID})
			if err != nil {
				return err
			}
			trees := renderCallTrees(events)
			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), trees)
			}
			for i, t := range trees {
				if i > 0 {
					fmt.Fprintln(cmd.OutOrStdout())
				}
				for _, line := range t.Lines {
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&rootID, "root", "", "only the call tree with this root context id")
	return cmd
}

// callTree is the rendering of all events sharing one root context.
type callTree struct {
	RootContextID string   `json:"root_context_id"`
	Lines         []string `json:"lines"`
}

// renderCallTrees groups events by root context, in order of first
// appearance, and renders each event with the names of its enclosing
// actions.
func renderCallTrees(events []types.Event) []callTree {
	type node struct {
		name, parent string
	}
	contexts := make(map[string]node)
	for _, ev := range events {
		contexts[ev.ContextID] = node{name: ev.Name, parent: ev.ParentContextID}
	}
	path := func(id string) string {
		var names []string
		// Bounded by the number of contexts in case of malformed records.
		for i := 0; id != "" && i <= len(contexts); i++ {
			n, ok := contexts[id]
			if !ok {
				break
			}
			names = append(names, n.name)
			id = n.parent
		}
		for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
			names[i], names[j] = names[j], names[i]
		}
		return strings.Join(names, " > ")
	}

	var trees []callTree
	index := make(map[string]int)
	for _, ev := range events {
		i, ok := index[ev.RootContextID]
		if !ok {
			i = len(trees)
			index[ev.RootContextID] = i
			trees = append(trees, callTree{RootContextID: ev.RootContextID})
		}
		hook := string(ev.Hook)
		if ev.Result != "" {
			hook += " - " + string(ev.Result)
		}
		trees[i].Lines = append(trees[i].Lines, fmt.Sprintf("%s (%s)", path(ev.ContextID), hook))
	}
	return trees
}
