package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/arbor/pkg/types"
)

type eventFlags struct {
	contextID string
	rootID    string
	name      string
	hook      string
	limit     int
}

func (f *eventFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.contextID, "context", "", "only events of this context id")
	cmd.Flags().StringVar(&f.rootID, "root", "", "only events of the call tree with this root context id")
	cmd.Flags().StringVar(&f.name, "name", "", "only events of actions with this name")
	cmd.Flags().StringVar(&f.hook, "hook", "", "only events of this hook (filter, start, resume, suspend, finish)")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "maximum number of events (0 for all)")
}

func (f *eventFlags) filter() (types.EventFilter, error) {
	hook := types.HookType(f.hook)
	if hook != "" && !types.ValidHookType(hook) {
		return types.EventFilter{}, errors.Wrapf(types.ErrInvalidFilter, "unknown hook %q", f.hook)
	}
	if f.limit < 0 {
		return types.EventFilter{}, errors.Wrap(types.ErrInvalidFilter, "--limit must not be negative")
	}
	return types.EventFilter{
		ContextID:     f.contextID,
		RootContextID: f.rootID,
		Name:          f.name,
		Hook:          hook,
		Limit:         f.limit,
	}, nil
}

func newEventsCmd(a *app) *cobra.Command {
	var ef eventFlags
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List recorded events",
		Example: `  arbor events --name addXY
  arbor events --hook finish --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := ef.filter()
			if err != nil {
				return err
			}
			events, err := a.queryEvents(filter)
			if err != nil {
				return err
			}
			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), events)
			}
			for _, ev := range events {
				fmt.Fprintln(cmd.OutOrStdout(), formatEvent(ev))
			}
			return nil
		},
	}
	ef.register(cmd)
	return cmd
}

func (a *app) queryEvents(filter types.EventFilter) ([]types.Event, error) {
	j, err := a.openJournal()
	if err != nil {
		return nil, err
	}
	defer j.Detach()
	events, err := j.Events(filter)
	if err != nil {
		return nil, sysErr(errors.Wrap(err, "reading events"))
	}
	return events, nil
}

// formatEvent renders one event as a single text line.
func formatEvent(ev types.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%6d  %s  %-8s %s%s",
		ev.Seq, ev.CreatedAt.Format(time.RFC3339), ev.Hook,
		strings.Repeat("  ", ev.Depth), ev.Name)
	if ev.Result != "" {
		fmt.Fprintf(&b, " -> %s", ev.Result)
	}
	if ev.Error != "" {
		fmt.Fprintf(&b, " (%s)", ev.Error)
	}
	fmt.Fprintf(&b, "  [%s]", ev.ContextID)
	return b.String()
}
