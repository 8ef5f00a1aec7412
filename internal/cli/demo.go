package cli

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/arbor/pkg/action"
	"github.com/mesh-intelligence/arbor/pkg/middleware"
	"github.com/mesh-intelligence/arbor/pkg/tree"
	"github.com/mesh-intelligence/arbor/pkg/types"
)

// counter is the demo model: a node with a child node holding a second
// counter. Every mutation runs as an action.
type counter struct {
	tr          *action.Tracker
	node, inner types.Handle
	x, y        int
}

func newCounter(reg *tree.Registry, tr *action.Tracker, id string, attached func(store types.Handle) func()) (*counter, error) {
	c := &counter{
		tr:    tr,
		node:  reg.NewNode(types.NodeOptions{ModelID: id, OnAttachedToRootStore: attached}),
		inner: reg.NewNode(types.NodeOptions{ModelID: id + "/inner"}),
	}
	if err := reg.SetParent(c.inner, &types.ParentPath{Parent: c.node, Path: "inner"}); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *counter) addX(n int) (any, error) {
	return c.tr.Run("addX", c.node, []any{n}, func() (any, error) {
		c.x += n
		return c.x, nil
	})
}

func (c *counter) addY(n int) (any, error) {
	return c.tr.Run("addY", c.inner, []any{n}, func() (any, error) {
		c.y += n
		return c.y, nil
	})
}

func (c *counter) addXY(n1, n2 int) (any, error) {
	return c.tr.Run("addXY", c.node, []any{n1, n2}, func() (any, error) {
		if _, err := c.addX(n1); err != nil {
			return nil, err
		}
		if _, err := c.addY(n2); err != nil {
			return nil, err
		}
		return n1 + n2, nil
	})
}

func (c *counter) reset(reason string) (any, error) {
	return c.tr.Run("reset", c.node, []any{reason}, func() (any, error) {
		return nil, errors.Newf("reset refused: %s", reason)
	})
}

// sync awaits two nested updates, the way a model would await remote work.
func (c *counter) sync() (any, error) {
	return c.tr.RunFlow("sync", c.node, nil, func(f *action.Flow) (any, error) {
		if _, err := f.Await(func() (any, error) { return c.addX(10) }); err != nil {
			return nil, err
		}
		return f.Await(func() (any, error) { return c.addY(20) })
	})
}

type demoResult struct {
	DataDir       string   `json:"data_dir"`
	Events        int      `json:"events"`
	RootContexts  []string `json:"root_contexts"`
	X             int      `json:"x"`
	Y             int      `json:"y"`
	AttachedCalls int      `json:"attached_calls"`
}

func newDemoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run a scripted model scenario and record it",
		Long: "Build a small tree under a root store, run nested, failing, and\n" +
			"yielding actions on it, and record every hook in the journal.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.runDemo()
			if err != nil {
				return err
			}
			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), res)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "recorded %d events in %s\n", res.Events, res.DataDir)
			fmt.Fprintf(out, "x=%d y=%d attached=%d\n", res.X, res.Y, res.AttachedCalls)
			for _, id := range res.RootContexts {
				fmt.Fprintf(out, "  %s\n", id)
			}
			return nil
		},
	}
}

func (a *app) runDemo() (res *demoResult, err error) {
	j, err := a.openJournal()
	if err != nil {
		return nil, err
	}
	defer detachJournal(j, &err)
	before, err := j.Events(types.EventFilter{})
	if err != nil {
		return nil, sysErr(err)
	}

	reg := tree.NewRegistry(tree.WithLogger(a.logger))
	tr := action.NewTracker(reg, action.WithLogger(a.logger))
	rec := middleware.NewRecorder(j)
	tr.Use(rec)
	tr.Use(middleware.NewLogging(a.logger))

	store := reg.NewNode(types.NodeOptions{ModelID: "store"})
	if err := reg.RegisterRootStore(store); err != nil {
		return nil, err
	}
	res = &demoResult{DataDir: j.DataDir()}
	c, err := newCounter(reg, tr, "counter", func(types.Handle) func() {
		res.AttachedCalls++
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := reg.SetParent(c.node, &types.ParentPath{Parent: store, Path: "counter"}); err != nil {
		return nil, err
	}

	// Collects the top-level contexts run inside the store.
	var roots []string
	tr.Use(action.Hooks{FilterFn: func(ctx *action.Context) bool {
		if ctx.Parent == nil {
			roots = append(roots, ctx.ID)
		}
		return true
	}}, action.InSubtree(store))

	steps := []func() (any, error){
		func() (any, error) { return c.addX(1) },
		func() (any, error) { return c.addY(2) },
		func() (any, error) { return c.addXY(3, 4) },
		c.sync,
	}
	for _, step := range steps {
		if _, err := step(); err != nil {
			return nil, err
		}
	}
	if _, err := c.reset("demo"); err == nil {
		return nil, errors.AssertionFailedf("reset was expected to fail")
	}
	if err := rec.Err(); err != nil {
		return nil, sysErr(errors.Wrap(err, "recording events"))
	}

	after, err := j.Events(types.EventFilter{})
	if err != nil {
		return nil, sysErr(err)
	}
	res.Events = len(after) - len(before)
	res.RootContexts = roots
	res.X, res.Y = c.x, c.y
	return res, nil
}
