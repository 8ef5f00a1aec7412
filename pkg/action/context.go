package action

import (
	"strings"

	"github.com/mesh-intelligence/arbor/pkg/types"
)

// Context describes one intercepted call.
type Context struct {
	// ID is a UUID v7 unique to this call.
	ID string
	// Name is the action name, Target the node it runs on.
	Name   string
	Target types.Handle
	Args   []any
	// Parent is the context that was running when this one started, nil for
	// top-level calls.
	Parent *Context
	// Async is set for calls started with RunFlow.
	Async bool
	// Data is scratch space for middleware to correlate hooks of the same
	// call. Use unexported key types to avoid collisions.
	Data map[any]any

	state State
}

func newContext(id, name string, target types.Handle, args []any, parent *Context, async bool) *Context {
	return &Context{
		ID:     id,
		Name:   name,
		Target: target,
		Args:   args,
		Parent: parent,
		Async:  async,
		Data:   make(map[any]any),
	}
}

// State returns the lifecycle state of the context.
func (c *Context) State() State {
	return c.state
}

// Root returns the top-level context of the call tree c belongs to.
func (c *Context) Root() *Context {
	for c.Parent != nil {
		c = c.Parent
	}
	return c
}

// Depth is 0 for top-level contexts and grows by one per nesting level.
func (c *Context) Depth() int {
	d := 0
	for p := c.Parent; p != nil; p = p.Parent {
		d++
	}
	return d
}

// String renders the names along the call path, outermost first, as in
// "addXY > addX".
func (c *Context) String() string {
	names := make([]string, c.Depth()+1)
	i := len(names) - 1
	for cur := c; cur != nil; cur = cur.Parent {
		names[i] = cur.Name
		i--
	}
	return strings.Join(names, " > ")
}
