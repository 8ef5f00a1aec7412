package tree

import (
	"log/slog"
	"slices"

	"github.com/cockroachdb/errors"

	"github.com/mesh-intelligence/arbor/internal/logging"
	"github.com/mesh-intelligence/arbor/pkg/types"
)

// record is the registry entry of one live node.
type record struct {
	parent   *types.ParentPath
	children map[types.Handle]struct{}

	modelID   string
	rootStore bool

	onAttached func(store types.Handle) func()
	// disposer returned by onAttached while the node is attached to a store.
	onDetached func()
}

// Registry maps every live node to its parent path and direct children.
type Registry struct {
	records  map[types.Handle]*record
	last     types.Handle
	idCaches map[types.Handle]*IDCache

	listeners []*listener
	logger    *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the structured logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		records:  make(map[types.Handle]*record),
		idCaches: make(map[types.Handle]*IDCache),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewNode registers a new root node and returns its handle. A model node
// (non-empty ModelID) starts out in the identifier cache of its own root.
func (r *Registry) NewNode(opts types.NodeOptions) types.Handle {
	r.last++
	h := r.last
	rec := &record{
		children: make(map[types.Handle]struct{}),
		modelID:  opts.ModelID,
	}
	if opts.IsModel() {
		rec.onAttached = opts.OnAttachedToRootStore
	}
	r.records[h] = rec
	if rec.modelID != "" {
		r.RootIDCache(h).Set(rec.modelID, h)
	}
	return h
}

// IsTweaked reports whether h is a live node of this registry.
func (r *Registry) IsTweaked(h types.Handle) bool {
	_, ok := r.records[h]
	return ok
}

// IsModel reports whether h is a live model node.
func (r *Registry) IsModel(h types.Handle) bool {
	rec, ok := r.records[h]
	return ok && rec.modelID != ""
}

// ModelID returns the declared identifier of a model node, or "".
func (r *Registry) ModelID(h types.Handle) string {
	if rec, ok := r.records[h]; ok {
		return rec.modelID
	}
	return ""
}

// Len returns the number of live nodes.
func (r *Registry) Len() int {
	return len(r.records)
}

// ParentPath returns a copy of the parent path of h, or nil when h is a root
// or unknown.
func (r *Registry) ParentPath(h types.Handle) *types.ParentPath {
	if rec, ok := r.records[h]; ok {
		return rec.parent.Clone()
	}
	return nil
}

// Parent returns the parent of h, or NoHandle.
func (r *Registry) Parent(h types.Handle) types.Handle {
	if rec, ok := r.records[h]; ok && rec.parent != nil {
		return rec.parent.Parent
	}
	return types.NoHandle
}

// Children returns the direct children of h in handle order. The result is
// empty for leaves and unknown handles.
func (r *Registry) Children(h types.Handle) []types.Handle {
	rec, ok := r.records[h]
	if !ok || len(rec.children) == 0 {
		return nil
	}
	out := make([]types.Handle, 0, len(rec.children))
	for c := range rec.children {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// HasChild reports whether child is currently listed under parent.
func (r *Registry) HasChild(parent, child types.Handle) bool {
	rec, ok := r.records[parent]
	if !ok {
		return false
	}
	_, ok = rec.children[child]
	return ok
}

// Root follows parent links from h until a node without a parent is found.
// The root of an unknown handle is the handle itself.
func (r *Registry) Root(h types.Handle) types.Handle {
	// SetParent rejects cycles; the bound only guards against corruption.
	for steps := 0; ; steps++ {
		if steps > len(r.records) {
			panic(errors.AssertionFailedf("cycle detected above %s", h))
		}
		rec, ok := r.records[h]
		if !ok || rec.parent == nil {
			return h
		}
		h = rec.parent.Parent
	}
}

// IsRoot reports whether h is a live node without a parent.
func (r *Registry) IsRoot(h types.Handle) bool {
	rec, ok := r.records[h]
	return ok && rec.parent == nil
}

// IsDescendant reports whether ancestor is a strict ancestor of h.
func (r *Registry) IsDescendant(h, ancestor types.Handle) bool {
	for p := r.Parent(h); p != types.NoHandle; p = r.Parent(p) {
		if p == ancestor {
			return true
		}
	}
	return false
}

// RootPath returns the path segments leading from the root of h down to h.
// It is empty for roots.
func (r *Registry) RootPath(h types.Handle) []string {
	var path []string
	for {
		rec, ok := r.records[h]
		if !ok || rec.parent == nil {
			break
		}
		path = append(path, rec.parent.Path)
		h = rec.parent.Parent
	}
	slices.Reverse(path)
	return path
}

// Walk visits h and all its descendants, parents before children, siblings in
// handle order.
func (r *Registry) Walk(h types.Handle, fn func(types.Handle)) {
	r.walk(h, true, fn)
}

func (r *Registry) walk(h types.Handle, parentFirst bool, fn func(types.Handle)) {
	if !r.IsTweaked(h) {
		return
	}
	if parentFirst {
		fn(h)
	}
	for _, c := range r.Children(h) {
		r.walk(c, parentFirst, fn)
	}
	if !parentFirst {
		fn(h)
	}
}
