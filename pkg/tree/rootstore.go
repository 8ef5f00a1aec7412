package tree

import (
	"github.com/cockroachdb/errors"

	"github.com/mesh-intelligence/arbor/pkg/types"
)

// RegisterRootStore marks the root node h as a root store and attaches its
// whole tree to it. Registering an existing root store is a no-op.
func (r *Registry) RegisterRootStore(h types.Handle) error {
	rec, ok := r.records[h]
	if !ok {
		return assertionf(types.ErrNotTweaked, "%s is not ready to become a root store", h)
	}
	if rec.rootStore {
		return nil
	}
	if rec.parent != nil {
		return errors.Wrapf(types.ErrNotRoot, "%s has a parent and cannot become a root store", h)
	}
	rec.rootStore = true
	r.logger.Debug("root store registered", "store", h)
	r.attachToRootStore(h, h)
	return nil
}

// UnregisterRootStore removes the root store mark from h and detaches its
// tree. Unregistering a node that is not a root store is a no-op.
func (r *Registry) UnregisterRootStore(h types.Handle) {
	rec, ok := r.records[h]
	if !ok || !rec.rootStore {
		return
	}
	rec.rootStore = false
	r.logger.Debug("root store unregistered", "store", h)
	r.detachFromRootStore(h)
}

// IsRootStore reports whether h is a registered root store.
func (r *Registry) IsRootStore(h types.Handle) bool {
	rec, ok := r.records[h]
	return ok && rec.rootStore
}

// RootStore returns the root store whose tree contains h.
func (r *Registry) RootStore(h types.Handle) (types.Handle, bool) {
	if !r.IsTweaked(h) {
		return types.NoHandle, false
	}
	root := r.Root(h)
	if r.IsRootStore(root) {
		return root, true
	}
	return types.NoHandle, false
}

func (r *Registry) rootStoreOf(root types.Handle) types.Handle {
	if r.IsRootStore(root) {
		return root
	}
	return types.NoHandle
}

// attachToRootStore calls the attach hook of every model node in the subtree
// of child, parents first, and keeps the returned disposers.
func (r *Registry) attachToRootStore(store, child types.Handle) {
	var toCall []types.Handle
	r.Walk(child, func(n types.Handle) {
		if rec := r.records[n]; rec.onAttached != nil {
			toCall = append(toCall, n)
		}
	})
	for _, n := range toCall {
		rec, ok := r.records[n]
		if !ok {
			continue
		}
		if d := rec.onAttached(store); d != nil {
			rec.onDetached = d
		}
	}
}

// detachFromRootStore runs the disposers kept by attachToRootStore for the
// subtree of child, children first.
func (r *Registry) detachFromRootStore(child types.Handle) {
	var toCall []func()
	r.walk(child, false, func(n types.Handle) {
		rec := r.records[n]
		if rec.onDetached != nil {
			toCall = append(toCall, rec.onDetached)
			rec.onDetached = nil
		}
	})
	for _, d := range toCall {
		d()
	}
}
