package tree

import (
	"github.com/cockroachdb/errors"

	"github.com/mesh-intelligence/arbor/pkg/types"
)

// Release removes the detached node h and its whole subtree from the
// registry. Released handles are no longer tweaked and are never reissued.
// A root store is unregistered (and its tree detached) first.
func (r *Registry) Release(h types.Handle) error {
	rec, ok := r.records[h]
	if !ok {
		return assertionf(types.ErrNotTweaked, "%s cannot be released", h)
	}
	if rec.parent != nil {
		return errors.Wrapf(types.ErrNodeAttached, "%s must be detached before release", h)
	}
	r.UnregisterRootStore(h)

	var doomed []types.Handle
	r.walk(h, false, func(n types.Handle) {
		doomed = append(doomed, n)
	})
	for _, n := range doomed {
		delete(r.records, n)
		delete(r.idCaches, n)
	}
	r.logger.Debug("subtree released", "root", h, "nodes", len(doomed))
	return nil
}
