package tree

import (
	"slices"

	"github.com/mesh-intelligence/arbor/pkg/types"
)

// IDCache maps model identifiers to the model nodes currently rooted at one
// root. Duplicate identifiers under one root are the caller's responsibility:
// Set overwrites silently.
type IDCache struct {
	ids map[string]types.Handle
}

func newIDCache() *IDCache {
	return &IDCache{ids: make(map[string]types.Handle)}
}

// Get returns the node registered under id.
func (c *IDCache) Get(id string) (types.Handle, bool) {
	h, ok := c.ids[id]
	return h, ok
}

// Set registers h under id, replacing any previous entry.
func (c *IDCache) Set(id string, h types.Handle) {
	c.ids[id] = h
}

// Delete removes id. Deleting an absent id is a no-op.
func (c *IDCache) Delete(id string) {
	delete(c.ids, id)
}

// Len returns the number of cached identifiers.
func (c *IDCache) Len() int {
	return len(c.ids)
}

// IDs returns the cached identifiers in sorted order.
func (c *IDCache) IDs() []string {
	out := make([]string, 0, len(c.ids))
	for id := range c.ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// RootIDCache returns the identifier cache of root, creating it on first use.
func (r *Registry) RootIDCache(root types.Handle) *IDCache {
	c, ok := r.idCaches[root]
	if !ok {
		c = newIDCache()
		r.idCaches[root] = c
	}
	return c
}

// ResolveID looks id up in the identifier cache of the root of h.
func (r *Registry) ResolveID(h types.Handle, id string) (types.Handle, bool) {
	c, ok := r.idCaches[r.Root(h)]
	if !ok {
		return types.NoHandle, false
	}
	return c.Get(id)
}

// rebaseIDs moves the identifiers of every model node in the subtree of h
// from the cache of oldRoot to the cache of newRoot. The entry of h itself is
// always written to the new cache, even when the root did not change.
func (r *Registry) rebaseIDs(h, oldRoot, newRoot types.Handle) {
	if oldRoot == newRoot {
		if rec := r.records[h]; rec.modelID != "" {
			r.RootIDCache(newRoot).Set(rec.modelID, h)
		}
		return
	}
	oldCache := r.idCaches[oldRoot]
	newCache := r.RootIDCache(newRoot)
	r.Walk(h, func(n types.Handle) {
		rec := r.records[n]
		if rec.modelID == "" {
			return
		}
		if oldCache != nil {
			if cur, ok := oldCache.Get(rec.modelID); ok && cur == n {
				oldCache.Delete(rec.modelID)
			}
		}
		newCache.Set(rec.modelID, n)
	})
}
