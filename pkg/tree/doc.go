// Package tree keeps the single-parent structure of arbor object trees.
//
// A Registry issues node handles and owns, for every live node, its parent
// path and its set of direct children. SetParent is the only operation that
// changes structure: it enforces the tree rules (no parent for root stores,
// no direct re-parenting, no cycles), rebases the per-root identifier caches
// of model nodes, fires root store attach and detach hooks, and finally
// notifies parent-path subscribers.
//
// A Registry is not safe for concurrent use. Hooks and subscribers run
// synchronously on the calling goroutine and may call back into the
// registry.
package tree
