package tree

import "github.com/mesh-intelligence/arbor/pkg/types"

type listener struct {
	fn func(types.Handle)
}

// OnParentPathChanged subscribes fn to parent-path changes. fn runs after the
// registry, identifier caches, and root store hooks are fully updated. The
// returned function removes the subscription.
func (r *Registry) OnParentPathChanged(fn func(types.Handle)) (dispose func()) {
	l := &listener{fn: fn}
	r.listeners = append(r.listeners, l)
	return func() {
		for i, cur := range r.listeners {
			if cur == l {
				r.listeners = append(r.listeners[:i:i], r.listeners[i+1:]...)
				return
			}
		}
	}
}

func (r *Registry) reportParentPathChanged(h types.Handle) {
	// Subscribers may unsubscribe while being notified.
	snapshot := append([]*listener(nil), r.listeners...)
	for _, l := range snapshot {
		l.fn(h)
	}
}
