package tree

import (
	"reflect"

	"github.com/cockroachdb/errors"

	"github.com/mesh-intelligence/arbor/pkg/types"
)

// IsPrimitive reports whether v has no identity of its own: nil, booleans,
// numbers, and strings. Handles are never primitive.
func IsPrimitive(v any) bool {
	if v == nil {
		return true
	}
	if _, ok := v.(types.Handle); ok {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128,
		reflect.String:
		return true
	}
	return false
}

// SetParentValue is SetParent for values of unknown kind, such as the new
// value of a model property. Primitive values are ignored. Any other value
// must be a live Handle of this registry.
func (r *Registry) SetParentValue(value any, pp *types.ParentPath) error {
	if IsPrimitive(value) {
		return nil
	}
	switch reflect.TypeOf(value).Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return assertionf(nil, "value cannot be a function or a channel")
	}
	h, ok := value.(types.Handle)
	if !ok {
		return assertionf(types.ErrNotTweaked, "value of type %T is not ready to take a parent", value)
	}
	return r.SetParent(h, pp)
}

// SetParent moves h under the parent path pp, or detaches it when pp is nil.
//
// All checks run before any mutation, so a failed call leaves the tree as it
// was. Setting the current parent path again is a no-op. Root stores cannot
// take a parent, a node that has a parent must be detached before it can be
// attached elsewhere, and a node cannot be attached under itself or one of
// its descendants; these fail with ErrInvalidParent.
func (r *Registry) SetParent(h types.Handle, pp *types.ParentPath) error {
	rec, ok := r.records[h]
	if !ok {
		return assertionf(types.ErrNotTweaked, "%s is not ready to take a parent", h)
	}
	if pp != nil && !r.IsTweaked(pp.Parent) {
		return assertionf(types.ErrNotTweaked, "parent %s is not ready to take children", pp.Parent)
	}

	oldPath := rec.parent
	if types.ParentPathEquals(oldPath, pp) {
		return nil
	}
	if rec.rootStore {
		return errors.Wrapf(types.ErrInvalidParent, "root store %s cannot be attached to any parent", h)
	}
	if oldPath != nil && pp != nil {
		return errors.Wrapf(types.ErrInvalidParent,
			"%s cannot be assigned a new parent while it has one (%s)", h, oldPath.Parent)
	}
	if pp != nil && (pp.Parent == h || r.IsDescendant(pp.Parent, h)) {
		return errors.Wrapf(types.ErrInvalidParent, "%s cannot be attached under its own subtree", h)
	}

	oldRoot := r.Root(h)
	oldStore := r.rootStoreOf(oldRoot)

	if oldPath != nil {
		delete(r.records[oldPath.Parent].children, h)
	}
	if pp != nil {
		r.records[pp.Parent].children[h] = struct{}{}
	}
	rec.parent = pp.Clone()

	newRoot := r.Root(h)
	newStore := r.rootStoreOf(newRoot)

	r.rebaseIDs(h, oldRoot, newRoot)

	if oldStore != newStore {
		if oldStore != types.NoHandle {
			r.detachFromRootStore(h)
		}
		if newStore != types.NoHandle {
			r.attachToRootStore(newStore, h)
		}
	}

	r.logger.Debug("parent changed", "node", h, "old_root", oldRoot, "new_root", newRoot)
	r.reportParentPathChanged(h)
	return nil
}

// assertionf builds a precondition failure marked with ErrAssertion and, when
// given, an additional sentinel.
func assertionf(mark error, format string, args ...any) error {
	err := errors.Mark(errors.AssertionFailedf(format, args...), types.ErrAssertion)
	if mark != nil {
		err = errors.Mark(err, mark)
	}
	return err
}
