package types

// ParentPath locates a node under its parent: the parent handle and the path
// segment (property name or index) under which the node is reachable. A nil
// *ParentPath means the node has no parent.
type ParentPath struct {
	Parent Handle `json:"parent"`
	Path   string `json:"path"`
}

// ParentPathEquals reports whether two parent paths name the same position.
// Two nil paths are equal; a nil and a non-nil path are not.
func ParentPathEquals(a, b *ParentPath) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Parent == b.Parent && a.Path == b.Path
}

// Clone returns a copy of p, or nil when p is nil.
func (p *ParentPath) Clone() *ParentPath {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}
