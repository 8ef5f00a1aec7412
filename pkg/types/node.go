package types

// NodeOptions describe a node when it is created by a registry.
type NodeOptions struct {
	// ModelID is the declared identifier of a model node. An empty ModelID
	// creates a plain node that takes no part in identifier lookups or root
	// store lifecycle hooks.
	ModelID string

	// OnAttachedToRootStore is called when the model node becomes part of a
	// root store tree. The returned function, if any, is called when the node
	// leaves that tree. Ignored for plain nodes.
	OnAttachedToRootStore func(store Handle) (dispose func())
}

// IsModel reports whether the options describe a model node.
func (o NodeOptions) IsModel() bool {
	return o.ModelID != ""
}
