package domain

// SceneNode describes one node of a scene document.
type SceneNode struct {
	// Name locates the node for node references and binding declarations.
	Name string
	// Type is matched by `Type/Depth` node references.
	Type string
	// Properties are the initial local property values.
	Properties map[string]any
	// DataContext is the local data context, or nil to inherit the parent's.
	DataContext any
	// Children are attached in order.
	Children []SceneNode
}

// BindingDecl is a binding declared in a binding document.
type BindingDecl struct {
	// ID names the binding in reports.
	ID string
	// Node is the name of the target node in the scene.
	Node string
	// Spec is the parsed binding.
	Spec BindingSpec
}
