// Package objgraph is the in-memory reference host: a tree of named elements with typed
// properties, inherited data contexts and events, plus dynamic notifying view models.
package objgraph

import (
	"context"
	"maps"
	"reflect"
	"slices"

	"go.trai.ch/tether/internal/core/domain"
)

// Build creates a live tree from a scene description. Property types are declared from
// the initial values.
func Build(scene domain.SceneNode) *Element {
	root := NewRoot(scene.Name, scene.Type)
	populate(root, scene)
	return root
}

func populate(e *Element, scene domain.SceneNode) {
	ctx := context.Background()
	for _, name := range slices.Sorted(maps.Keys(scene.Properties)) {
		v := ToValue(scene.Properties[name])
		if v != nil {
			e.Declare(name, reflect.TypeOf(v))
		}
		e.SetValueContext(ctx, name, v)
	}
	if scene.DataContext != nil {
		e.SetDataContext(ctx, ToValue(scene.DataContext))
	}
	for _, child := range scene.Children {
		c := NewElement(child.Name, child.Type)
		populate(c, child)
		e.AddChild(ctx, c)
	}
}
