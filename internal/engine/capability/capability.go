// Package capability locates the converters and notification filters a binding names.
package capability

import (
	"maps"
	"slices"
	"sync"

	"go.trai.ch/tether/internal/core/domain"
	"go.trai.ch/tether/internal/engine/walker"
)

// Registry maps names to capability instances. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	items map[string]any
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]any)}
}

// Register adds or replaces the instance registered under name.
func (r *Registry) Register(name string, item any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[name] = item
}

// Lookup returns the instance registered under name.
func (r *Registry) Lookup(name string) (any, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[name]
	return item, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.items))
}

// Found is a located capability and the tier that supplied it.
type Found struct {
	Item any
	Name string
}

// Find locates the capability named by ref. The tiers are tried in order: the explicit
// instance, the instance registered under ref.Name, the object found by walking ref.Path
// off the data context, and the data context itself. accept decides whether a candidate
// implements the wanted capability.
func Find(ref domain.Ref, registry *Registry, w *walker.Walker, dataContext any, accept func(any) bool) (Found, bool) {
	if ref.Instance != nil && accept(ref.Instance) {
		return Found{Item: ref.Instance, Name: "instance"}, true
	}
	if ref.Name != "" {
		if item, ok := registry.Lookup(ref.Name); ok && accept(item) {
			return Found{Item: item, Name: ref.Name}, true
		}
	}
	if ref.Path != "" && !domain.IsNil(dataContext) {
		if path, err := domain.ParsePath(ref.Path); err == nil {
			if w == nil {
				w = walker.New(nil)
			}
			if item, err := w.Resolve(dataContext, path); err == nil && !domain.IsNil(item) && accept(item) {
				return Found{Item: item, Name: ref.Path}, true
			}
		}
	}
	if !domain.IsNil(dataContext) && accept(dataContext) {
		return Found{Item: dataContext, Name: "data context"}, true
	}
	return Found{}, false
}
