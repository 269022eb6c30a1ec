// Package walker walks property paths against a live object graph.
package walker

import (
	"iter"

	"go.trai.ch/tether/internal/core/domain"
	"go.trai.ch/tether/internal/engine/accessor"
)

// Walker resolves the hops of a property path. It keeps no state between walks: every
// call re-resolves every intermediate because any of them may have been replaced.
type Walker struct {
	registry *accessor.Registry
}

// New creates a Walker reading through the given registry. A nil registry uses
// accessor.Default.
func New(registry *accessor.Registry) *Walker {
	if registry == nil {
		registry = accessor.Default()
	}
	return &Walker{registry: registry}
}

// Registry returns the accessor registry used by the walker.
func (w *Walker) Registry() *accessor.Registry {
	return w.registry
}

// Walk yields Hop(root, p0), Hop(root.p0, p1), ... Hop(owner, pn). The sequence stops
// early when an intermediate is nil or cannot be read.
func (w *Walker) Walk(root any, path domain.PropertyPath) iter.Seq[domain.Hop] {
	return func(yield func(domain.Hop) bool) {
		current := root
		for i, name := range path.Segments {
			if domain.IsNil(current) {
				return
			}
			if !yield(domain.Hop{Accessor: current, Name: name}) {
				return
			}
			if i == len(path.Segments)-1 {
				return
			}
			next, err := w.registry.Get(current, name)
			if err != nil {
				return
			}
			current = next
		}
	}
}

// Last returns the final hop, which owns the bound property. It reports false when the
// chain does not currently resolve to its end.
func (w *Walker) Last(root any, path domain.PropertyPath) (domain.Hop, bool) {
	var last domain.Hop
	n := 0
	for hop := range w.Walk(root, path) {
		last = hop
		n++
	}
	if n == 0 || n != path.Len() {
		return domain.Hop{}, false
	}
	return last, true
}

// Resolve walks the chain and reads the final property. A chain broken by a nil
// intermediate resolves to nil without error; a read fault on any hop is returned.
func (w *Walker) Resolve(root any, path domain.PropertyPath) (any, error) {
	current := root
	for _, name := range path.Segments {
		if domain.IsNil(current) {
			return nil, nil
		}
		next, err := w.registry.Get(current, name)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}

var defaultWalker = New(nil)

// Walk walks path with the default registry.
func Walk(root any, path domain.PropertyPath) iter.Seq[domain.Hop] {
	return defaultWalker.Walk(root, path)
}

// Last returns the final hop with the default registry.
func Last(root any, path domain.PropertyPath) (domain.Hop, bool) {
	return defaultWalker.Last(root, path)
}
