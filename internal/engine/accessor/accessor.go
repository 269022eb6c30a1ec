// Package accessor reads and writes named properties of arbitrary graph objects.
//
// Properties are compiled once per (runtime type, name) pair and cached in a Registry.
// Dynamic objects implementing ports.PropertyGetter, ports.PropertySetter or
// ports.PropertyTyper are consulted before the compiled table.
package accessor

import (
	"fmt"
	"reflect"
	"sync"
	"unique"

	"go.trai.ch/tether/internal/core/domain"
	"go.trai.ch/tether/internal/core/ports"
	"go.trai.ch/zerr"
)

type propertyKey struct {
	typ  reflect.Type
	name unique.Handle[string]
}

// Registry caches compiled property descriptors. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	props map[propertyKey]*Property
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		props: make(map[propertyKey]*Property),
	}
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

// Len returns the number of compiled descriptors.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.props)
}

// Lookup returns the compiled descriptor for the named property of t. The first lookup
// for a pair compiles it; later lookups only take the read lock.
func (r *Registry) Lookup(t reflect.Type, name string) *Property {
	key := propertyKey{typ: t, name: unique.Make(name)}

	r.mu.RLock()
	p, ok := r.props[key]
	r.mu.RUnlock()
	if ok {
		return p
	}

	compiled := compile(t, name)

	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.props[key]; ok {
		return p
	}
	r.props[key] = compiled
	return compiled
}

// Get returns the value of the named property of node.
func (r *Registry) Get(node any, name string) (value any, err error) {
	if domain.IsNil(node) {
		return nil, domain.Annotate(domain.ErrUnresolved, "property", name)
	}
	defer recoverFault(name, &err)

	if dyn, ok := node.(ports.PropertyGetter); ok {
		key := name
		if domain.IsIndexSegment(name) {
			key = domain.IndexKey(name)
		}
		if v, found := dyn.GetProperty(key); found {
			return v, nil
		}
	}

	return r.Lookup(reflect.TypeOf(node), name).get(reflect.ValueOf(node))
}

// TryGet is Get without the failure detail.
func (r *Registry) TryGet(node any, name string) (any, bool) {
	v, err := r.Get(node, name)
	if err != nil {
		return nil, false
	}
	return v, true
}

// Set writes value to the named property of node. Writing domain.Unset resets the
// property to its zero value.
func (r *Registry) Set(node any, name string, value any) (err error) {
	if domain.IsNil(node) {
		return domain.Annotate(domain.ErrUnresolved, "property", name)
	}
	defer recoverFault(name, &err)

	if dyn, ok := node.(ports.PropertySetter); ok {
		key := name
		if domain.IsIndexSegment(name) {
			key = domain.IndexKey(name)
		}
		if err := dyn.SetProperty(key, value); err != nil {
			return zerr.With(zerr.Wrap(err, "set property failed"), "property", name)
		}
		return nil
	}

	return r.Lookup(reflect.TypeOf(node), name).set(reflect.ValueOf(node), value)
}

// TrySet is Set without the failure detail.
func (r *Registry) TrySet(node any, name string, value any) bool {
	return r.Set(node, name, value) == nil
}

// TypeOf returns the declared type of the named property of node. Dynamic objects that
// do not declare types report the type of the current value.
func (r *Registry) TypeOf(node any, name string) (reflect.Type, bool) {
	if domain.IsNil(node) {
		return nil, false
	}
	if typer, ok := node.(ports.PropertyTyper); ok {
		if t, found := typer.PropertyType(name); found {
			return t, true
		}
	}
	if p := r.Lookup(reflect.TypeOf(node), name); p.Type != nil {
		return p.Type, true
	}
	if dyn, ok := node.(ports.PropertyGetter); ok {
		if v, found := dyn.GetProperty(name); found && v != nil {
			return reflect.TypeOf(v), true
		}
	}
	return nil, false
}

// Get reads a property through the default registry.
func Get(node any, name string) (any, error) {
	return defaultRegistry.Get(node, name)
}

// Set writes a property through the default registry.
func Set(node any, name string, value any) error {
	return defaultRegistry.Set(node, name, value)
}

// TypeOf returns a property type through the default registry.
func TypeOf(node any, name string) (reflect.Type, bool) {
	return defaultRegistry.TypeOf(node, name)
}

func recoverFault(name string, err *error) {
	if r := recover(); r != nil {
		*err = zerr.With(domain.Annotate(domain.ErrAccessorFault, "property", name), "panic", fmt.Sprint(r))
	}
}
