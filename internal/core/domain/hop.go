package domain

import (
	"reflect"
	"weak"
)

// Hop is one step of a walked property chain: the object that owns the property and the
// property name. Hops are produced fresh on every walk and are never retained past the
// call that produced them.
type Hop struct {
	Accessor any
	Name     string
}

// NodeRef is a non-owning handle to a host node. Value reports false once the host has
// released the node.
type NodeRef interface {
	Value() (any, bool)
}

type weakRef[T any] struct {
	p weak.Pointer[T]
}

func (r weakRef[T]) Value() (any, bool) {
	v := r.p.Value()
	if v == nil {
		return nil, false
	}
	return v, true
}

// WeakRef returns a NodeRef that does not keep p alive.
func WeakRef[T any](p *T) NodeRef {
	return weakRef[T]{p: weak.Make(p)}
}

// Identity returns a comparable identity for a node without holding a reference to it.
// Pointer-shaped values use their address; other values have no stable identity and
// report false.
func Identity(v any) (uintptr, bool) {
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		if rv.IsNil() {
			return 0, false
		}
		return rv.Pointer(), true
	case reflect.Slice:
		if rv.IsNil() {
			return 0, false
		}
		return rv.Pointer(), true
	default:
		return 0, false
	}
}

// IsNil reports whether v is nil or a typed nil pointer, map, slice, interface, chan or func.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan, reflect.Func:
		return rv.IsNil()
	default:
		return false
	}
}

// SameNode reports whether a and b denote the same node.
func SameNode(a, b any) bool {
	ia, okA := Identity(a)
	ib, okB := Identity(b)
	if okA && okB {
		return ia == ib
	}
	if okA != okB {
		return false
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if !reflect.TypeOf(a).Comparable() || !reflect.TypeOf(b).Comparable() {
		return false
	}
	return a == b
}
