package objgraph

import (
	"context"
	"maps"
	"reflect"
	"slices"
	"sync"

	"go.trai.ch/tether/internal/core/domain"
	"go.trai.ch/tether/internal/core/ports"
)

var (
	_ ports.Notifier       = (*Object)(nil)
	_ ports.PropertyGetter = (*Object)(nil)
	_ ports.PropertySetter = (*Object)(nil)
)

// Object is a dynamic view model: a property bag that raises a change notification for
// every write.
type Object struct {
	mu       sync.RWMutex
	values   map[string]any
	handlers *handlerList[ports.ChangeHandler]
}

// NewObject creates an Object holding a copy of values.
func NewObject(values map[string]any) *Object {
	o := &Object{
		values:   make(map[string]any, len(values)),
		handlers: &handlerList[ports.ChangeHandler]{},
	}
	maps.Copy(o.values, values)
	return o
}

// GetProperty implements ports.PropertyGetter.
func (o *Object) GetProperty(name string) (any, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	v, ok := o.values[name]
	return v, ok
}

// SetProperty implements ports.PropertySetter. Writing domain.Unset removes the property.
func (o *Object) SetProperty(name string, value any) error {
	o.SetContext(context.Background(), name, value)
	return nil
}

// Set writes a property and raises a change notification.
func (o *Object) Set(name string, value any) {
	o.SetContext(context.Background(), name, value)
}

// SetContext writes a property and raises the change notification with ctx.
func (o *Object) SetContext(ctx context.Context, name string, value any) {
	o.mu.Lock()
	if domain.IsUnset(value) {
		delete(o.values, name)
	} else {
		o.values[name] = value
	}
	o.mu.Unlock()

	o.Notify(ctx, name)
}

// Subscribe implements ports.Notifier.
func (o *Object) Subscribe(h ports.ChangeHandler) ports.Subscription {
	return o.handlers.add(h)
}

// Subscribers returns the number of attached handlers.
func (o *Object) Subscribers() int {
	return o.handlers.len()
}

// Notify raises a change notification for name under a fresh session.
func (o *Object) Notify(ctx context.Context, name string) {
	ev := domain.ChangeEvent{
		Sender:   o,
		Property: name,
		Session:  domain.NewSession(),
	}
	for _, h := range o.handlers.snapshot() {
		h(ctx, ev)
	}
}

// Keys returns the property names in sorted order.
func (o *Object) Keys() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return slices.Sorted(maps.Keys(o.values))
}

// Merge applies values onto the object. Nested maps are merged into nested objects so
// that existing subscriptions keep tracking them; every other changed value is replaced
// and notified. It returns the number of notifications raised.
func (o *Object) Merge(ctx context.Context, values map[string]any) int {
	changed := 0
	for _, name := range slices.Sorted(maps.Keys(values)) {
		next := values[name]
		current, ok := o.GetProperty(name)

		if nested, isObj := current.(*Object); ok && isObj {
			if m, isMap := next.(map[string]any); isMap {
				changed += nested.Merge(ctx, m)
				continue
			}
		}
		converted := ToValue(next)
		if ok && reflect.DeepEqual(Plain(current), Plain(converted)) {
			continue
		}
		o.SetContext(ctx, name, converted)
		changed++
	}
	return changed
}

// ToValue converts decoded document values into graph values: maps become Objects and
// slices are converted element by element.
func ToValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		converted := make(map[string]any, len(t))
		for k, e := range t {
			converted[k] = ToValue(e)
		}
		return NewObject(converted)
	case []any:
		converted := make([]any, len(t))
		for i, e := range t {
			converted[i] = ToValue(e)
		}
		return converted
	default:
		return v
	}
}

// Plain converts graph values back to plain maps and slices.
func Plain(v any) any {
	switch t := v.(type) {
	case *Object:
		t.mu.RLock()
		defer t.mu.RUnlock()
		out := make(map[string]any, len(t.values))
		for k, e := range t.values {
			out[k] = Plain(e)
		}
		return out
	case *Element:
		return "<" + t.Type() + " " + t.Name() + ">"
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Plain(e)
		}
		return out
	default:
		return v
	}
}
