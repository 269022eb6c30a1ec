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

// Element is a node of the reference host tree. It carries local property values, an
// optional local data context inherited by descendants, and named events.
type Element struct {
	mu          sync.RWMutex
	name        string
	typ         string
	root        bool
	parent      *Element
	children    []*Element
	values      map[string]any
	types       map[string]reflect.Type
	dataContext any
	hasContext  bool

	// Handler lists live outside the element so that a Subscription never points into it.
	all      *handlerList[ports.ChangeHandler]
	props    map[string]*handlerList[ports.ChangeHandler]
	events   map[string]*handlerList[ports.ChangeHandler]
	contexts *handlerList[ports.ContextHandler]
}

// NewElement creates a detached element.
func NewElement(name, typ string) *Element {
	return &Element{
		name:     name,
		typ:      typ,
		values:   make(map[string]any),
		types:    make(map[string]reflect.Type),
		all:      &handlerList[ports.ChangeHandler]{},
		props:    make(map[string]*handlerList[ports.ChangeHandler]),
		events:   make(map[string]*handlerList[ports.ChangeHandler]),
		contexts: &handlerList[ports.ContextHandler]{},
	}
}

// NewRoot creates the root element of a live tree.
func NewRoot(name, typ string) *Element {
	e := NewElement(name, typ)
	e.root = true
	return e
}

// Name returns the element name.
func (e *Element) Name() string { return e.name }

// Type returns the element type name.
func (e *Element) Type() string { return e.typ }

// Parent returns the parent element, or nil.
func (e *Element) Parent() *Element {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.parent
}

// Children returns a snapshot of the children.
func (e *Element) Children() []*Element {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.children)
}

// Live reports whether the element is attached to a root.
func (e *Element) Live() bool {
	for cur := e; cur != nil; cur = cur.Parent() {
		if cur.root {
			return true
		}
	}
	return false
}

// AddChild attaches child under e. Descendants that inherit their data context are
// notified of the new effective context.
func (e *Element) AddChild(ctx context.Context, child *Element) {
	if old := child.Parent(); old != nil {
		old.RemoveChild(ctx, child)
	}
	before := child.DataContext()

	e.mu.Lock()
	e.children = append(e.children, child)
	e.mu.Unlock()
	child.mu.Lock()
	child.parent = e
	child.mu.Unlock()

	if !domain.SameNode(before, child.DataContext()) {
		child.contextChanged(ctx)
	}
}

// RemoveChild detaches child from e.
func (e *Element) RemoveChild(ctx context.Context, child *Element) {
	before := child.DataContext()

	e.mu.Lock()
	i := slices.Index(e.children, child)
	if i < 0 {
		e.mu.Unlock()
		return
	}
	e.children = slices.Delete(e.children, i, i+1)
	e.mu.Unlock()
	child.mu.Lock()
	child.parent = nil
	child.mu.Unlock()

	if !domain.SameNode(before, child.DataContext()) {
		child.contextChanged(ctx)
	}
}

// Find returns the first element named name in the subtree rooted at e, depth first.
func (e *Element) Find(name string) *Element {
	if e.name == name {
		return e
	}
	for _, c := range e.Children() {
		if f := c.Find(name); f != nil {
			return f
		}
	}
	return nil
}

// Declare fixes the type of a property. Writes of other types are rejected.
func (e *Element) Declare(name string, t reflect.Type) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.types[name] = t
}

// PropertyType returns the declared type of a property.
func (e *Element) PropertyType(name string) (reflect.Type, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t, ok := e.types[name]
	return t, ok
}

// Value returns the local value of a property. An unset declared property reports its
// zero value.
func (e *Element) Value(name string) (any, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if v, ok := e.values[name]; ok {
		return v, true
	}
	if t, ok := e.types[name]; ok {
		return reflect.Zero(t).Interface(), true
	}
	return nil, false
}

// Values returns a snapshot of the local values.
func (e *Element) Values() map[string]any {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return maps.Clone(e.values)
}

// SetValue writes a local value and raises a change notification.
func (e *Element) SetValue(name string, value any) bool {
	return e.SetValueContext(context.Background(), name, value)
}

// SetValueContext writes a local value and raises the change notification with ctx.
// Writing domain.Unset clears the local value. A value that is not assignable to the
// declared type is rejected.
func (e *Element) SetValueContext(ctx context.Context, name string, value any) bool {
	e.mu.Lock()
	if t, ok := e.types[name]; ok && !accepts(t, value) {
		e.mu.Unlock()
		return false
	}
	if domain.IsUnset(value) {
		delete(e.values, name)
	} else {
		e.values[name] = value
	}
	e.mu.Unlock()

	e.notify(ctx, name)
	return true
}

func accepts(t reflect.Type, value any) bool {
	if domain.IsUnset(value) {
		return true
	}
	if value == nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return true
		default:
			return false
		}
	}
	return reflect.TypeOf(value).AssignableTo(t)
}

// GetProperty implements ports.PropertyGetter so view-model paths can walk into elements.
func (e *Element) GetProperty(name string) (any, bool) {
	return e.Value(name)
}

// SetProperty implements ports.PropertySetter.
func (e *Element) SetProperty(name string, value any) error {
	if !e.SetValue(name, value) {
		return domain.Annotate(domain.ErrTypeMismatch, "property", name)
	}
	return nil
}

// Subscribe implements ports.Notifier.
func (e *Element) Subscribe(h ports.ChangeHandler) ports.Subscription {
	return e.all.add(h)
}

// OnPropertyChanged attaches h to changes of one property.
func (e *Element) OnPropertyChanged(name string, h ports.ChangeHandler) ports.Subscription {
	e.mu.Lock()
	l, ok := e.props[name]
	if !ok {
		l = &handlerList[ports.ChangeHandler]{}
		e.props[name] = l
	}
	e.mu.Unlock()
	return l.add(h)
}

// OnEvent attaches h to a named event.
func (e *Element) OnEvent(event string, h ports.ChangeHandler) ports.Subscription {
	e.mu.Lock()
	l, ok := e.events[event]
	if !ok {
		l = &handlerList[ports.ChangeHandler]{}
		e.events[event] = l
	}
	e.mu.Unlock()
	return l.add(h)
}

// Raise fires a named event carrying payload.
func (e *Element) Raise(ctx context.Context, event string, payload any) {
	e.mu.RLock()
	l := e.events[event]
	e.mu.RUnlock()
	if l == nil {
		return
	}
	ev := domain.ChangeEvent{Sender: e, Property: event, Session: domain.NewSession(), Payload: payload}
	for _, h := range l.snapshot() {
		h(ctx, ev)
	}
}

// Subscribers returns the number of handlers attached to a property, including
// handlers of all properties.
func (e *Element) Subscribers(name string) int {
	e.mu.RLock()
	l := e.props[name]
	e.mu.RUnlock()
	n := e.all.len()
	if l != nil {
		n += l.len()
	}
	return n
}

func (e *Element) notify(ctx context.Context, name string) {
	e.mu.RLock()
	l := e.props[name]
	e.mu.RUnlock()

	ev := domain.ChangeEvent{Sender: e, Property: name, Session: domain.NewSession()}
	if l != nil {
		for _, h := range l.snapshot() {
			h(ctx, ev)
		}
	}
	for _, h := range e.all.snapshot() {
		h(ctx, ev)
	}
}

// DataContext returns the effective data context: the local one, or the nearest
// ancestor's.
func (e *Element) DataContext() any {
	for cur := e; cur != nil; cur = cur.Parent() {
		cur.mu.RLock()
		v, ok := cur.dataContext, cur.hasContext
		cur.mu.RUnlock()
		if ok {
			return v
		}
	}
	return nil
}

// SetDataContext sets the local data context and notifies every element whose effective
// context changed.
func (e *Element) SetDataContext(ctx context.Context, v any) {
	before := e.DataContext()
	e.mu.Lock()
	e.dataContext, e.hasContext = v, true
	e.mu.Unlock()
	if !domain.SameNode(before, v) {
		e.contextChanged(ctx)
	}
}

// ClearDataContext removes the local data context so the element inherits again.
func (e *Element) ClearDataContext(ctx context.Context) {
	before := e.DataContext()
	e.mu.Lock()
	e.dataContext, e.hasContext = nil, false
	e.mu.Unlock()
	if !domain.SameNode(before, e.DataContext()) {
		e.contextChanged(ctx)
	}
}

// OnDataContextChanged attaches h to replacements of the effective data context.
func (e *Element) OnDataContextChanged(h ports.ContextHandler) ports.Subscription {
	return e.contexts.add(h)
}

func (e *Element) contextChanged(ctx context.Context) {
	next := e.DataContext()
	for _, h := range e.contexts.snapshot() {
		h(ctx, next)
	}
	for _, c := range e.Children() {
		c.mu.RLock()
		local := c.hasContext
		c.mu.RUnlock()
		if !local {
			c.contextChanged(ctx)
		}
	}
}
