package objgraph

import (
	"context"
	"reflect"

	"go.trai.ch/tether/internal/core/domain"
	"go.trai.ch/tether/internal/core/ports"
)

var _ ports.Host = (*Host)(nil)

// Host implements ports.Host over Element trees.
type Host struct{}

// NewHost creates a Host.
func NewHost() *Host {
	return &Host{}
}

func element(node any) (*Element, bool) {
	e, ok := node.(*Element)
	return e, ok && e != nil
}

// GetValue implements ports.PropertyHost.
func (h *Host) GetValue(node any, name string) (any, bool) {
	e, ok := element(node)
	if !ok {
		return nil, false
	}
	return e.Value(name)
}

// SetValue implements ports.PropertyHost.
func (h *Host) SetValue(node any, name string, value any) bool {
	e, ok := element(node)
	if !ok {
		return false
	}
	return e.SetValue(name, value)
}

// PropertyType implements ports.PropertyHost. Undeclared properties report the type of
// their current value.
func (h *Host) PropertyType(node any, name string) (reflect.Type, bool) {
	e, ok := element(node)
	if !ok {
		return nil, false
	}
	if t, ok := e.PropertyType(name); ok {
		return t, true
	}
	if v, ok := e.Value(name); ok && v != nil {
		return reflect.TypeOf(v), true
	}
	return nil, false
}

// SubscribeProperty implements ports.ChangeSubscriber.
func (h *Host) SubscribeProperty(node any, name string, handler ports.ChangeHandler) (ports.Subscription, error) {
	e, ok := element(node)
	if !ok {
		return nil, domain.Annotate(domain.ErrUnresolved, "property", name)
	}
	return e.OnPropertyChanged(name, handler), nil
}

// SubscribeEvent implements ports.ChangeSubscriber.
func (h *Host) SubscribeEvent(node any, event string, handler ports.ChangeHandler) (ports.Subscription, error) {
	e, ok := element(node)
	if !ok {
		return nil, domain.Annotate(domain.ErrUnresolved, "event", event)
	}
	return e.OnEvent(event, handler), nil
}

// ResolveByTypeAndDepth implements ports.TreeResolver. The search starts at the parent of
// node; depth 1 is the nearest matching ancestor.
func (h *Host) ResolveByTypeAndDepth(node any, typeName string, depth int) (any, bool) {
	e, ok := element(node)
	if !ok || depth < 1 {
		return nil, false
	}
	seen := 0
	for cur := e.Parent(); cur != nil; cur = cur.Parent() {
		if cur.Type() != typeName {
			continue
		}
		seen++
		if seen == depth {
			return cur, true
		}
	}
	return nil, false
}

// ResolveByName implements ports.TreeResolver. Each ancestor, starting with node itself,
// is searched depth first until one contains the name.
func (h *Host) ResolveByName(node any, name string) (any, bool) {
	e, ok := element(node)
	if !ok {
		return nil, false
	}
	for cur := e; cur != nil; cur = cur.Parent() {
		if found := cur.Find(name); found != nil {
			return found, true
		}
	}
	return nil, false
}

// DataContext implements ports.ContextProvider.
func (h *Host) DataContext(node any) any {
	e, ok := element(node)
	if !ok {
		return nil
	}
	return e.DataContext()
}

// OnDataContextChanged implements ports.ContextProvider.
func (h *Host) OnDataContextChanged(node any, handler ports.ContextHandler) ports.Subscription {
	e, ok := element(node)
	if !ok {
		return ports.SubscriptionFunc(nil)
	}
	return e.OnDataContextChanged(handler)
}

// Ref implements ports.Host with a weak pointer.
func (h *Host) Ref(node any) domain.NodeRef {
	e, ok := element(node)
	if !ok {
		return deadRef{}
	}
	return domain.WeakRef(e)
}

// IsLive implements ports.Host.
func (h *Host) IsLive(node any) bool {
	e, ok := element(node)
	return ok && e.Live()
}

type deadRef struct{}

func (deadRef) Value() (any, bool) { return nil, false }

// Reconcile applies the edits between two versions of a scene onto a live tree.
// Elements are matched by name. Only values that differ between prev and next are
// written, so values the engine wrote since prev was loaded are kept. Data contexts are
// merged so that existing subscriptions keep tracking them. It returns the number of
// notifications raised.
func Reconcile(ctx context.Context, root *Element, prev, next domain.SceneNode) int {
	e := root.Find(next.Name)
	if e == nil {
		return 0
	}
	changed := 0
	for name, v := range next.Properties {
		if old, ok := prev.Properties[name]; ok && reflect.DeepEqual(old, v) {
			continue
		}
		if current, ok := e.Value(name); ok && reflect.DeepEqual(Plain(current), Plain(v)) {
			continue
		}
		if e.SetValueContext(ctx, name, ToValue(v)) {
			changed++
		}
	}
	if next.DataContext != nil && !reflect.DeepEqual(prev.DataContext, next.DataContext) {
		e.mu.RLock()
		current, local := e.dataContext, e.hasContext
		e.mu.RUnlock()
		obj, isObj := current.(*Object)
		m, isMap := next.DataContext.(map[string]any)
		switch {
		case local && isObj && isMap:
			changed += obj.Merge(ctx, m)
		case !local || !reflect.DeepEqual(Plain(current), Plain(next.DataContext)):
			e.SetDataContext(ctx, ToValue(next.DataContext))
			changed++
		}
	}
	for _, child := range next.Children {
		changed += Reconcile(ctx, e, childNamed(prev.Children, child.Name), child)
	}
	return changed
}

func childNamed(children []domain.SceneNode, name string) domain.SceneNode {
	for _, c := range children {
		if c.Name == name {
			return c
		}
	}
	return domain.SceneNode{}
}
