package source

import (
	"context"
	"reflect"

	"go.trai.ch/tether/internal/core/domain"
)

// locate resolves the source node of a node reference relative to the anchor.
func locate(deps Deps, ref domain.NodeReference) (any, error) {
	notFound := domain.Annotate(domain.ErrSourceNotFound, "source", ref.Source)
	if deps.Host == nil || deps.Anchor == nil {
		return nil, notFound
	}
	anchor, ok := deps.Anchor.Value()
	if !ok {
		return nil, notFound
	}

	var node any
	switch {
	case ref.Self:
		node, ok = anchor, true
	case ref.TypeName != "":
		node, ok = deps.Host.ResolveByTypeAndDepth(anchor, ref.TypeName, ref.Depth)
	default:
		node, ok = deps.Host.ResolveByName(anchor, ref.Name)
	}
	if !ok || domain.IsNil(node) {
		return nil, notFound
	}
	return node, nil
}

// referenceSource tracks a property of a host node, optionally walking a path further
// into the property value.
type referenceSource struct {
	base
	ref   domain.NodeReference
	inner *pathSource
}

func newReferenceSource(term domain.SourceTerm, deps Deps) *referenceSource {
	r := &referenceSource{
		base: base{term: term, deps: deps},
		ref:  term.Reference(),
	}
	if !r.ref.OptionalPath.IsZero() {
		r.inner = newPathSource(term, r.ref.OptionalPath, deps)
		r.inner.OnUpdated(r.publish)
	}
	return r
}

func (r *referenceSource) property(ctx context.Context, node any) (any, error) {
	return r.read(ctx, node, r.ref.Property, func() (any, error) {
		v, ok := r.deps.Host.GetValue(node, r.ref.Property)
		if !ok {
			return nil, domain.Annotate(domain.ErrPropertyNotFound, "property", r.ref.Property)
		}
		return v, nil
	})
}

func (r *referenceSource) GetValue(ctx context.Context, _ any, wrapErrors bool) any {
	node, err := locate(r.deps, r.ref)
	if err != nil {
		return domain.Wrap(err, wrapErrors)
	}
	v, err := r.property(ctx, node)
	if err != nil {
		return domain.Wrap(err, wrapErrors)
	}
	if r.inner != nil {
		return r.inner.GetValue(ctx, v, wrapErrors)
	}
	return v
}

func (r *referenceSource) GetValueAsync(ctx context.Context, root any, wrapErrors bool) any {
	return await(ctx, r.GetValue(ctx, root, wrapErrors), wrapErrors)
}

func (r *referenceSource) Subscribe(ctx context.Context, _ any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.detachLocked()
	r.subscribed = true
	epoch := r.epoch

	node, err := locate(r.deps, r.ref)
	if err != nil {
		return
	}
	sub, err := r.deps.Host.SubscribeProperty(node, r.ref.Property, func(ctx context.Context, ev domain.ChangeEvent) {
		r.changed(ctx, ev, epoch)
	})
	if err == nil {
		r.subs = append(r.subs, sub)
	}
	r.followLocked(ctx, node)
}

// followLocked re-attaches the optional path to the current property value. r.mu must be
// held so that a concurrent Unsubscribe cannot interleave with the attach.
func (r *referenceSource) followLocked(ctx context.Context, node any) bool {
	if r.inner == nil {
		return false
	}
	v, _ := r.deps.Host.GetValue(node, r.ref.Property)
	r.inner.Subscribe(ctx, v)
	return true
}

func (r *referenceSource) changed(ctx context.Context, ev domain.ChangeEvent, epoch uint64) {
	r.mu.Lock()
	if !r.current(epoch) {
		r.mu.Unlock()
		return
	}
	followed := false
	if node, err := locate(r.deps, r.ref); err == nil {
		followed = r.followLocked(ctx, node)
	}
	r.mu.Unlock()

	if followed {
		r.resubscribed()
	}
	r.publish(ctx, ev)
}

func (r *referenceSource) Unsubscribe() {
	r.mu.Lock()
	r.detachLocked()
	r.subscribed = false
	if r.inner != nil {
		r.inner.Unsubscribe()
	}
	r.mu.Unlock()

	if node, err := locate(r.deps, r.ref); err == nil {
		r.invalidate(node, r.ref.Property)
	}
}

func (r *referenceSource) SetValue(ctx context.Context, _ any, value any) error {
	node, err := locate(r.deps, r.ref)
	if err != nil {
		return err
	}
	if r.inner != nil {
		v, _ := r.deps.Host.GetValue(node, r.ref.Property)
		return r.inner.SetValue(ctx, v, value)
	}
	r.invalidate(node, r.ref.Property)
	if !r.deps.Host.SetValue(node, r.ref.Property, value) {
		return domain.Annotate(domain.ErrSourceWriteFailed, "source", r.term.Raw())
	}
	r.invalidate(node, r.ref.Property)
	return nil
}

func (r *referenceSource) ValueType(_ any) (reflect.Type, bool) {
	node, err := locate(r.deps, r.ref)
	if err != nil {
		return nil, false
	}
	if r.inner != nil {
		v, _ := r.deps.Host.GetValue(node, r.ref.Property)
		return r.inner.ValueType(v)
	}
	return r.deps.Host.PropertyType(node, r.ref.Property)
}

// eventSource captures the most recent payload of a host node event.
type eventSource struct {
	base
	ref     domain.NodeReference
	payload any
}

func newEventSource(term domain.SourceTerm, deps Deps) *eventSource {
	return &eventSource{
		base: base{term: term, deps: deps},
		ref:  term.Reference(),
	}
}

func (e *eventSource) GetValue(_ context.Context, _ any, wrapErrors bool) any {
	if _, err := locate(e.deps, e.ref); err != nil {
		return domain.Wrap(err, wrapErrors)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.payload
}

func (e *eventSource) GetValueAsync(ctx context.Context, root any, wrapErrors bool) any {
	return await(ctx, e.GetValue(ctx, root, wrapErrors), wrapErrors)
}

func (e *eventSource) Subscribe(_ context.Context, _ any) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.detachLocked()
	e.subscribed = true
	epoch := e.epoch

	node, err := locate(e.deps, e.ref)
	if err != nil {
		return
	}
	sub, err := e.deps.Host.SubscribeEvent(node, e.ref.Property, func(ctx context.Context, ev domain.ChangeEvent) {
		e.mu.Lock()
		if !e.current(epoch) {
			e.mu.Unlock()
			return
		}
		e.payload = ev.Payload
		e.mu.Unlock()
		e.publish(ctx, ev)
	})
	if err == nil {
		e.subs = append(e.subs, sub)
	}
}

func (e *eventSource) Unsubscribe() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.detachLocked()
	e.subscribed = false
}

func (e *eventSource) SetValue(context.Context, any, any) error {
	return domain.Annotate(domain.ErrNotWritable, "source", e.term.Raw())
}

func (e *eventSource) ValueType(any) (reflect.Type, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.payload == nil {
		return nil, false
	}
	return reflect.TypeOf(e.payload), true
}

// invalidSource stands in for a term that failed to parse. It resolves to nil and never
// subscribes.
type invalidSource struct {
	base
}

func newInvalidSource(term domain.SourceTerm) *invalidSource {
	return &invalidSource{base: base{term: term}}
}

func (i *invalidSource) GetValue(context.Context, any, bool) any      { return nil }
func (i *invalidSource) GetValueAsync(context.Context, any, bool) any { return nil }
func (i *invalidSource) Subscribe(context.Context, any)               {}
func (i *invalidSource) Unsubscribe()                                 {}
func (i *invalidSource) ValueType(any) (reflect.Type, bool)           { return nil, false }

func (i *invalidSource) SetValue(context.Context, any, any) error {
	err := i.term.Err()
	if err == nil {
		err = domain.ErrInvalidPath
	}
	return err
}

var (
	_ Manager = (*pathSource)(nil)
	_ Manager = (*referenceSource)(nil)
	_ Manager = (*eventSource)(nil)
	_ Manager = (*invalidSource)(nil)
)
