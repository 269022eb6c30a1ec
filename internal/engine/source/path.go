package source

import (
	"context"
	"reflect"

	"go.trai.ch/tether/internal/core/domain"
	"go.trai.ch/tether/internal/core/ports"
)

// pathSource tracks a view-model property path off the data context.
type pathSource struct {
	base
	path domain.PropertyPath
	root any
}

func newPathSource(term domain.SourceTerm, path domain.PropertyPath, deps Deps) *pathSource {
	return &pathSource{
		base: base{term: term, deps: deps},
		path: path,
	}
}

func (p *pathSource) GetValue(ctx context.Context, root any, wrapErrors bool) any {
	v, err := p.resolve(ctx, root)
	if err != nil {
		return domain.Wrap(err, wrapErrors)
	}
	return v
}

func (p *pathSource) GetValueAsync(ctx context.Context, root any, wrapErrors bool) any {
	return await(ctx, p.GetValue(ctx, root, wrapErrors), wrapErrors)
}

// resolve walks the chain. Intermediates are never cached since any of them may have
// been replaced; only the final read goes through the cache.
func (p *pathSource) resolve(ctx context.Context, root any) (any, error) {
	registry := p.deps.Walker.Registry()
	current := root
	last := p.path.Len() - 1
	for i, name := range p.path.Segments {
		if domain.IsNil(current) {
			return nil, nil
		}
		owner := current
		get := func() (any, error) { return registry.Get(owner, name) }

		var (
			next any
			err  error
		)
		if i == last {
			next, err = p.read(ctx, owner, name, get)
		} else {
			next, err = get()
		}
		if err != nil {
			if absent(owner, err) {
				return nil, nil
			}
			return nil, err
		}
		current = next
	}
	return current, nil
}

func (p *pathSource) Subscribe(ctx context.Context, root any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.detachLocked()
	p.root = root
	p.subscribed = true
	p.attachLocked()
}

// attachLocked watches every hop of the chain currently resolved from p.root.
func (p *pathSource) attachLocked() {
	epoch := p.epoch
	last := p.path.Len() - 1
	i := 0
	for hop := range p.deps.Walker.Walk(p.root, p.path) {
		if sub := p.watch(hop, epoch, i == last); sub != nil {
			p.subs = append(p.subs, sub)
		}
		i++
	}
}

func (p *pathSource) watch(hop domain.Hop, epoch uint64, final bool) ports.Subscription {
	handler := func(ctx context.Context, ev domain.ChangeEvent) {
		p.changed(ctx, ev, epoch, final)
	}

	if n, ok := hop.Accessor.(ports.Notifier); ok {
		name, key := hop.Name, domain.IndexKey(hop.Name)
		return n.Subscribe(func(ctx context.Context, ev domain.ChangeEvent) {
			if ev.Affects(name) || ev.Affects(key) {
				handler(ctx, ev)
			}
		})
	}
	if p.deps.Host != nil {
		if sub, err := p.deps.Host.SubscribeProperty(hop.Accessor, hop.Name, handler); err == nil {
			return sub
		}
	}
	return nil
}

func (p *pathSource) changed(ctx context.Context, ev domain.ChangeEvent, epoch uint64, final bool) {
	p.mu.Lock()
	if !p.current(epoch) {
		p.mu.Unlock()
		return
	}
	if !final {
		p.detachLocked()
		p.attachLocked()
		p.resubscribed()
	}
	p.mu.Unlock()

	p.publish(ctx, ev)
}

func (p *pathSource) Unsubscribe() {
	p.mu.Lock()
	root := p.root
	p.detachLocked()
	p.root = nil
	p.subscribed = false
	p.mu.Unlock()

	if hop, ok := p.deps.Walker.Last(root, p.path); ok {
		p.invalidate(hop.Accessor, hop.Name)
	}
}

func (p *pathSource) SetValue(_ context.Context, root any, value any) error {
	hop, ok := p.deps.Walker.Last(root, p.path)
	if !ok {
		return domain.Annotate(domain.ErrUnresolved, "path", p.path.String())
	}
	p.invalidate(hop.Accessor, hop.Name)
	if err := p.deps.Walker.Registry().Set(hop.Accessor, hop.Name, value); err != nil {
		return err
	}
	p.invalidate(hop.Accessor, hop.Name)
	return nil
}

func (p *pathSource) ValueType(root any) (reflect.Type, bool) {
	hop, ok := p.deps.Walker.Last(root, p.path)
	if !ok {
		return nil, false
	}
	return p.deps.Walker.Registry().TypeOf(hop.Accessor, hop.Name)
}
