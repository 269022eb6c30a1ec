// Package source implements the per-term source state managers of a binding.
//
// A Manager owns one parsed source term. It resolves the current value, keeps change
// subscriptions attached along the whole resolved chain, republishes every relevant
// change through a single handler and writes values back.
package source

import (
	"context"
	"errors"
	"reflect"
	"sync"

	"go.trai.ch/tether/internal/core/domain"
	"go.trai.ch/tether/internal/core/ports"
	"go.trai.ch/tether/internal/engine/cache"
	"go.trai.ch/tether/internal/engine/walker"
)

// UpdateHandler receives the changes a Manager republishes. The context carries the
// session of the originating notification.
type UpdateHandler func(ctx context.Context, ev domain.ChangeEvent)

// Manager owns one source term of a binding.
type Manager interface {
	// Term returns the source term.
	Term() domain.SourceTerm
	// GetValue resolves the current value against root, the binding's data context. A nil
	// result means the value is absent. A failure is returned as an error value, wrapped
	// in domain.ExceptionValue when wrapErrors is set.
	GetValue(ctx context.Context, root any, wrapErrors bool) any
	// GetValueAsync is GetValue, but awaits a domain.Awaitable result.
	GetValueAsync(ctx context.Context, root any, wrapErrors bool) any
	// Subscribe attaches change handlers along the chain resolved from root, replacing any
	// previous subscription.
	Subscribe(ctx context.Context, root any)
	// Unsubscribe detaches every handler and drops cache entries of this manager.
	Unsubscribe()
	// SetValue writes value back through the final hop.
	SetValue(ctx context.Context, root any, value any) error
	// ValueType returns the declared type of the final property.
	ValueType(root any) (reflect.Type, bool)
	// OnUpdated sets the handler receiving republished changes.
	OnUpdated(h UpdateHandler)
	// Subscribed reports whether the manager is subscribed.
	Subscribed() bool
}

// Deps are the collaborators of a Manager.
type Deps struct {
	// Host resolves node references and subscribes to host node properties.
	Host ports.Host
	// Walker resolves view-model paths. Nil uses the default registry.
	Walker *walker.Walker
	// Cache memoizes reads when Strategy is domain.CacheSimple.
	Cache *cache.Store
	// Strategy selects notification read caching.
	Strategy domain.CacheStrategy
	// Metrics records re-subscriptions. Optional.
	Metrics ports.Metrics
	// Anchor is the node that node references are resolved from, usually the target.
	Anchor domain.NodeRef
}

func (d Deps) caching() bool {
	return d.Strategy == domain.CacheSimple && d.Cache != nil
}

// New creates the Manager for term.
func New(term domain.SourceTerm, deps Deps) Manager {
	if deps.Walker == nil {
		deps.Walker = walker.New(nil)
	}
	switch term.Kind() {
	case domain.SourceViewModel:
		return newPathSource(term, term.Path(), deps)
	case domain.SourceNodeProperty:
		return newReferenceSource(term, deps)
	case domain.SourceNodeEvent:
		return newEventSource(term, deps)
	default:
		return newInvalidSource(term)
	}
}

// base holds the subscription bookkeeping shared by all managers. Every attach pass runs
// under a new epoch; handlers carrying an older epoch are ignored.
type base struct {
	mu         sync.Mutex
	term       domain.SourceTerm
	deps       Deps
	epoch      uint64
	subs       []ports.Subscription
	handler    UpdateHandler
	subscribed bool
}

func (b *base) Term() domain.SourceTerm { return b.term }

func (b *base) OnUpdated(h UpdateHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handler = h
}

func (b *base) Subscribed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.subscribed
}

// detachLocked drops every handler and starts a new epoch. b.mu must be held.
func (b *base) detachLocked() {
	for _, s := range b.subs {
		s.Unsubscribe()
	}
	b.subs = nil
	b.epoch++
}

// current reports whether epoch is still the live one. b.mu must be held.
func (b *base) current(epoch uint64) bool {
	return b.subscribed && epoch == b.epoch
}

func (b *base) publish(ctx context.Context, ev domain.ChangeEvent) {
	b.mu.Lock()
	h := b.handler
	b.mu.Unlock()

	if b.deps.caching() {
		b.deps.Cache.Prepare(ev.Session)
	}
	if h != nil {
		h(domain.WithSession(ctx, ev.Session), ev)
	}
}

func (b *base) resubscribed() {
	if b.deps.Metrics != nil {
		b.deps.Metrics.Resubscribe()
	}
}

// read reads name off node, through the cache when enabled and a session is in flight.
func (b *base) read(ctx context.Context, node any, name string, get func() (any, error)) (any, error) {
	if b.deps.caching() {
		if key, ok := cache.NewKey(node, name, domain.SessionFrom(ctx)); ok {
			return b.deps.Cache.Resolve(key, get)
		}
	}
	return get()
}

func (b *base) invalidate(node any, name string) {
	if b.deps.Cache != nil && node != nil {
		b.deps.Cache.Invalidate(node, name)
	}
}

// await resolves an asynchronous value.
func await(ctx context.Context, v any, wrapErrors bool) any {
	a, ok := v.(domain.Awaitable)
	if !ok {
		return v
	}
	r, err := a.Await(ctx)
	if err != nil {
		return domain.Wrap(err, wrapErrors)
	}
	return r
}

// absent reports whether err only says that a dynamic object lacks the property, which
// counts as "no value yet" rather than a fault.
func absent(node any, err error) bool {
	if _, dynamic := node.(ports.PropertyGetter); !dynamic {
		return false
	}
	return errors.Is(err, domain.ErrPropertyNotFound)
}
