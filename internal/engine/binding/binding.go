// Package binding implements the update orchestrator. A Binding connects one target
// property of a host node to one or more source terms and keeps them synchronized
// according to its mode.
//
// Every notification is marshaled onto the configured dispatcher before it touches the
// target. Asynchronous values are awaited off the dispatcher and committed back on it;
// a commit whose data context generation or target node is stale is discarded.
package binding

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.trai.ch/tether/internal/core/domain"
	"go.trai.ch/tether/internal/core/ports"
	"go.trai.ch/tether/internal/engine/cache"
	"go.trai.ch/tether/internal/engine/capability"
	"go.trai.ch/tether/internal/engine/source"
	"go.trai.ch/tether/internal/engine/walker"
	"go.trai.ch/zerr"
)

var sharedCache = cache.NewStore()

// Binding synchronizes a target property with its sources.
type Binding struct {
	id     uuid.UUID
	name   string
	spec   domain.BindingSpec
	target domain.NodeRef

	host       ports.Host
	dispatcher ports.Dispatcher
	logger     ports.Logger
	tracer     ports.Tracer
	metrics    ports.Metrics
	cache      *cache.Store
	walker     *walker.Walker
	converters *capability.Registry
	filters    *capability.Registry
	observers  []ports.Observer

	state  domain.StateMachine
	flight flight

	mu          sync.Mutex
	sources     []source.Manager
	dataContext any
	generation  uint64
	pushed      bool
	subs        []ports.Subscription
}

// New creates a detached binding of spec to the target node. The binding holds the
// target through a non-owning reference only. A spec without sources is rejected; every
// other problem degrades at runtime.
func New(spec domain.BindingSpec, target any, opts ...Option) (*Binding, error) {
	if len(spec.Sources) == 0 {
		return nil, domain.Annotate(domain.ErrEmptySources, "target", spec.Target)
	}

	b := &Binding{
		id:         uuid.New(),
		name:       spec.Target,
		spec:       spec,
		dispatcher: inline{},
		logger:     nopLogger{},
		tracer:     nopTracer{},
		cache:      sharedCache,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.host == nil {
		return nil, domain.Annotate(domain.ErrUnresolved, "target", spec.Target)
	}
	if b.walker == nil {
		b.walker = walker.New(nil)
	}
	b.target = b.host.Ref(target)

	deps := source.Deps{
		Host:     b.host,
		Walker:   b.walker,
		Cache:    b.cache,
		Strategy: spec.CacheStrategy,
		Metrics:  b.metrics,
		Anchor:   b.target,
	}
	b.sources = make([]source.Manager, len(spec.Sources))
	for i, term := range spec.Sources {
		m := source.New(term, deps)
		m.OnUpdated(b.sourceChanged(i))
		b.sources[i] = m
	}
	return b, nil
}

// ID returns the binding identifier.
func (b *Binding) ID() uuid.UUID { return b.id }

// Name returns the name used in logs, the target property name unless configured.
func (b *Binding) Name() string { return b.name }

// Spec returns the binding specification.
func (b *Binding) Spec() domain.BindingSpec { return b.spec }

// State returns the current re-entrancy state.
func (b *Binding) State() domain.BindingState { return b.state.Current() }

// Sources returns the source managers in declaration order.
func (b *Binding) Sources() []source.Manager { return b.sources }

// Attach installs the binding on its target: it starts tracking the target's data
// context, the target property when the mode writes back, and pushes the initial value.
func (b *Binding) Attach(ctx context.Context) error {
	node, ok := b.target.Value()
	if !ok {
		return domain.Annotate(domain.ErrTargetCollected, "binding", b.name)
	}
	if err := b.state.Transition(domain.StateDetached, domain.StateIdle); err != nil {
		return zerr.With(err, "binding", b.name)
	}

	subs := []ports.Subscription{
		b.host.OnDataContextChanged(node, func(ctx context.Context, next any) {
			b.dispatcher.Dispatch(ctx, func(ctx context.Context) {
				b.install(ctx, next)
			})
		}),
	}
	if b.spec.Mode.TracksTarget() {
		sub, err := b.host.SubscribeProperty(node, b.spec.Target, b.targetChanged)
		if err != nil {
			b.logger.Error(zerr.With(zerr.Wrap(err, "failed to track target"), "binding", b.name))
		} else {
			subs = append(subs, sub)
		}
	}

	b.mu.Lock()
	b.subs = subs
	b.pushed = false
	b.mu.Unlock()

	dc := b.host.DataContext(node)
	b.dispatcher.Dispatch(ctx, func(ctx context.Context) {
		b.install(ctx, dc)
	})
	return nil
}

// Detach tears the binding down. In-flight asynchronous updates are discarded when they
// complete. Detach is idempotent.
func (b *Binding) Detach() {
	if b.state.Detach() == domain.StateDetached {
		return
	}

	b.mu.Lock()
	subs := b.subs
	b.subs = nil
	b.generation++
	b.mu.Unlock()

	for _, s := range subs {
		s.Unsubscribe()
	}
	for _, m := range b.sources {
		m.Unsubscribe()
	}
}

// UpdateTarget pushes the current source value to the target.
func (b *Binding) UpdateTarget(ctx context.Context) {
	if !b.spec.Mode.WritesTarget() {
		return
	}
	b.dispatcher.Dispatch(ctx, func(ctx context.Context) {
		b.refreshTarget(ctx, -1)
	})
}

// UpdateSource pushes the current target value back to the sources.
func (b *Binding) UpdateSource(ctx context.Context) {
	if !b.spec.Mode.TracksTarget() {
		return
	}
	b.dispatcher.Dispatch(ctx, b.refreshSource)
}

// Value returns the current value of the target property.
func (b *Binding) Value() (any, bool) {
	node, ok := b.target.Value()
	if !ok {
		return nil, false
	}
	return b.host.GetValue(node, b.spec.Target)
}

// Wait blocks until every asynchronous update started so far has been committed or
// discarded.
func (b *Binding) Wait(ctx context.Context) error {
	return b.flight.wait(ctx)
}

// Pending returns the number of asynchronous updates in flight.
func (b *Binding) Pending() int {
	return b.flight.pending()
}

// sourceChanged returns the raw handler of source i. Changes raised while the binding
// writes its sources are echoes of that write and are dropped before dispatching.
func (b *Binding) sourceChanged(i int) source.UpdateHandler {
	return func(ctx context.Context, _ domain.ChangeEvent) {
		switch b.state.Current() {
		case domain.StateDetached, domain.StateUpdatingSource:
			return
		}
		if !b.spec.Mode.TracksSource() {
			return
		}
		b.dispatcher.Dispatch(ctx, func(ctx context.Context) {
			b.refreshTarget(ctx, i)
		})
	}
}

func (b *Binding) targetChanged(ctx context.Context, _ domain.ChangeEvent) {
	switch b.state.Current() {
	case domain.StateDetached, domain.StateUpdatingTarget:
		return
	}
	b.dispatcher.Dispatch(ctx, b.refreshSource)
}

// needsContext reports whether any source resolves against the data context.
func (b *Binding) needsContext() bool {
	for _, t := range b.spec.Sources {
		if t.Kind() == domain.SourceViewModel {
			return true
		}
	}
	return false
}

// install switches the binding to a new data context.
func (b *Binding) install(ctx context.Context, dc any) {
	if b.state.Current() == domain.StateDetached {
		return
	}

	oneTime := b.spec.Mode == domain.ModeOneTime
	b.mu.Lock()
	if oneTime {
		if b.pushed || (domain.IsNil(dc) && b.needsContext()) {
			b.mu.Unlock()
			return
		}
		b.pushed = true
	}
	b.generation++
	b.dataContext = dc
	b.mu.Unlock()

	if !oneTime {
		for _, m := range b.sources {
			m.Unsubscribe()
		}
		if b.spec.Mode.TracksSource() {
			for _, m := range b.sources {
				m.Subscribe(ctx, dc)
			}
		}
	}

	if b.spec.Mode.WritesTarget() {
		b.refreshTarget(ctx, -1)
		return
	}
	b.refreshSource(ctx)
}

// snapshot captures what an update needs. It detaches the binding when the target was
// collected.
func (b *Binding) snapshot() (node any, generation uint64, dc any, ok bool) {
	if b.state.Current() == domain.StateDetached {
		return nil, 0, nil, false
	}
	node, ok = b.target.Value()
	if !ok {
		b.collected()
		return nil, 0, nil, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return node, b.generation, b.dataContext, true
}

// current returns the target node if an update started under generation may still
// commit.
func (b *Binding) current(generation uint64) (any, bool) {
	if b.state.Current() == domain.StateDetached {
		return nil, false
	}
	b.mu.Lock()
	stale := generation != b.generation
	b.mu.Unlock()
	if stale {
		return nil, false
	}
	node, ok := b.target.Value()
	if !ok {
		b.collected()
		return nil, false
	}
	if !b.host.IsLive(node) {
		return nil, false
	}
	return node, true
}

func (b *Binding) collected() {
	b.Detach()
	b.logger.Warn(fmt.Sprintf("binding %s detached: target was collected", b.name))
}

func (b *Binding) record(direction domain.Direction, outcome ports.UpdateOutcome) {
	if b.metrics != nil {
		b.metrics.Update(direction, outcome)
	}
}
