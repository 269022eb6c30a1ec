package binding

import (
	"context"

	"go.trai.ch/tether/internal/core/ports"
	"go.trai.ch/tether/internal/engine/cache"
	"go.trai.ch/tether/internal/engine/capability"
	"go.trai.ch/tether/internal/engine/walker"
)

// Option configures a Binding.
type Option func(*Binding)

// WithHost sets the host that owns the target node. It is required.
func WithHost(host ports.Host) Option {
	return func(b *Binding) { b.host = host }
}

// WithDispatcher sets the execution context updates are marshaled onto. The default runs
// them inline.
func WithDispatcher(d ports.Dispatcher) Option {
	return func(b *Binding) { b.dispatcher = d }
}

// WithLogger reports faults to logger.
func WithLogger(logger ports.Logger) Option {
	return func(b *Binding) { b.logger = logger }
}

// WithTracer records one span per propagated update.
func WithTracer(tracer ports.Tracer) Option {
	return func(b *Binding) { b.tracer = tracer }
}

// WithMetrics records update outcomes.
func WithMetrics(metrics ports.Metrics) Option {
	return func(b *Binding) { b.metrics = metrics }
}

// WithCache sets the value cache shared between bindings.
func WithCache(store *cache.Store) Option {
	return func(b *Binding) { b.cache = store }
}

// WithWalker sets the chain walker.
func WithWalker(w *walker.Walker) Option {
	return func(b *Binding) { b.walker = w }
}

// WithConverters sets the registry converter names are looked up in.
func WithConverters(r *capability.Registry) Option {
	return func(b *Binding) { b.converters = r }
}

// WithFilters sets the registry notification filter names are looked up in.
func WithFilters(r *capability.Registry) Option {
	return func(b *Binding) { b.filters = r }
}

// WithObserver adds an observer notified after every committed update.
func WithObserver(o ports.Observer) Option {
	return func(b *Binding) { b.observers = append(b.observers, o) }
}

// WithName names the binding in logs and reports.
func WithName(name string) Option {
	return func(b *Binding) { b.name = name }
}

type inline struct{}

func (inline) Dispatch(ctx context.Context, fn func(ctx context.Context)) { fn(ctx) }

type nopLogger struct{}

func (nopLogger) Info(string) {}
func (nopLogger) Warn(string) {}
func (nopLogger) Error(error) {}

type nopTracer struct{}

func (nopTracer) Start(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
	return ctx, nopSpan{}
}

type nopSpan struct{}

func (nopSpan) End()                     {}
func (nopSpan) RecordError(error)        {}
func (nopSpan) SetAttribute(string, any) {}
