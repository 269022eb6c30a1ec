// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"reflect"

	"go.trai.ch/tether/internal/core/domain"
)

// ChangeHandler receives property change notifications.
type ChangeHandler func(ctx context.Context, ev domain.ChangeEvent)

// ContextHandler receives data context replacements. next is nil when the context was cleared.
type ContextHandler func(ctx context.Context, next any)

// Subscription is a handle to an attached handler.
type Subscription interface {
	// Unsubscribe detaches the handler. It is safe to call more than once.
	Unsubscribe()
}

// SubscriptionFunc adapts a function to Subscription.
type SubscriptionFunc func()

// Unsubscribe calls f.
func (f SubscriptionFunc) Unsubscribe() {
	if f != nil {
		f()
	}
}

// PropertyHost reads and writes named properties of host nodes.
type PropertyHost interface {
	// GetValue returns the current value of the property. It reports false when the node
	// has no such property.
	GetValue(node any, name string) (any, bool)
	// SetValue writes the property. Writing domain.Unset clears it. It reports false when
	// the host rejects the write.
	SetValue(node any, name string, value any) bool
	// PropertyType returns the declared type of the property.
	PropertyType(node any, name string) (reflect.Type, bool)
}

// ChangeSubscriber attaches change and event handlers to host nodes.
type ChangeSubscriber interface {
	// SubscribeProperty attaches h to changes of the named property.
	SubscribeProperty(node any, name string, h ChangeHandler) (Subscription, error)
	// SubscribeEvent attaches h to the named node event. The event payload is delivered
	// in ChangeEvent.Payload.
	SubscribeEvent(node any, event string, h ChangeHandler) (Subscription, error)
}

// TreeResolver locates nodes relative to another node.
type TreeResolver interface {
	// ResolveByTypeAndDepth returns the depth-th ancestor of node whose type is typeName.
	ResolveByTypeAndDepth(node any, typeName string, depth int) (any, bool)
	// ResolveByName returns the node named name, searched as a descendant of the nearest
	// ancestor that contains it.
	ResolveByName(node any, name string) (any, bool)
}

// ContextProvider exposes the data context of host nodes.
type ContextProvider interface {
	// DataContext returns the effective data context of node, or nil.
	DataContext(node any) any
	// OnDataContextChanged attaches h to replacements of node's effective data context.
	OnDataContextChanged(node any, h ContextHandler) Subscription
}

// Dispatcher runs continuations on the owning (UI-affinity) execution context.
type Dispatcher interface {
	// Dispatch runs fn on the owning context. If ctx already belongs to the owning
	// context, fn runs inline; otherwise it is queued.
	Dispatch(ctx context.Context, fn func(ctx context.Context))
}

// Host is the full capability contract a UI toolkit supplies to the engine.
type Host interface {
	PropertyHost
	ChangeSubscriber
	TreeResolver
	ContextProvider
	// Ref returns a non-owning handle to node.
	Ref(node any) domain.NodeRef
	// IsLive reports whether node is still part of the live graph.
	IsLive(node any) bool
}

// EventLoop is a Dispatcher that owns its execution context.
type EventLoop interface {
	Dispatcher
	// Run executes queued continuations until ctx is done.
	Run(ctx context.Context) error
	// Sync blocks until every continuation queued before the call has run.
	Sync(ctx context.Context) error
}
