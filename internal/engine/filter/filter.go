// Package filter resolves and invokes the notification filters of a binding.
package filter

import (
	"context"
	"fmt"

	"go.trai.ch/tether/internal/core/domain"
	"go.trai.ch/tether/internal/core/ports"
	"go.trai.ch/tether/internal/engine/capability"
	"go.trai.ch/tether/internal/engine/walker"
	"go.trai.ch/zerr"
)

// Funcs adapts a pair of functions to ports.NotificationFilter. Either may be nil.
type Funcs struct {
	Before func(ctx context.Context, n *domain.Notification)
	After  func(ctx context.Context, n *domain.Notification)
}

// BeforeUpdate implements ports.NotificationFilter.
func (f Funcs) BeforeUpdate(ctx context.Context, n *domain.Notification) {
	if f.Before != nil {
		f.Before(ctx, n)
	}
}

// AfterUpdate implements ports.NotificationFilter.
func (f Funcs) AfterUpdate(ctx context.Context, n *domain.Notification) {
	if f.After != nil {
		f.After(ctx, n)
	}
}

// ReadOnly vetoes every update that writes back to the sources.
type ReadOnly struct{}

// BeforeUpdate implements ports.NotificationFilter.
func (ReadOnly) BeforeUpdate(_ context.Context, n *domain.Notification) {
	if n.Direction == domain.ToSource {
		n.Handled = true
	}
}

// AfterUpdate implements ports.NotificationFilter.
func (ReadOnly) AfterUpdate(context.Context, *domain.Notification) {}

// Builtins returns a registry holding the built-in filters.
func Builtins() *capability.Registry {
	r := capability.NewRegistry()
	r.Register("readonly", ReadOnly{})
	return r
}

// Filter is a resolved notification filter. The zero Filter never handles an update.
type Filter struct {
	name  string
	sync  ports.NotificationFilter
	async ports.AsyncNotificationFilter
}

// New builds a Filter from an object implementing either filter capability.
func New(f any) (Filter, bool) {
	out := Filter{name: fmt.Sprintf("%T", f)}
	out.sync, _ = f.(ports.NotificationFilter)
	out.async, _ = f.(ports.AsyncNotificationFilter)
	return out, out.Present()
}

// Resolve finds the filter for ref through the capability tiers.
func Resolve(ref domain.Ref, registry *capability.Registry, w *walker.Walker, dataContext any) (Filter, bool) {
	found, ok := capability.Find(ref, registry, w, dataContext, isFilter)
	if !ok {
		return Filter{}, false
	}
	f, ok := New(found.Item)
	f.name = found.Name
	return f, ok
}

func isFilter(v any) bool {
	switch v.(type) {
	case ports.NotificationFilter, ports.AsyncNotificationFilter:
		return true
	default:
		return false
	}
}

// Present reports whether a filter was resolved.
func (f Filter) Present() bool {
	return f.sync != nil || f.async != nil
}

// IsAsync reports whether the pre-write hook may suspend.
func (f Filter) IsAsync() bool {
	return f.async != nil
}

// Name identifies the filter in logs.
func (f Filter) Name() string {
	return f.name
}

// Before runs the synchronous pre-write hook. A failing filter leaves n unhandled and
// reports the failure.
func (f Filter) Before(ctx context.Context, n *domain.Notification) (err error) {
	if f.sync == nil {
		return nil
	}
	defer f.recover(n, &err)
	f.sync.BeforeUpdate(ctx, n)
	return nil
}

// BeforeAsync runs the async pre-write hook when there is one, then the synchronous one.
func (f Filter) BeforeAsync(ctx context.Context, n *domain.Notification) (err error) {
	if f.async != nil {
		defer f.recover(n, &err)
		if err := f.async.BeforeUpdateAsync(ctx, n); err != nil {
			n.Handled = false
			return zerr.With(domain.Because(domain.ErrFilterFailed, err), "filter", f.name)
		}
		if n.Handled {
			return nil
		}
	}
	return f.Before(ctx, n)
}

// After runs the post-write hook. Changes to n are ignored.
func (f Filter) After(ctx context.Context, n domain.Notification) (err error) {
	if f.sync == nil {
		return nil
	}
	defer f.recover(&n, &err)
	f.sync.AfterUpdate(ctx, &n)
	return nil
}

func (f Filter) recover(n *domain.Notification, err *error) {
	if r := recover(); r != nil {
		n.Handled = false
		*err = zerr.With(domain.Annotate(domain.ErrFilterFailed, "filter", f.name), "panic", fmt.Sprint(r))
	}
}
