package ports

import (
	"context"
	"reflect"

	"go.trai.ch/tether/internal/core/domain"
)

// Capabilities implemented by graph objects (view models, converters, filters). The
// engine discovers them with interface assertions.

// Notifier is implemented by graph objects that raise property change notifications.
type Notifier interface {
	// Subscribe attaches h to every property change of the object.
	Subscribe(h ChangeHandler) Subscription
}

// PropertyGetter is implemented by dynamic objects that resolve properties by name.
type PropertyGetter interface {
	GetProperty(name string) (any, bool)
}

// PropertySetter is implemented by dynamic objects that accept property writes by name.
type PropertySetter interface {
	SetProperty(name string, value any) error
}

// PropertyTyper is implemented by dynamic objects that declare property types.
type PropertyTyper interface {
	PropertyType(name string) (reflect.Type, bool)
}

// Converter transforms N source values into one target value.
type Converter interface {
	Convert(values []any, targetType reflect.Type, parameter any) (any, error)
}

// BackConverter decomposes a target value into one value per source.
type BackConverter interface {
	ConvertBack(value any, sourceTypes []reflect.Type, parameter any) ([]any, error)
}

// AsyncConverter is a forward converter that may suspend.
type AsyncConverter interface {
	ConvertAsync(ctx context.Context, values []any, targetType reflect.Type, parameter any) (any, error)
}

// NotificationFilter intercepts every write of a binding.
type NotificationFilter interface {
	// BeforeUpdate runs before the write; setting n.Handled vetoes it.
	BeforeUpdate(ctx context.Context, n *domain.Notification)
	// AfterUpdate runs after the write completed. It is informational.
	AfterUpdate(ctx context.Context, n *domain.Notification)
}

// AsyncNotificationFilter is a pre-write filter that may suspend.
type AsyncNotificationFilter interface {
	BeforeUpdateAsync(ctx context.Context, n *domain.Notification) error
}

// Observer receives every value a binding committed to its target or sources.
type Observer interface {
	OnUpdated(ctx context.Context, n domain.Notification)
}
