package domain

import (
	"context"

	"github.com/google/uuid"
)

// Session identifies one change notification. Every read performed while handling that
// notification shares the session, which scopes the value cache.
type Session uuid.UUID

// NoSession is the zero session; reads outside a notification are never cached.
var NoSession Session

// NewSession mints a fresh session token.
func NewSession() Session {
	return Session(uuid.New())
}

// IsZero reports whether s is NoSession.
func (s Session) IsZero() bool {
	return s == NoSession
}

// String returns the canonical UUID form.
func (s Session) String() string {
	return uuid.UUID(s).String()
}

type sessionKey struct{}

// WithSession returns a context carrying the session of the notification being handled.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session carried by ctx, or NoSession.
func SessionFrom(ctx context.Context) Session {
	if ctx == nil {
		return NoSession
	}
	s, _ := ctx.Value(sessionKey{}).(Session)
	return s
}

// AllProperties is the property name a notifier uses to announce that every property of
// the sender may have changed.
const AllProperties = ""

// ChangeEvent is a property change notification raised by a graph object or host node.
type ChangeEvent struct {
	// Sender is the object whose property changed.
	Sender any
	// Property is the changed property name, or AllProperties.
	Property string
	// Session identifies this notification.
	Session Session
	// Payload carries an event argument for node event sources.
	Payload any
}

// Affects reports whether the event concerns the named property.
func (e ChangeEvent) Affects(name string) bool {
	return e.Property == AllProperties || e.Property == name
}

// Direction is the direction of a propagated update.
type Direction uint8

const (
	// ToTarget is a source to target update.
	ToTarget Direction = iota
	// ToSource is a target to source update.
	ToSource
)

// String returns the direction name.
func (d Direction) String() string {
	if d == ToSource {
		return "to_source"
	}
	return "to_target"
}

// Notification is passed to notification filters before and after every write.
// Setting Handled in the pre-write call vetoes the write.
type Notification struct {
	// BindingID identifies the binding.
	BindingID uuid.UUID
	// Direction of the update.
	Direction Direction
	// Target is the bound target property name.
	Target string
	// Value is the value about to be written (ToTarget) or the target value (ToSource).
	Value any
	// Values holds the per-source values: the raw source values for ToTarget, the
	// decomposed values for ToSource.
	Values []any
	// Session of the triggering notification, if any.
	Session Session
	// Handled vetoes the write when set by a pre-write filter.
	Handled bool
}
