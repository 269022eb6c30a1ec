package domain

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.trai.ch/zerr"
)

// ExceptionValue marks a resolved value as an error rather than data. It lets converters
// and the substitution policy tell a failure apart from a legitimate nil.
type ExceptionValue struct {
	Err error
}

// NewExceptionValue wraps err. A nil err is replaced with ErrUnresolved.
func NewExceptionValue(err error) ExceptionValue {
	if err == nil {
		err = ErrUnresolved
	}
	return ExceptionValue{Err: err}
}

// Error implements error so an ExceptionValue can be passed through as a failure.
func (e ExceptionValue) Error() string {
	if e.Err == nil {
		return "<nil exception>"
	}
	return e.Err.Error()
}

// Unwrap exposes the wrapped error to errors.Is and errors.As.
func (e ExceptionValue) Unwrap() error {
	return e.Err
}

// String implements fmt.Stringer.
func (e ExceptionValue) String() string {
	return fmt.Sprintf("exception(%v)", e.Err)
}

// AsException reports whether v is an ExceptionValue and returns it.
func AsException(v any) (ExceptionValue, bool) {
	switch ev := v.(type) {
	case ExceptionValue:
		return ev, true
	case *ExceptionValue:
		if ev != nil {
			return *ev, true
		}
	}
	return ExceptionValue{}, false
}

// Wrap turns a raw error value into an ExceptionValue when wrapErrors is set, and
// returns it untouched otherwise.
func Wrap(err error, wrapErrors bool) any {
	if wrapErrors {
		var ev ExceptionValue
		if errors.As(err, &ev) {
			return ev
		}
		return NewExceptionValue(err)
	}
	return err
}

// unset is the type of Unset.
type unset struct{}

func (unset) String() string { return "<unset>" }

// Unset is the intrinsic "no local value" marker. Writing it to a host property clears
// the property back to its default.
var Unset any = unset{}

// IsUnset reports whether v is the Unset marker.
func IsUnset(v any) bool {
	_, ok := v.(unset)
	return ok
}

// Awaitable is an asynchronous value. Source values and converter results implementing
// it are awaited by the async resolution path.
type Awaitable interface {
	Await(ctx context.Context) (any, error)
}

// Promise is an Awaitable backed by a goroutine.
type Promise struct {
	done  chan struct{}
	once  sync.Once
	value any
	err   error
}

// NewPromise starts fn in a new goroutine and returns a promise for its result.
// A panic in fn is captured as the promise's error.
func NewPromise(ctx context.Context, fn func(ctx context.Context) (any, error)) *Promise {
	p := &Promise{done: make(chan struct{})}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				p.resolve(nil, zerr.With(zerr.New("promise panicked"), "panic", fmt.Sprint(r)))
			}
		}()
		v, err := fn(ctx)
		p.resolve(v, err)
	}()
	return p
}

// Resolved returns an already completed promise.
func Resolved(v any, err error) *Promise {
	p := &Promise{done: make(chan struct{})}
	p.resolve(v, err)
	return p
}

func (p *Promise) resolve(v any, err error) {
	p.once.Do(func() {
		p.value, p.err = v, err
		close(p.done)
	})
}

// Await blocks until the promise completes or ctx is done.
func (p *Promise) Await(ctx context.Context) (any, error) {
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done returns a channel closed when the promise completes.
func (p *Promise) Done() <-chan struct{} {
	return p.done
}

func withPath(err error, path string) error {
	return Annotate(err, "path", path)
}
