// Package dispatch provides the execution contexts bindings marshal their updates onto.
package dispatch

import (
	"context"
	"fmt"
	"sync"

	"go.trai.ch/tether/internal/core/domain"
	"go.trai.ch/tether/internal/core/ports"
)

var (
	_ ports.EventLoop  = (*Loop)(nil)
	_ ports.Dispatcher = Immediate{}
)

type ownerKey struct{}

type task struct {
	ctx context.Context
	fn  func(ctx context.Context)
}

// Loop is a serial FIFO event loop. Continuations run one at a time on the goroutine
// that called Run. A continuation dispatched from inside the loop runs inline.
type Loop struct {
	mu     sync.Mutex
	queue  []task
	wake   chan struct{}
	logger ports.Logger
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger reports recovered panics to logger.
func WithLogger(logger ports.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// NewLoop creates an idle Loop.
func NewLoop(opts ...Option) *Loop {
	l := &Loop{wake: make(chan struct{}, 1)}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Owns reports whether ctx was handed out by this loop.
func (l *Loop) Owns(ctx context.Context) bool {
	owner, _ := ctx.Value(ownerKey{}).(*Loop)
	return owner == l
}

// Dispatch implements ports.Dispatcher. It never blocks.
func (l *Loop) Dispatch(ctx context.Context, fn func(ctx context.Context)) {
	if l.Owns(ctx) {
		l.invoke(ctx, fn)
		return
	}

	l.mu.Lock()
	l.queue = append(l.queue, task{ctx: ctx, fn: fn})
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of queued continuations.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Run executes queued continuations until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		for {
			t, ok := l.next()
			if !ok {
				break
			}
			l.invoke(context.WithValue(t.ctx, ownerKey{}, l), t.fn)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-l.wake:
		}
	}
}

// Sync blocks until every continuation queued before the call has run.
func (l *Loop) Sync(ctx context.Context) error {
	done := make(chan struct{})
	l.Dispatch(ctx, func(context.Context) { close(done) })
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) next() (task, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return task{}, false
	}
	t := l.queue[0]
	l.queue[0] = task{}
	l.queue = l.queue[1:]
	return t, true
}

func (l *Loop) invoke(ctx context.Context, fn func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil && l.logger != nil {
			l.logger.Error(domain.Annotate(domain.ErrDispatchPanic, "panic", fmt.Sprint(r)))
		}
	}()
	fn(ctx)
}

// Immediate runs every continuation inline on the calling goroutine. It suits hosts
// that already serialize their notifications.
type Immediate struct{}

// Dispatch implements ports.Dispatcher.
func (Immediate) Dispatch(ctx context.Context, fn func(ctx context.Context)) {
	fn(ctx)
}
