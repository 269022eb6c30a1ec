package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"go.trai.ch/tether/internal/adapters/objgraph" //nolint:depguard // Values are rendered plain
	"go.trai.ch/tether/internal/core/domain"
	"go.trai.ch/tether/internal/core/ports"
)

// printer writes every committed update as one line.
type printer struct {
	mu  sync.Mutex
	out io.Writer
}

// line returns the observer of one binding.
func (p *printer) line(id string) ports.Observer {
	return observerFunc(func(_ context.Context, n domain.Notification) {
		p.mu.Lock()
		defer p.mu.Unlock()

		if n.Direction == domain.ToSource {
			_, _ = fmt.Fprintf(p.out, "%s <- %v\n", id, objgraph.Plain(n.Values))
			return
		}
		_, _ = fmt.Fprintf(p.out, "%s = %v\n", id, objgraph.Plain(n.Value))
	})
}

type observerFunc func(ctx context.Context, n domain.Notification)

func (f observerFunc) OnUpdated(ctx context.Context, n domain.Notification) { f(ctx, n) }

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
