package objgraph

import (
	"sync"

	"go.trai.ch/tether/internal/core/ports"
)

type handlerEntry[H any] struct {
	id uint64
	h  H
}

// handlerList is an ordered set of handlers. Handlers are always invoked from a snapshot
// so that a handler may unsubscribe itself or others while being called.
type handlerList[H any] struct {
	mu      sync.Mutex
	nextID  uint64
	entries []handlerEntry[H]
}

func (l *handlerList[H]) add(h H) ports.Subscription {
	l.mu.Lock()
	l.nextID++
	id := l.nextID
	l.entries = append(l.entries, handlerEntry[H]{id: id, h: h})
	l.mu.Unlock()

	var once sync.Once
	return ports.SubscriptionFunc(func() {
		once.Do(func() { l.remove(id) })
	})
}

func (l *handlerList[H]) remove(id uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, e := range l.entries {
		if e.id == id {
			l.entries = append(l.entries[:i:i], l.entries[i+1:]...)
			return
		}
	}
}

func (l *handlerList[H]) snapshot() []H {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]H, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.h
	}
	return out
}

func (l *handlerList[H]) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
