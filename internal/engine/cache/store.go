// Package cache memoizes property reads within one change notification session.
package cache

import (
	"encoding/binary"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/tether/internal/core/domain"
	"go.trai.ch/tether/internal/core/ports"
	"golang.org/x/sync/singleflight"
)

// Key identifies a cached read. It holds the node identity only, never the node.
type Key struct {
	Node    uintptr
	Name    string
	Session domain.Session
}

// NewKey builds the key for a read of name on node within session. It reports false
// when node has no stable identity and therefore cannot be cached.
func NewKey(node any, name string, session domain.Session) (Key, bool) {
	id, ok := domain.Identity(node)
	if !ok {
		return Key{}, false
	}
	return Key{Node: id, Name: name, Session: session}, true
}

// Hash returns the xxhash digest of the key.
func (k Key) Hash() uint64 {
	var buf [8]byte
	d := xxhash.New()
	binary.LittleEndian.PutUint64(buf[:], uint64(k.Node))
	_, _ = d.Write(buf[:])
	_, _ = d.WriteString(k.Name)
	_, _ = d.Write(k.Session[:])
	return d.Sum64()
}

type entry struct {
	key   Key
	value any
}

// Store is the value cache shared by all bindings. Entries live only as long as the
// session that produced them: preparing a different session clears the store.
type Store struct {
	mu      sync.Mutex
	session domain.Session
	entries map[uint64]entry
	group   singleflight.Group
	metrics ports.Metrics
}

// Option configures a Store.
type Option func(*Store)

// WithMetrics records hits and misses.
func WithMetrics(m ports.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// NewStore creates an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{entries: make(map[uint64]entry)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Prepare must be called when a change notification arrives, before any read performed
// on its behalf. Entries of any other session are dropped. Entries of the same session
// are kept even for a different sender, since keys already include the node identity.
func (s *Store) Prepare(session domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session == s.session {
		return
	}
	clear(s.entries)
	s.session = session
}

// TryGet returns the cached value for key. It only hits inside the prepared session.
func (s *Store) TryGet(key Key) (any, bool) {
	if key.Session.IsZero() {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if key.Session != s.session {
		return nil, false
	}
	e, ok := s.entries[key.Hash()]
	if !ok || e.key != key {
		return nil, false
	}
	return e.value, true
}

// Apply stores value for key if key belongs to the prepared session.
func (s *Store) Apply(key Key, value any) {
	if key.Session.IsZero() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if key.Session != s.session {
		return
	}
	s.entries[key.Hash()] = entry{key: key, value: value}
}

// Resolve returns the cached value for key, computing and storing it on a miss.
// Concurrent misses on the same key share one computation. Failed computations are
// not cached.
func (s *Store) Resolve(key Key, compute func() (any, error)) (any, error) {
	if v, ok := s.TryGet(key); ok {
		s.record(true)
		return v, nil
	}
	s.record(false)
	if key.Session.IsZero() {
		return compute()
	}

	v, err, _ := s.group.Do(strconv.FormatUint(key.Hash(), 16), func() (any, error) {
		if v, ok := s.TryGet(key); ok {
			return v, nil
		}
		v, err := compute()
		if err != nil {
			return nil, err
		}
		s.Apply(key, v)
		return v, nil
	})
	return v, err
}

// Invalidate drops every entry for name on node.
func (s *Store) Invalidate(node any, name string) {
	id, ok := domain.Identity(node)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for h, e := range s.entries {
		if e.key.Node == id && e.key.Name == name {
			delete(s.entries, h)
		}
	}
}

// Len returns the number of live entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) record(hit bool) {
	if s.metrics != nil {
		s.metrics.CacheLookup(hit)
	}
}
