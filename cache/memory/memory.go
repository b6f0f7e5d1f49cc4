// Package memory provides the default in-process cache.Store.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/adeilh/sentiscope/cache"
)

var _ cache.Store = (*Store)(nil)

type entry struct {
	value    []byte
	storedAt time.Time
	ttl      time.Duration
}

func (e entry) valid(now time.Time) bool {
	return now.Before(e.storedAt.Add(e.ttl))
}

// Store keeps entries in a map. Expired entries are ignored on read and
// replaced by the next Set; there is no background sweep.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	clock   clock.Clock
}

type Option func(*Store)

// WithClock swaps the time source, typically for clock.NewMock in tests.
func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{entries: make(map[string]entry), clock: clock.New()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Store) Get(_ context.Context, key string) ([]byte, time.Time, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || !e.valid(s.clock.Now()) {
		return nil, time.Time{}, cache.ErrNotFound
	}
	return e.value, e.storedAt, nil
}

// Set replaces the entry wholesale. A non-positive ttl stores nothing.
func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	s.mu.Lock()
	s.entries[key] = entry{value: value, storedAt: s.clock.Now(), ttl: ttl}
	s.mu.Unlock()
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; !ok {
		return cache.ErrNotFound
	}
	delete(s.entries, key)
	return nil
}

func (s *Store) DeletePrefix(_ context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prefix == "" {
		s.entries = make(map[string]entry)
		return nil
	}
	for k := range s.entries {
		if strings.HasPrefix(k, prefix) {
			delete(s.entries, k)
		}
	}
	return nil
}

// Len counts stored entries, stale ones included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
