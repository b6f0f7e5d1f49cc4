package cache

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("cache: key not found")

// Store represents a simple TTL-based cache abstraction that can be backed
// by memory, Redis, or any other KV store.
//
// Get returns the stored value together with the time it was written.
// Expired entries are reported as ErrNotFound.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, time.Time, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every key starting with prefix; an empty prefix
	// clears the store.
	DeletePrefix(ctx context.Context, prefix string) error
}
