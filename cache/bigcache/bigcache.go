// Package bigcache backs cache.Store with allegro/bigcache, bounding the
// memory spent on cached responses.
package bigcache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/adeilh/sentiscope/cache"
)

var _ cache.Store = (*Store)(nil)

// Options sizes the underlying bigcache instance.
type Options struct {
	// MaxSizeMB caps memory use; 0 leaves bigcache unbounded.
	MaxSizeMB int
	// LifeWindow is bigcache's own eviction horizon. Entries written with a
	// longer TTL are still dropped once it passes; Set warns about them.
	// Per-entry expiry is enforced on read.
	LifeWindow time.Duration
	// MaxEntrySize is a sizing hint in bytes.
	MaxEntrySize int
	Clock        clock.Clock
	Logger       *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.LifeWindow <= 0 {
		o.LifeWindow = time.Hour
	}
	if o.MaxEntrySize <= 0 {
		o.MaxEntrySize = 1024 * 1024
	}
	if o.Clock == nil {
		o.Clock = clock.New()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

type Store struct {
	cache  *bigcache.BigCache
	clock  clock.Clock
	window time.Duration
	logger *zap.Logger
}

func NewStore(ctx context.Context, opts Options) (*Store, error) {
	o := opts.withDefaults()

	cfg := bigcache.DefaultConfig(o.LifeWindow)
	cfg.HardMaxCacheSize = o.MaxSizeMB
	cfg.MaxEntrySize = o.MaxEntrySize
	cfg.Verbose = false

	bc, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("bigcache: init: %w", err)
	}
	return &Store{cache: bc, clock: o.Clock, window: o.LifeWindow, logger: o.Logger}, nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, time.Time, error) {
	raw, err := s.cache.Get(key)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return nil, time.Time{}, cache.ErrNotFound
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("bigcache: get %s: %w", key, err)
	}

	entry, err := cache.DecodeEntry(raw)
	if err != nil {
		_ = s.cache.Delete(key)
		return nil, time.Time{}, cache.ErrNotFound
	}
	if entry.Expired(s.clock.Now()) {
		return nil, time.Time{}, cache.ErrNotFound
	}
	return entry.Data, entry.StoredAt, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if ttl > s.window {
		s.logger.Warn("ttl exceeds bigcache life window, entry will be evicted early",
			zap.String("key", key), zap.Duration("ttl", ttl), zap.Duration("life_window", s.window))
	}
	payload, err := cache.EncodeEntry(cache.NewEntry(value, s.clock.Now(), ttl))
	if err != nil {
		return err
	}
	if err := s.cache.Set(key, payload); err != nil {
		return fmt.Errorf("bigcache: set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	err := s.cache.Delete(key)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return cache.ErrNotFound
	}
	return err
}

func (s *Store) DeletePrefix(_ context.Context, prefix string) error {
	if prefix == "" {
		return s.cache.Reset()
	}

	var keys []string
	it := s.cache.Iterator()
	for it.SetNext() {
		info, err := it.Value()
		if err != nil {
			continue
		}
		if strings.HasPrefix(info.Key(), prefix) {
			keys = append(keys, info.Key())
		}
	}
	for _, k := range keys {
		if err := s.cache.Delete(k); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
			return fmt.Errorf("bigcache: delete %s: %w", k, err)
		}
	}
	return nil
}

// Len reports bigcache's entry count, stale entries included.
func (s *Store) Len() int {
	return s.cache.Len()
}

func (s *Store) Close() error {
	return s.cache.Close()
}
