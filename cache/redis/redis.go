package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/adeilh/sentiscope/cache"
)

var _ cache.Store = (*Store)(nil)

// Store implements cache.Store on top of a Redis (or KeyDB) server.
type Store struct {
	opts   Options
	client *goredis.Client
	now    func() time.Time
}

// NewStore returns a Store for opts. It does not connect; call Ping to check
// the server is reachable.
func NewStore(opts Options) *Store {
	opts = opts.normalized()
	return &Store{opts: opts, client: goredis.NewClient(opts.client()), now: time.Now}
}

// WithNow overrides the wall clock used to stamp entries.
func (s *Store) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: ping %s: %w", s.opts.Addr, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, time.Time{}, err
	}

	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, time.Time{}, cache.ErrNotFound
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("redis: GET %s: %w", key, err)
	}

	entry, err := cache.DecodeEntry(raw)
	if err != nil {
		_ = s.client.Del(ctx, s.key(key)).Err()
		return nil, time.Time{}, cache.ErrNotFound
	}
	if entry.Expired(s.now()) {
		return nil, time.Time{}, cache.ErrNotFound
	}
	return entry.Data, entry.StoredAt, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl <= 0 {
		return nil
	}

	payload, err := cache.EncodeEntry(cache.NewEntry(value, s.now(), ttl))
	if err != nil {
		return err
	}
	if ttl < time.Millisecond {
		ttl = time.Millisecond
	}
	if err := s.client.Set(ctx, s.key(key), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis: SET %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n, err := s.client.Del(ctx, s.key(key)).Result()
	if err != nil {
		return fmt.Errorf("redis: DEL %s: %w", key, err)
	}
	if n == 0 {
		return cache.ErrNotFound
	}
	return nil
}

func (s *Store) DeletePrefix(ctx context.Context, prefix string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	match := escapeGlob(s.key(prefix)) + "*"
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, match, s.opts.ScanCount).Result()
		if err != nil {
			return fmt.Errorf("redis: SCAN %s: %w", match, err)
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis: DEL batch: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (s *Store) key(k string) string {
	return s.opts.Namespace + k
}

// escapeGlob quotes the characters SCAN MATCH treats as pattern syntax.
// Cache keys carry '?' between path and query.
func escapeGlob(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
