package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/adeilh/sentiscope/cache"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store := NewStore(Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestStoreSetGetDelete(t *testing.T) {
	store, _ := newTestStore(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	key := "/entities?"
	value := []byte(`[{"entity_name":"Apple","entity_type":"company"}]`)

	if err := store.Set(ctx, key, value, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	payload, storedAt, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(payload) != string(value) {
		t.Fatalf("Get() = %q, want %q", payload, value)
	}
	if storedAt.IsZero() {
		t.Fatalf("expected non-zero storedAt")
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, _, err := store.Get(ctx, key); !errors.Is(err, cache.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := store.Delete(ctx, key); !errors.Is(err, cache.ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting missing key, got %v", err)
	}
}

func TestStoreTTL(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	store.WithNow(func() time.Time { return now })

	if err := store.Set(ctx, "/dashboard_stats?", []byte("{}"), 200*time.Millisecond); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, _, err := store.Get(ctx, "/dashboard_stats?"); err != nil {
		t.Fatalf("Get() before expiry error = %v", err)
	}

	// The envelope expiry is checked even if the server still holds the key.
	now = now.Add(200 * time.Millisecond)
	if _, _, err := store.Get(ctx, "/dashboard_stats?"); !errors.Is(err, cache.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after envelope expiry, got %v", err)
	}

	mr.FastForward(time.Second)
	if mr.Exists("sentiscope:/dashboard_stats?") {
		t.Fatalf("expected server-side expiry")
	}
}

func TestStoreZeroTTLIsNotStored(t *testing.T) {
	store, mr := newTestStore(t)

	if err := store.Set(context.Background(), "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if mr.Exists("sentiscope:k") {
		t.Fatalf("zero ttl should not write")
	}
}

func TestStoreDeletePrefix(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	keys := []string{
		"/articles?entity_name=Apple&limit=5",
		"/articles?limit=20",
		"/entities?",
		"/top_entities?limit=20",
	}
	for _, k := range keys {
		if err := store.Set(ctx, k, []byte("[]"), time.Minute); err != nil {
			t.Fatalf("Set(%s) error = %v", k, err)
		}
	}
	// Keys outside the namespace must survive.
	if err := mr.Set("other:/articles?x", "1"); err != nil {
		t.Fatalf("seed foreign key: %v", err)
	}

	if err := store.DeletePrefix(ctx, "/articles?"); err != nil {
		t.Fatalf("DeletePrefix() error = %v", err)
	}
	for _, k := range keys[:2] {
		if _, _, err := store.Get(ctx, k); !errors.Is(err, cache.ErrNotFound) {
			t.Fatalf("expected %s evicted, got %v", k, err)
		}
	}
	for _, k := range keys[2:] {
		if _, _, err := store.Get(ctx, k); err != nil {
			t.Fatalf("expected %s kept, got %v", k, err)
		}
	}

	if err := store.DeletePrefix(ctx, ""); err != nil {
		t.Fatalf("DeletePrefix(all) error = %v", err)
	}
	for _, k := range keys {
		if _, _, err := store.Get(ctx, k); !errors.Is(err, cache.ErrNotFound) {
			t.Fatalf("expected %s evicted, got %v", k, err)
		}
	}
	if !mr.Exists("other:/articles?x") {
		t.Fatalf("foreign key removed")
	}
}

func TestStoreCorruptEntryIsMiss(t *testing.T) {
	store, mr := newTestStore(t)

	if err := mr.Set("sentiscope:bad", "not-json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, _, err := store.Get(context.Background(), "bad"); !errors.Is(err, cache.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if mr.Exists("sentiscope:bad") {
		t.Fatalf("corrupt entry should be dropped")
	}
}

func TestStoreContextCancellation(t *testing.T) {
	store, _ := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Set(ctx, "any", []byte("value"), time.Second); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestStoreConcurrentSetGet(t *testing.T) {
	store, _ := newTestStore(t)

	const workers = 16
	const opsPerWorker = 50

	var wg sync.WaitGroup
	errCh := make(chan error, workers)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < opsPerWorker; i++ {
				key := fmt.Sprintf("/concurrent?w=%d&i=%d", worker, i)
				val := []byte(key)

				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				if err := store.Set(ctx, key, val, time.Minute); err != nil {
					errCh <- fmt.Errorf("worker %d set failed: %w", worker, err)
					cancel()
					return
				}
				payload, _, err := store.Get(ctx, key)
				cancel()
				if err != nil {
					errCh <- fmt.Errorf("worker %d get failed: %w", worker, err)
					return
				}
				if string(payload) != string(val) {
					errCh <- fmt.Errorf("worker %d mismatch: got %q want %q", worker, payload, val)
					return
				}
			}
		}(w)
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		t.Errorf("concurrent op failed: %v", err)
	}
}

func TestEscapeGlob(t *testing.T) {
	got := escapeGlob("/a?b*[c]\\")
	want := `/a\?b\*\[c\]\\`
	if got != want {
		t.Fatalf("escapeGlob() = %q, want %q", got, want)
	}
}
