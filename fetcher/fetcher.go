// Package fetcher implements a cached, deduplicating, retrying GET client
// for the analytics API.
//
// For every cache key at most one request is in flight. A newer call for the
// same key aborts the older one, whose caller receives ErrSuperseded, and
// only the newest request may write the cache.
package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/adeilh/sentiscope/cache"
	"github.com/adeilh/sentiscope/cache/memory"
	"github.com/adeilh/sentiscope/internal/metrics"
)

//go:generate mockgen -source=fetcher.go -destination=mock/transport.go -package=mock

// Transport performs the raw GET. *httpx.Client satisfies it.
type Transport interface {
	GetRaw(ctx context.Context, path, rawQuery string) ([]byte, error)
}

type request struct {
	endpoint string
	cancel   context.CancelCauseFunc
}

// keyLock orders cache writes for one key. refs counts holders and waiters
// so the lock can be dropped once nobody needs it.
type keyLock struct {
	mu   sync.Mutex
	refs int
}

// Fetcher is a cached, deduplicating GET client. It is safe for concurrent
// use. f.mu guards only the maps; cache writes are serialized per key.
type Fetcher struct {
	transport Transport
	opts      options
	tracer    trace.Tracer

	flight singleflight.Group

	mu       sync.Mutex
	inflight map[string]*request
	writers  map[string]*keyLock
}

// New returns a Fetcher that issues requests through transport. Without
// WithStore it caches in memory.
func New(transport Transport, opts ...Option) *Fetcher {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.store == nil {
		o.store = memory.NewStore(memory.WithClock(o.clock))
	}
	return &Fetcher{
		transport: transport,
		opts:      o,
		tracer:    otel.Tracer("github.com/adeilh/sentiscope/fetcher"),
		inflight:  make(map[string]*request),
		writers:   make(map[string]*keyLock),
	}
}

// Fetch returns the response for endpoint and params, decoded into result.
// A nil result only validates the response.
func (f *Fetcher) Fetch(ctx context.Context, endpoint string, params Params, result any, opts ...FetchOption) error {
	body, err := f.FetchRaw(ctx, endpoint, params, opts...)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("fetch %s: decode: %w", endpoint, err)
	}
	return nil
}

// FetchRaw is Fetch without decoding. The returned slice may be shared with
// the cache and must not be modified.
func (f *Fetcher) FetchRaw(ctx context.Context, endpoint string, params Params, opts ...FetchOption) ([]byte, error) {
	var fo fetchOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&fo)
		}
	}
	if fo.ttl <= 0 {
		fo.ttl = f.opts.cacheTime
	}

	if endpoint == "" {
		return nil, ErrEmptyEndpoint
	}
	rawQuery, err := params.Encode()
	if err != nil {
		return nil, err
	}
	key := endpoint + "?" + rawQuery

	ctx, span := f.tracer.Start(ctx, "fetcher.Fetch", trace.WithAttributes(
		attribute.String("fetch.endpoint", endpoint),
		attribute.String("fetch.key", key),
		attribute.Bool("fetch.skip_cache", fo.skipCache),
	))
	defer span.End()

	metrics.RecordRequest(endpoint)

	if !fo.skipCache {
		if body, ok := f.lookup(ctx, key); ok {
			metrics.RecordCacheHit(endpoint)
			span.SetAttributes(attribute.Bool("fetch.cache_hit", true))
			return body, nil
		}
	}
	metrics.RecordCacheMiss(endpoint)
	span.SetAttributes(attribute.Bool("fetch.cache_hit", false))

	var body []byte
	if f.opts.shared {
		body, err = f.loadShared(ctx, key, endpoint, rawQuery, fo.ttl)
	} else {
		body, err = f.load(ctx, key, endpoint, rawQuery, fo.ttl)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return body, nil
}

// load performs the request for key, superseding any older one, and caches
// the response.
func (f *Fetcher) load(ctx context.Context, key, endpoint, rawQuery string, ttl time.Duration) ([]byte, error) {
	reqCtx, req := f.begin(ctx, key, endpoint)
	defer f.finish(key, req)

	body, err := f.fetchWithRetry(reqCtx, endpoint, rawQuery)
	if err == nil {
		err = f.commit(reqCtx, key, req, body, ttl)
	}
	if err != nil {
		return nil, f.resolveError(ctx, reqCtx, endpoint, err)
	}
	return body, nil
}

// loadShared joins the request already running for key, or starts one that
// outlives ctx.
func (f *Fetcher) loadShared(ctx context.Context, key, endpoint, rawQuery string, ttl time.Duration) ([]byte, error) {
	ch := f.flight.DoChan(key, func() (any, error) {
		return f.load(context.WithoutCancel(ctx), key, endpoint, rawQuery, ttl)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *Fetcher) lookup(ctx context.Context, key string) ([]byte, bool) {
	body, _, err := f.opts.store.Get(ctx, key)
	if err == nil {
		return body, true
	}
	if !errors.Is(err, cache.ErrNotFound) {
		metrics.RecordCacheError("get")
		f.opts.logger.Warn("cache lookup failed", zap.String("key", key), zap.Error(err))
	}
	return nil, false
}

// begin registers a new in-flight request for key, aborting the previous one.
func (f *Fetcher) begin(ctx context.Context, key, endpoint string) (context.Context, *request) {
	reqCtx, cancel := context.WithCancelCause(ctx)
	req := &request{endpoint: endpoint, cancel: cancel}

	f.mu.Lock()
	defer f.mu.Unlock()
	if prev, ok := f.inflight[key]; ok {
		prev.cancel(ErrSuperseded)
		metrics.RecordCancellation(endpoint, "superseded")
		f.opts.logger.Debug("superseding in-flight request", zap.String("key", key))
	}
	f.inflight[key] = req
	return reqCtx, req
}

// commit stores body if req is still the registered request for key and has
// not been cancelled. The check and the write happen under the key's write
// lock, so a successor's write always lands after this one.
func (f *Fetcher) commit(reqCtx context.Context, key string, req *request, body []byte, ttl time.Duration) error {
	unlock := f.lockKey(key)
	defer unlock()

	f.mu.Lock()
	current := f.inflight[key] == req && reqCtx.Err() == nil
	if current {
		delete(f.inflight, key)
	}
	f.mu.Unlock()

	if !current {
		if cause := context.Cause(reqCtx); cause != nil {
			return cause
		}
		return ErrSuperseded
	}
	if err := f.opts.store.Set(reqCtx, key, body, ttl); err != nil {
		metrics.RecordCacheError("set")
		f.opts.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return nil
}

// lockKey acquires the write lock for key and returns its release.
func (f *Fetcher) lockKey(key string) func() {
	f.mu.Lock()
	l, ok := f.writers[key]
	if !ok {
		l = &keyLock{}
		f.writers[key] = l
	}
	l.refs++
	f.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		f.mu.Lock()
		if l.refs--; l.refs == 0 {
			delete(f.writers, key)
		}
		f.mu.Unlock()
	}
}

func (f *Fetcher) finish(key string, req *request) {
	f.mu.Lock()
	if f.inflight[key] == req {
		delete(f.inflight, key)
	}
	f.mu.Unlock()
	req.cancel(nil)
}

// resolveError separates the caller's own cancellation, supersession and
// CancelRequests from a genuine failure.
func (f *Fetcher) resolveError(ctx, reqCtx context.Context, endpoint string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if reqCtx.Err() != nil || IsCancellation(err) {
		cause := context.Cause(reqCtx)
		if cause == nil {
			cause = err
		}
		switch {
		case errors.Is(cause, ErrSuperseded):
			return fmt.Errorf("fetch %s: %w", endpoint, ErrSuperseded)
		case errors.Is(cause, ErrCanceled):
			return fmt.Errorf("fetch %s: %w", endpoint, ErrCanceled)
		}
	}
	metrics.RecordFailure(endpoint)
	f.opts.logger.Error("fetch failed", zap.String("endpoint", endpoint), zap.Error(err))
	return fmt.Errorf("fetch %s: %w", endpoint, err)
}

// ClearCache evicts every entry whose key starts with prefix; an empty
// prefix clears everything.
func (f *Fetcher) ClearCache(ctx context.Context, prefix string) error {
	if err := f.opts.store.DeletePrefix(ctx, prefix); err != nil {
		metrics.RecordCacheError("delete")
		return fmt.Errorf("clear cache %q: %w", prefix, err)
	}
	return nil
}

// CancelRequests aborts in-flight requests whose key starts with prefix and
// returns how many were aborted. Their callers receive ErrCanceled.
func (f *Fetcher) CancelRequests(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for key, req := range f.inflight {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		req.cancel(ErrCanceled)
		delete(f.inflight, key)
		metrics.RecordCancellation(req.endpoint, "canceled")
		n++
	}
	return n
}

// InFlight returns the number of outstanding requests.
func (f *Fetcher) InFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inflight)
}
