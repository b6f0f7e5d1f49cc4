package fetcher

import (
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/adeilh/sentiscope/cache"
)

// Defaults used when no Option overrides them.
const (
	DefaultCacheTime  = 5 * time.Minute
	DefaultRetries    = 3
	DefaultRetryDelay = time.Second
)

type options struct {
	cacheTime      time.Duration
	retries        int
	retryDelay     time.Duration
	attemptTimeout time.Duration
	retryPolicy    RetryPolicy
	store          cache.Store
	clock          clock.Clock
	logger         *zap.Logger
	shared         bool
}

func defaultOptions() options {
	return options{
		cacheTime:   DefaultCacheTime,
		retries:     DefaultRetries,
		retryDelay:  DefaultRetryDelay,
		retryPolicy: DefaultRetryPolicy,
		clock:       clock.New(),
		logger:      zap.NewNop(),
	}
}

// Option configures a Fetcher.
type Option func(*options)

// WithCacheTime sets the freshness window of stored responses.
func WithCacheTime(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.cacheTime = d
		}
	}
}

// WithRetries sets how many times a failed attempt is repeated. Zero
// disables retries.
func WithRetries(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.retries = n
		}
	}
}

// WithRetryDelay sets the backoff unit; retry k waits k*d.
func WithRetryDelay(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.retryDelay = d
		}
	}
}

// WithAttemptTimeout bounds every single upstream attempt. Zero means no
// per-attempt deadline.
func WithAttemptTimeout(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.attemptTimeout = d
		}
	}
}

// WithRetryPolicy decides which failed attempts are repeated. The default is
// DefaultRetryPolicy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(o *options) {
		if p != nil {
			o.retryPolicy = p
		}
	}
}

// WithStore replaces the default in-memory store.
func WithStore(s cache.Store) Option {
	return func(o *options) {
		if s != nil {
			o.store = s
		}
	}
}

// WithClock sets the time source of the default in-memory store.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger sets the logger for retries, failures and cache errors.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSharedRequests makes concurrent callers for the same key wait on one
// upstream request instead of superseding each other. The request runs to
// completion even if the caller that started it goes away; each caller still
// stops waiting when its own context ends. CancelRequests aborts shared
// requests too.
func WithSharedRequests() Option {
	return func(o *options) { o.shared = true }
}

type fetchOptions struct {
	skipCache bool
	ttl       time.Duration
}

// FetchOption tunes a single Fetch call.
type FetchOption func(*fetchOptions)

// SkipCache bypasses the freshness check. The response is still stored and
// the call still supersedes any in-flight request for the same key.
func SkipCache() FetchOption {
	return func(o *fetchOptions) { o.skipCache = true }
}

// CacheFor overrides the freshness window for the stored response. Stores
// with their own eviction horizon, like bigcache's life window, may drop the
// entry earlier.
func CacheFor(d time.Duration) FetchOption {
	return func(o *fetchOptions) {
		if d > 0 {
			o.ttl = d
		}
	}
}
