package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FetchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentiscope_fetch_requests_total",
			Help: "Total number of fetch calls",
		},
		[]string{"endpoint"},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentiscope_cache_hits_total",
			Help: "Total number of fetch calls served from cache",
		},
		[]string{"endpoint"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentiscope_cache_misses_total",
			Help: "Total number of fetch calls that went to the network",
		},
		[]string{"endpoint"},
	)

	Attempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentiscope_upstream_attempts_total",
			Help: "Total number of upstream HTTP attempts by outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	Retries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentiscope_upstream_retries_total",
			Help: "Total number of retries scheduled after a failed attempt",
		},
		[]string{"endpoint"},
	)

	Failures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentiscope_fetch_failures_total",
			Help: "Total number of fetch calls that failed after retries",
		},
		[]string{"endpoint"},
	)

	Cancellations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentiscope_fetch_cancellations_total",
			Help: "Total number of in-flight fetches aborted",
		},
		[]string{"endpoint", "reason"},
	)

	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentiscope_cache_errors_total",
			Help: "Total number of cache store errors",
		},
		[]string{"operation"},
	)

	AttemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sentiscope_upstream_attempt_duration_seconds",
			Help:    "Duration of upstream HTTP attempts",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
)

func RecordRequest(endpoint string) {
	FetchRequests.WithLabelValues(endpoint).Inc()
}

func RecordCacheHit(endpoint string) {
	CacheHits.WithLabelValues(endpoint).Inc()
}

func RecordCacheMiss(endpoint string) {
	CacheMisses.WithLabelValues(endpoint).Inc()
}

// RecordAttempt counts one upstream attempt; outcome is "ok" or "error".
func RecordAttempt(endpoint, outcome string) {
	Attempts.WithLabelValues(endpoint, outcome).Inc()
}

func RecordRetry(endpoint string) {
	Retries.WithLabelValues(endpoint).Inc()
}

func RecordFailure(endpoint string) {
	Failures.WithLabelValues(endpoint).Inc()
}

// RecordCancellation counts an aborted fetch; reason is "superseded" or "canceled".
func RecordCancellation(endpoint, reason string) {
	Cancellations.WithLabelValues(endpoint, reason).Inc()
}

func RecordCacheError(operation string) {
	CacheErrors.WithLabelValues(operation).Inc()
}

// TimeAttempt returns a function that observes the elapsed attempt duration.
func TimeAttempt(endpoint string) func() {
	timer := prometheus.NewTimer(AttemptDuration.WithLabelValues(endpoint))
	return func() {
		timer.ObserveDuration()
	}
}
