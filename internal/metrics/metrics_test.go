package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHelpers(t *testing.T) {
	endpoint := "/metrics_test"

	RecordRequest(endpoint)
	RecordCacheHit(endpoint)
	RecordCacheMiss(endpoint)
	RecordAttempt(endpoint, "error")
	RecordAttempt(endpoint, "ok")
	RecordRetry(endpoint)
	RecordFailure(endpoint)
	RecordCancellation(endpoint, "superseded")

	assert.Equal(t, 1.0, testutil.ToFloat64(FetchRequests.WithLabelValues(endpoint)))
	assert.Equal(t, 1.0, testutil.ToFloat64(CacheHits.WithLabelValues(endpoint)))
	assert.Equal(t, 1.0, testutil.ToFloat64(CacheMisses.WithLabelValues(endpoint)))
	assert.Equal(t, 1.0, testutil.ToFloat64(Attempts.WithLabelValues(endpoint, "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(Attempts.WithLabelValues(endpoint, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(Retries.WithLabelValues(endpoint)))
	assert.Equal(t, 1.0, testutil.ToFloat64(Failures.WithLabelValues(endpoint)))
	assert.Equal(t, 1.0, testutil.ToFloat64(Cancellations.WithLabelValues(endpoint, "superseded")))
}

func TestTimeAttempt(t *testing.T) {
	done := TimeAttempt("/metrics_timer_test")
	done()

	assert.Equal(t, 1, testutil.CollectAndCount(AttemptDuration, "sentiscope_upstream_attempt_duration_seconds"))
}
