package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/adeilh/sentiscope/internal/metrics"
)

// fetchWithRetry makes up to 1+retries attempts. Retry k waits k*retryDelay.
// Cancellation of ctx stops the loop at once.
func (f *Fetcher) fetchWithRetry(ctx context.Context, endpoint, rawQuery string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= f.opts.retries; attempt++ {
		if attempt > 0 {
			delay := f.opts.retryDelay * time.Duration(attempt)
			metrics.RecordRetry(endpoint)
			f.opts.logger.Warn("retrying fetch",
				zap.String("endpoint", endpoint),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			if err := f.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		body, err := f.attempt(ctx, endpoint, rawQuery, attempt+1)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !f.opts.retryPolicy(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (f *Fetcher) attempt(ctx context.Context, endpoint, rawQuery string, n int) ([]byte, error) {
	ctx, span := f.tracer.Start(ctx, "fetcher.attempt", trace.WithAttributes(
		attribute.String("fetch.endpoint", endpoint),
		attribute.Int("fetch.attempt", n),
	))
	defer span.End()

	if f.opts.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.opts.attemptTimeout)
		defer cancel()
	}

	done := metrics.TimeAttempt(endpoint)
	body, err := f.transport.GetRaw(ctx, endpoint, rawQuery)
	done()

	if err == nil && !json.Valid(body) {
		err = fmt.Errorf("%w (%d bytes)", ErrInvalidJSON, len(body))
	}
	if err != nil {
		metrics.RecordAttempt(endpoint, "error")
		span.RecordError(err)
		return nil, err
	}
	metrics.RecordAttempt(endpoint, "ok")
	return body, nil
}

func (f *Fetcher) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := f.opts.clock.Timer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
