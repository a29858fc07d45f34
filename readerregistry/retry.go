package readerregistry

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"time"
)

const (
	// LookupRetriesMetric counts lookups that are retried after a failure.
	LookupRetriesMetric = "reader_lookup_retries_total"

	// LookupFailuresMetric counts lookups that failed after their last attempt.
	LookupFailuresMetric = "reader_lookup_failures_total"

	defaultMaxAttempts  = 1
	defaultBaseDelay    = 10 * time.Millisecond
	defaultJitterFactor = 0.3

	labelBackend       = "backend"
	labelAttemptNumber = "attempt_number"
	labelErrorType     = "error_type"
)

var (
	ErrInvalidMaxAttempts  = errors.New("max attempts must be positive")
	ErrNegativeBaseDelay   = errors.New("base delay must not be negative")
	ErrInvalidJitterFactor = errors.New("jitter factor must be between 0.0 and 1.0")
)

type retryPolicy struct {
	maxAttempts  int
	baseDelay    time.Duration
	jitterFactor float64
}

// WithRetry retries failed lookups up to maxAttempts in total with exponential backoff:
// baseDelay, baseDelay*2, baseDelay*4, ... plus jitter. The default is a single attempt.
// Canceled or timed out contexts are never retried.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(s *settings) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}

		if baseDelay < 0 {
			return ErrNegativeBaseDelay
		}

		s.retry.maxAttempts = maxAttempts
		s.retry.baseDelay = baseDelay

		return nil
	}
}

// WithJitterFactor sets the jitter added to each backoff delay, from 0.0 (none) to 1.0 (up to 100%).
func WithJitterFactor(factor float64) Option {
	return func(s *settings) error {
		if factor < 0.0 || factor > 1.0 {
			return ErrInvalidJitterFactor
		}

		s.retry.jitterFactor = factor

		return nil
	}
}

// retryLookup runs fn until it succeeds, fails permanently or runs out of attempts.
func (s *settings) retryLookup(ctx context.Context, backend string, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt < s.retry.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := s.retry.baseDelay * time.Duration(1<<(attempt-1))
			jitter := rand.Float64() * float64(delay) * s.retry.jitterFactor //nolint:gosec // math/rand is sufficient for jitter

			select {
			case <-time.After(delay + time.Duration(jitter)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil || !isRetryableError(lastErr) {
			return lastErr
		}

		if attempt < s.retry.maxAttempts-1 {
			s.incrementCounter(ctx, LookupRetriesMetric, map[string]string{
				labelBackend:       backend,
				labelAttemptNumber: strconv.Itoa(attempt + 1),
			})
		}
	}

	return lastErr
}

// isRetryableError treats every store failure as transient except canceled and timed out contexts.
func isRetryableError(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func errorType(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, context.Canceled):
		return "context_canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "context_deadline_exceeded"
	default:
		return "other"
	}
}
