package resilience

import (
	"context"
	"math/rand"
	"time"

	"github.com/mommyshops/irae/internal/platform/errors"
)

// RetryConfig configures exponential backoff with jitter (§4.3 policy 4).
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// DefaultRetryConfig returns conservative defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 2, BaseDelay: 100 * time.Millisecond}
}

// backoffDelay returns base * 2^attempt plus jitter uniformly distributed in
// [0, base] (both ends inclusive).
func backoffDelay(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	mult := time.Duration(1) << uint(attempt)
	delay := base * mult
	jitter := time.Duration(rand.Int63n(int64(base) + 1))
	return delay + jitter
}

// withRetry invokes fn up to cfg.MaxRetries+1 times, retrying only when fn's
// returned error is a transient *errors.AppError per
// errors.IsTransient (timeout, 5xx, connection reset) — never on 4xx,
// rate_limited (429), parse errors, breaker_open or bulkhead_full.
func withRetry(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	var lastErr error
	attempts := cfg.MaxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(cfg.BaseDelay, attempt-1)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		code := errors.GetCode(lastErr)
		if !errors.IsTransient(code) {
			return lastErr
		}
		if ctx.Err() != nil {
			return lastErr
		}
	}
	return lastErr
}
