package resilience

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/mommyshops/irae/internal/platform/errors"
	"github.com/stretchr/testify/require"
)

func TestWithRetry_RetriesOnlyTransientCodes(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond}

	attempts := 0
	err := withRetry(context.Background(), cfg, func(ctx context.Context) error {
		attempts++
		return apperrors.New(apperrors.CodeTimeout, "boom")
	})
	require.Error(t, err)
	require.Equal(t, 3, attempts) // MaxRetries+1

	attempts = 0
	err = withRetry(context.Background(), cfg, func(ctx context.Context) error {
		attempts++
		return apperrors.New(apperrors.CodeUpstream4xx, "bad request")
	})
	require.Error(t, err)
	require.Equal(t, 1, attempts) // non-transient: no retry
}

func TestWithRetry_SucceedsAfterTransientFailure(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond}

	attempts := 0
	err := withRetry(context.Background(), cfg, func(ctx context.Context) error {
		attempts++
		if attempts < 2 {
			return apperrors.New(apperrors.CodeConnReset, "reset")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, attempts)
}

func TestWithRetry_ContextCancelStopsRetrying(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 5, BaseDelay: 20 * time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	err := withRetry(ctx, cfg, func(ctx context.Context) error {
		attempts++
		if attempts == 1 {
			cancel()
		}
		return apperrors.New(apperrors.CodeTimeout, "boom")
	})
	require.Error(t, err)
	require.LessOrEqual(t, attempts, 2)
}
