package resilience

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mommyshops/irae/internal/ingredient"
	"github.com/mommyshops/irae/internal/platform/logging"
	"github.com/mommyshops/irae/internal/providers"
	"github.com/stretchr/testify/require"
)

type fakeAdapter struct {
	id    ingredient.ProviderID
	calls int32
	fn    func(calls int32) ingredient.IngredientFact
}

func (f *fakeAdapter) ID() ingredient.ProviderID { return f.id }

func (f *fakeAdapter) Fetch(ctx context.Context, name ingredient.CanonicalName) ingredient.IngredientFact {
	n := atomic.AddInt32(&f.calls, 1)
	return f.fn(n)
}

func TestWrapper_SuccessPassesThrough(t *testing.T) {
	adapter := &fakeAdapter{
		id: ingredient.ProviderEWG,
		fn: func(n int32) ingredient.IngredientFact {
			return ingredient.IngredientFact{
				ProviderID:    ingredient.ProviderEWG,
				CanonicalName: "water",
				StatusCode:    ingredient.StatusSuccess,
				Success:       true,
				RiskLevel:     ingredient.RiskNone,
			}
		},
	}

	w := NewWrapper(adapter, DefaultPolicyConfig(), logging.NewNop())
	fact := w.Fetch(context.Background(), "water")
	require.True(t, fact.Success)
	require.Equal(t, ingredient.RiskNone, fact.RiskLevel)
}

func TestWrapper_RetriesTransientThenSucceeds(t *testing.T) {
	adapter := &fakeAdapter{
		id: ingredient.ProviderCIR,
		fn: func(n int32) ingredient.IngredientFact {
			if n < 2 {
				return providers.FailureFact(ingredient.ProviderCIR, "glycerin", ingredient.StatusTimeout)
			}
			return ingredient.IngredientFact{
				ProviderID:    ingredient.ProviderCIR,
				CanonicalName: "glycerin",
				StatusCode:    ingredient.StatusSuccess,
				Success:       true,
			}
		},
	}

	cfg := DefaultPolicyConfig()
	cfg.Retry = RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond}
	w := NewWrapper(adapter, cfg, logging.NewNop())
	fact := w.Fetch(context.Background(), "glycerin")
	require.True(t, fact.Success)
	require.EqualValues(t, 2, adapter.calls)
}

func TestWrapper_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	adapter := &fakeAdapter{
		id: ingredient.ProviderSCCS,
		fn: func(n int32) ingredient.IngredientFact {
			return providers.FailureFact(ingredient.ProviderSCCS, "fragrance", ingredient.StatusUpstream5xx)
		},
	}

	cfg := DefaultPolicyConfig()
	cfg.Retry = RetryConfig{MaxRetries: 0, BaseDelay: time.Millisecond}
	cfg.Breaker = BreakerConfig{
		WindowSize:           5,
		MinCalls:             3,
		FailureRateThreshold: 0.5,
		OpenDuration:         time.Hour,
		HalfOpenProbes:       1,
	}
	w := NewWrapper(adapter, cfg, logging.NewNop())

	for i := 0; i < 3; i++ {
		fact := w.Fetch(context.Background(), "fragrance")
		require.False(t, fact.Success)
	}

	callsBeforeOpen := adapter.calls
	fact := w.Fetch(context.Background(), "fragrance")
	require.False(t, fact.Success)
	require.Equal(t, ingredient.StatusBreakerOpen, fact.StatusCode)
	require.Equal(t, callsBeforeOpen, adapter.calls) // breaker rejected before calling the adapter
}
