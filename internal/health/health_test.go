package health

import (
	"context"
	"testing"
	"time"

	"github.com/mommyshops/irae/internal/cache"
	"github.com/mommyshops/irae/internal/ingredient"
	"github.com/mommyshops/irae/internal/platform/logging"
	"github.com/stretchr/testify/require"
)

type fakeSnapshotter struct{ state ingredient.BreakerState }

func (f fakeSnapshotter) BreakerSnapshot() ingredient.BreakerState { return f.state }

func TestReporter_ComputesErrorRateFromWindow(t *testing.T) {
	store := cache.NewStore(cache.NewL1(10), nil, time.Minute, time.Minute, logging.NewNop())
	providers := map[ingredient.ProviderID]BreakerSnapshotter{
		ingredient.ProviderEWG: fakeSnapshotter{state: ingredient.BreakerState{
			State:              ingredient.BreakerOpen,
			RecentFailureCount: 4,
			WindowFilled:       5,
		}},
	}
	latency := NewLatencyRecorder()
	latency.Record(ingredient.ProviderEWG, 120*time.Millisecond)
	latency.Record(ingredient.ProviderEWG, 80*time.Millisecond)

	reporter := NewReporter(providers, latency, store, func(ctx context.Context) bool { return true })
	report := reporter.Report(context.Background())

	ewg := report.Providers[ingredient.ProviderEWG]
	require.Equal(t, ingredient.BreakerOpen, ewg.BreakerState)
	require.InDelta(t, 0.8, ewg.RecentErrorRate, 0.001)
	require.InDelta(t, 100.0, ewg.AvgLatencyMS, 0.001)
	require.True(t, report.StoreReachable)
}

func TestReporter_StoreUnreachable(t *testing.T) {
	store := cache.NewStore(cache.NewL1(10), nil, time.Minute, time.Minute, logging.NewNop())
	reporter := NewReporter(nil, NewLatencyRecorder(), store, func(ctx context.Context) bool { return false })
	report := reporter.Report(context.Background())
	require.False(t, report.StoreReachable)
}
