// Package health implements Op3 (§4.7) and the Health & Metrics component
// (C8): a point-in-time report of per-provider breaker state, recent error
// rate, average latency, cache stats, and primary-store reachability.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/mommyshops/irae/internal/cache"
	"github.com/mommyshops/irae/internal/ingredient"
)

// BreakerSnapshotter is satisfied by *resilience.Wrapper; kept as an
// interface here so this package never imports internal/resilience.
type BreakerSnapshotter interface {
	BreakerSnapshot() ingredient.BreakerState
}

// ProviderHealth is one entry of HealthReport.Providers.
type ProviderHealth struct {
	BreakerState    ingredient.BreakerStateValue
	RecentErrorRate float64
	AvgLatencyMS    float64
}

// CacheHealth mirrors §6 HealthReport.cache.
type CacheHealth struct {
	Size      int
	Hits      int64
	Misses    int64
	Evictions int64
}

// Report is §6's HealthReport.
type Report struct {
	Providers      map[ingredient.ProviderID]ProviderHealth
	Cache          CacheHealth
	StoreReachable bool
}

// LatencyRecorder accumulates per-provider call latencies so Reporter can
// compute an average; a small ring-buffer-free running mean is sufficient
// since Health is a diagnostic surface, not a billing one.
type LatencyRecorder struct {
	mu    sync.Mutex
	total map[ingredient.ProviderID]time.Duration
	count map[ingredient.ProviderID]int64
}

// NewLatencyRecorder constructs an empty LatencyRecorder.
func NewLatencyRecorder() *LatencyRecorder {
	return &LatencyRecorder{total: make(map[ingredient.ProviderID]time.Duration), count: make(map[ingredient.ProviderID]int64)}
}

// Record adds one observed call latency for provider.
func (l *LatencyRecorder) Record(provider ingredient.ProviderID, d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.total[provider] += d
	l.count[provider]++
}

func (l *LatencyRecorder) average(provider ingredient.ProviderID) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := l.count[provider]
	if n == 0 {
		return 0
	}
	return float64(l.total[provider]/time.Millisecond) / float64(n)
}

// Reporter builds a Report from the live provider bindings, cache, and a
// store-reachability probe.
type Reporter struct {
	providers map[ingredient.ProviderID]BreakerSnapshotter
	latency   *LatencyRecorder
	store     *cache.Store
	probe     func(ctx context.Context) bool
}

// NewReporter constructs a Reporter. probe may be nil, treated as always-reachable.
func NewReporter(providers map[ingredient.ProviderID]BreakerSnapshotter, latency *LatencyRecorder, store *cache.Store, probe func(ctx context.Context) bool) *Reporter {
	if probe == nil {
		probe = func(ctx context.Context) bool { return true }
	}
	return &Reporter{providers: providers, latency: latency, store: store, probe: probe}
}

// Report builds a point-in-time HealthReport (Op3).
func (r *Reporter) Report(ctx context.Context) Report {
	providers := make(map[ingredient.ProviderID]ProviderHealth, len(r.providers))
	for id, snap := range r.providers {
		state := snap.BreakerSnapshot()
		errRate := 0.0
		if state.WindowFilled > 0 {
			errRate = float64(state.RecentFailureCount) / float64(state.WindowFilled)
		}
		providers[id] = ProviderHealth{
			BreakerState:    state.State,
			RecentErrorRate: errRate,
			AvgLatencyMS:    r.latency.average(id),
		}
	}

	stats := r.store.Stats()
	var cacheHealth CacheHealth
	cacheHealth.Size = r.store.Len()
	for _, s := range stats {
		cacheHealth.Hits += s.Hits
		cacheHealth.Misses += s.Misses
		cacheHealth.Evictions += s.Evictions
	}

	return Report{
		Providers:      providers,
		Cache:          cacheHealth,
		StoreReachable: r.probe(ctx),
	}
}
