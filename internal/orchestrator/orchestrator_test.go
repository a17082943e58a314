package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mommyshops/irae/internal/aggregator"
	"github.com/mommyshops/irae/internal/cache"
	"github.com/mommyshops/irae/internal/canonical"
	"github.com/mommyshops/irae/internal/dualstore"
	"github.com/mommyshops/irae/internal/ingredient"
	apperrors "github.com/mommyshops/irae/internal/platform/errors"
	"github.com/mommyshops/irae/internal/platform/logging"
	"github.com/stretchr/testify/require"
)

type scriptedFetcher struct {
	id    ingredient.ProviderID
	calls int32
	fn    func(n int32, name ingredient.CanonicalName) ingredient.IngredientFact
}

func (s *scriptedFetcher) Fetch(ctx context.Context, name ingredient.CanonicalName) ingredient.IngredientFact {
	n := atomic.AddInt32(&s.calls, 1)
	return s.fn(n, name)
}

func successFetcher(id ingredient.ProviderID, risk ingredient.RiskLevel, score int) *scriptedFetcher {
	return &scriptedFetcher{
		id: id,
		fn: func(n int32, name ingredient.CanonicalName) ingredient.IngredientFact {
			return ingredient.IngredientFact{
				ProviderID: id, Success: true, RiskLevel: risk, EcoScore: &score,
			}
		},
	}
}

// perNameFetcher returns distinct facts keyed by canonical name, letting a
// single fake provider stand in for the scenario tables in §8 that vary
// per-ingredient (e.g. S1's water/glycerin/SLS scores).
func perNameFetcher(id ingredient.ProviderID, byName map[ingredient.CanonicalName]ingredient.IngredientFact) *scriptedFetcher {
	return &scriptedFetcher{
		id: id,
		fn: func(n int32, name ingredient.CanonicalName) ingredient.IngredientFact {
			if f, ok := byName[name]; ok {
				return f
			}
			return ingredient.IngredientFact{ProviderID: id, CanonicalName: name, Success: false, StatusCode: ingredient.StatusUpstream4xx}
		},
	}
}

type fakePrimary struct {
	mu   sync.Mutex
	err  error
	recs map[ingredient.CanonicalName]ingredient.IngredientRecord
}

func newFakePrimary() *fakePrimary {
	return &fakePrimary{recs: make(map[ingredient.CanonicalName]ingredient.IngredientRecord)}
}

func (f *fakePrimary) UpsertRecord(ctx context.Context, rec ingredient.IngredientRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.recs[rec.CanonicalName] = rec
	return nil
}

func newTestEngine(t *testing.T, bindings []ProviderBinding, primary *fakePrimary) *Engine {
	store := cache.NewStore(cache.NewL1(100), nil, time.Hour, time.Hour, logging.NewNop())
	writer := dualstore.NewWriter(primary, logging.NewNop())
	cfg := DefaultConfig()
	cfg.OverallDeadline = 2 * time.Second
	return New(cfg, canonical.New(), store, writer, aggregator.DefaultConfig(), bindings, nil, nil, logging.NewNop())
}

func TestResolveIngredients_ScenarioS1(t *testing.T) {
	primary := newFakePrimary()
	scores := map[ingredient.CanonicalName]ingredient.IngredientFact{
		"water":    {Success: true, RiskLevel: ingredient.RiskNone, EcoScore: intPtr(95)},
		"glycerin": {Success: true, RiskLevel: ingredient.RiskLow, EcoScore: intPtr(85)},
		"sls":      {Success: true, RiskLevel: ingredient.RiskHigh, EcoScore: intPtr(40)},
	}
	bindings := []ProviderBinding{
		{ID: ingredient.ProviderEWG, Fetcher: perNameFetcher(ingredient.ProviderEWG, scores)},
	}
	e := newTestEngine(t, bindings, primary)

	analysis, err := e.ResolveIngredients(context.Background(), []string{"Aqua", "Glycerin", "Sodium Lauryl Sulfate"}, "general", "Test Lotion")
	require.NoError(t, err)
	require.Len(t, analysis.IngredientsDetails, 3)
	require.Equal(t, 73.0, analysis.AvgEcoScore)
	require.Equal(t, ingredient.SuitabilityCaution, analysis.Suitability)
	require.Contains(t, analysis.Recommendations, "sls")
}

func intPtr(v int) *int { return &v }

func TestResolveIngredients_ScenarioS2_DedupAndSingleFanOutPerProvider(t *testing.T) {
	primary := newFakePrimary()
	water := successFetcher(ingredient.ProviderEWG, ingredient.RiskNone, 95)
	bindings := []ProviderBinding{{ID: ingredient.ProviderEWG, Fetcher: water}}
	e := newTestEngine(t, bindings, primary)

	analysis, err := e.ResolveIngredients(context.Background(), []string{"1 mg", "Water", "Water"}, "general", "")
	require.NoError(t, err)
	require.Len(t, analysis.IngredientsDetails, 1)
	require.EqualValues(t, 1, water.calls)
}

func TestResolveIngredients_ScenarioS3_UnknownIngredient(t *testing.T) {
	primary := newFakePrimary()
	bindings := []ProviderBinding{
		{ID: ingredient.ProviderEWG, Fetcher: &scriptedFetcher{id: ingredient.ProviderEWG, fn: func(n int32, name ingredient.CanonicalName) ingredient.IngredientFact {
			return ingredient.IngredientFact{ProviderID: ingredient.ProviderEWG, Success: false, StatusCode: ingredient.StatusUpstream4xx}
		}}},
	}
	e := newTestEngine(t, bindings, primary)

	analysis, err := e.ResolveIngredients(context.Background(), []string{"Unknownium Exoticum"}, "general", "")
	require.NoError(t, err)
	require.Len(t, analysis.IngredientsDetails, 1)
	rec := analysis.IngredientsDetails[0].Record
	require.Equal(t, ingredient.RiskUnknown, rec.RiskLevel)
	require.Equal(t, 50, rec.EcoScore)
	require.Empty(t, rec.Sources)
	require.Equal(t, 50.0, analysis.AvgEcoScore)
	require.Equal(t, ingredient.SuitabilityCaution, analysis.Suitability)
}

func TestResolveIngredients_InvalidInput(t *testing.T) {
	primary := newFakePrimary()
	e := newTestEngine(t, nil, primary)

	_, err := e.ResolveIngredients(context.Background(), nil, "general", "")
	require.Error(t, err)
	require.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))

	tooMany := make([]string, 201)
	for i := range tooMany {
		tooMany[i] = "water"
	}
	_, err = e.ResolveIngredients(context.Background(), tooMany, "general", "")
	require.Error(t, err)
	require.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
}

func TestResolveIngredients_ScenarioS6_PrimaryStoreUnreachableFailsCall(t *testing.T) {
	primary := newFakePrimary()
	primary.err = errors.New("connection refused")
	bindings := []ProviderBinding{
		{ID: ingredient.ProviderEWG, Fetcher: successFetcher(ingredient.ProviderEWG, ingredient.RiskNone, 90)},
	}
	e := newTestEngine(t, bindings, primary)

	_, err := e.GetIngredient(context.Background(), "retinol")
	require.Error(t, err)
	require.Equal(t, apperrors.CodeInternal, apperrors.GetCode(err))
}

func TestGetIngredient_ScenarioS5_SingleFlightAcrossConcurrentCalls(t *testing.T) {
	primary := newFakePrimary()
	var fetchCalls int32
	fetcher := &scriptedFetcher{
		id: ingredient.ProviderEWG,
		fn: func(n int32, name ingredient.CanonicalName) ingredient.IngredientFact {
			atomic.AddInt32(&fetchCalls, 1)
			time.Sleep(30 * time.Millisecond)
			score := 90
			return ingredient.IngredientFact{ProviderID: ingredient.ProviderEWG, Success: true, RiskLevel: ingredient.RiskNone, EcoScore: &score}
		},
	}
	e := newTestEngine(t, []ProviderBinding{{ID: ingredient.ProviderEWG, Fetcher: fetcher}}, primary)

	var wg sync.WaitGroup
	results := make([]ingredient.IngredientRecord, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			rec, err := e.GetIngredient(context.Background(), "retinol")
			require.NoError(t, err)
			results[idx] = rec
		}(i)
	}
	wg.Wait()

	require.EqualValues(t, 1, fetchCalls)
	for _, r := range results[1:] {
		require.Equal(t, results[0].UpdatedAt, r.UpdatedAt)
	}
}

func TestGetIngredient_ScenarioP9_CacheCoherenceAfterResolve(t *testing.T) {
	primary := newFakePrimary()
	fetcher := successFetcher(ingredient.ProviderEWG, ingredient.RiskNone, 95)
	e := newTestEngine(t, []ProviderBinding{{ID: ingredient.ProviderEWG, Fetcher: fetcher}}, primary)

	_, err := e.GetIngredient(context.Background(), "water")
	require.NoError(t, err)
	require.EqualValues(t, 1, fetcher.calls)

	_, err = e.GetIngredient(context.Background(), "water")
	require.NoError(t, err)
	require.EqualValues(t, 1, fetcher.calls) // second call served from L1, no new provider fetch
}

func TestBuildRecommendations_NoProblematicIngredients(t *testing.T) {
	require.Equal(t, "No ingredients of concern were identified.", buildRecommendations(nil))
}

func TestSuitabilityFromScore_Thresholds(t *testing.T) {
	th := DefaultSuitabilityThresholds()
	require.Equal(t, ingredient.SuitabilitySuitable, suitabilityFromScore(80, th))
	require.Equal(t, ingredient.SuitabilityCaution, suitabilityFromScore(60, th))
	require.Equal(t, ingredient.SuitabilityAvoid, suitabilityFromScore(30, th))
}
