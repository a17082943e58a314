// Package orchestrator implements the Resolver Orchestrator (§4.7), the
// engine's three public operations (Op1 ResolveIngredients, Op2
// GetIngredient, Op3 Health) and the per-ingredient resolution algorithm
// that drives Canonicalizer → Cache Tier → Provider Adapters (via the
// Resilience Layer) → Aggregator → Dual-Store Writer.
package orchestrator

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mommyshops/irae/internal/aggregator"
	"github.com/mommyshops/irae/internal/cache"
	"github.com/mommyshops/irae/internal/canonical"
	"github.com/mommyshops/irae/internal/dualstore"
	"github.com/mommyshops/irae/internal/ingredient"
	"github.com/mommyshops/irae/internal/platform/errors"
	"github.com/mommyshops/irae/internal/platform/logging"
)

// maxRawTokens and maxTokenLength enforce §4.7 Op1's input constraints.
const (
	maxRawTokens   = 200
	maxTokenLength = 200
)

// Fetcher is the resilience-wrapped provider surface the orchestrator fans
// out through; internal/resilience.Wrapper satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, name ingredient.CanonicalName) ingredient.IngredientFact
}

// ProviderBinding pairs a resilience-wrapped adapter with its registry
// metadata (§4.2/C9); the orchestrator never talks to a bare
// providers.Adapter, always through its Fetcher wrapper.
type ProviderBinding struct {
	ID       ingredient.ProviderID
	Fetcher  Fetcher
	Priority int
	Weight   float64
}

// SuitabilityThresholds implements §4.7 step 6's thresholds.
type SuitabilityThresholds struct {
	Suitable float64 // avg_eco_score >= Suitable → suitable
	Caution  float64 // avg_eco_score >= Caution (and < Suitable) → caution; below → avoid
}

// DefaultSuitabilityThresholds returns the representative defaults from §4.7
// step 6: >=75 suitable, 50-74 caution, <50 avoid.
func DefaultSuitabilityThresholds() SuitabilityThresholds {
	return SuitabilityThresholds{Suitable: 75, Caution: 50}
}

// SensitivePredicate maps an opaque user_context string onto "this caller
// should be treated as sensitive-skin," per §4.7 step 6's pluggable
// mapping. It never inspects per-ingredient facts.
type SensitivePredicate func(userContext string) bool

// DefaultSensitivePredicate treats any user_context mentioning "sensitive"
// (case-insensitive) as sensitive-skin.
func DefaultSensitivePredicate(userContext string) bool {
	return strings.Contains(strings.ToLower(userContext), "sensitive")
}

// Config carries the tunables named in §6's orchestrator{} configuration
// block.
type Config struct {
	MaxGlobalInFlight    int
	OverallDeadline      time.Duration
	PerCallDeadline      time.Duration
	MinProvidersForFresh int
	RecordMaxAge         time.Duration
	Suitability          SuitabilityThresholds
	IsSensitive          SensitivePredicate
}

// DefaultConfig returns the §5/§6 representative defaults.
func DefaultConfig() Config {
	return Config{
		MaxGlobalInFlight:    64,
		OverallDeadline:      30 * time.Second,
		PerCallDeadline:      5 * time.Second,
		MinProvidersForFresh: 1,
		RecordMaxAge:         24 * time.Hour,
		Suitability:          DefaultSuitabilityThresholds(),
		IsSensitive:          DefaultSensitivePredicate,
	}
}

// SeedProvider supplies optional local-catalog data for a canonical name;
// callers without a local seed catalog pass nil.
type SeedProvider interface {
	Seed(ctx context.Context, name ingredient.CanonicalName) (*aggregator.SeedData, bool)
}

// Engine is the Resolver Orchestrator: the single owned value holding the
// cache, provider registry, aggregator config, and dual-store writer,
// replacing the ambient globals/singletons §9 flags for re-architecture.
type Engine struct {
	cfg     Config
	canon   *canonical.Canonicalizer
	store   *cache.Store
	writer  *dualstore.Writer
	aggCfg  aggregator.Config
	seed    SeedProvider
	log     logging.Logger
	storeUp func(ctx context.Context) bool

	providers []ProviderBinding
	global    chan struct{}
}

// New constructs an Engine. storeReachable probes primary-store
// reachability for Health (§6 HealthReport.store_reachable); it may be nil,
// in which case store_reachable always reports true.
func New(
	cfg Config,
	canon *canonical.Canonicalizer,
	store *cache.Store,
	writer *dualstore.Writer,
	aggCfg aggregator.Config,
	providers []ProviderBinding,
	seed SeedProvider,
	storeReachable func(ctx context.Context) bool,
	log logging.Logger,
) *Engine {
	if log == nil {
		log = logging.Default()
	}
	if cfg.MaxGlobalInFlight <= 0 {
		cfg.MaxGlobalInFlight = 64
	}
	if storeReachable == nil {
		storeReachable = func(ctx context.Context) bool { return true }
	}
	return &Engine{
		cfg:       cfg,
		canon:     canon,
		store:     store,
		writer:    writer,
		aggCfg:    aggCfg,
		seed:      seed,
		log:       log.Named("orchestrator"),
		storeUp:   storeReachable,
		providers: providers,
		global:    make(chan struct{}, cfg.MaxGlobalInFlight),
	}
}

// ResolveIngredients is Op1: canonicalize raw_tokens, resolve each unique
// canonical name concurrently bounded by max_global_in_flight, aggregate
// the product-level verdict, and return within overall_deadline.
func (e *Engine) ResolveIngredients(ctx context.Context, rawTokens []string, userContext, productName string) (ingredient.ProductAnalysis, error) {
	if len(rawTokens) == 0 || len(rawTokens) > maxRawTokens {
		return ingredient.ProductAnalysis{}, errors.New(errors.CodeInvalidInput, fmt.Sprintf("raw_tokens must contain 1-%d entries", maxRawTokens))
	}
	for _, t := range rawTokens {
		if len(t) > maxTokenLength {
			return ingredient.ProductAnalysis{}, errors.New(errors.CodeInvalidInput, fmt.Sprintf("token exceeds %d characters", maxTokenLength))
		}
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.OverallDeadline)
	defer cancel()

	names := e.canon.CanonicalizeAll(rawTokens)
	if len(names) == 0 {
		return ingredient.ProductAnalysis{ProductName: productName, Suitability: ingredient.SuitabilityCaution}, nil
	}

	details := make([]ingredient.IngredientDetail, len(names))
	originals := make([]string, len(names))
	for i, raw := range rawTokens {
		if canon, ok := e.canon.Canonicalize(raw); ok {
			for j, n := range names {
				if n == canon && originals[j] == "" {
					originals[j] = raw
					break
				}
			}
		}
	}

	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name ingredient.CanonicalName) {
			defer wg.Done()
			rec, err := e.resolveOne(ctx, name)
			if err != nil {
				rec = unknownRecord(name)
			}
			details[i] = ingredient.IngredientDetail{RawToken: originals[i], CanonicalName: name, Record: rec}
		}(i, name)
	}
	wg.Wait()

	if ctx.Err() != nil {
		return ingredient.ProductAnalysis{}, errors.New(errors.CodeDeadlineExceeded, "overall resolution deadline exceeded")
	}

	return e.buildProductAnalysis(productName, userContext, details), nil
}

// GetIngredient is Op2: the single-ingredient counterpart of Op1, same
// canonicalization and resolution semantics.
func (e *Engine) GetIngredient(ctx context.Context, rawToken string) (ingredient.IngredientRecord, error) {
	if len(rawToken) == 0 || len(rawToken) > maxTokenLength {
		return ingredient.IngredientRecord{}, errors.New(errors.CodeInvalidInput, "raw_token must be 1-200 characters")
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.OverallDeadline)
	defer cancel()

	name, ok := e.canon.Canonicalize(rawToken)
	if !ok {
		return unknownRecord(ingredient.CanonicalName(strings.ToLower(strings.TrimSpace(rawToken)))), nil
	}

	rec, err := e.resolveOne(ctx, name)
	if err != nil {
		return ingredient.IngredientRecord{}, err
	}
	return rec, nil
}

// resolveOne implements §4.7 algorithm steps 3-5 for one canonical name:
// cache read path with freshness check, provider fan-out bounded by the
// global concurrency cap, aggregation, and persistence.
func (e *Engine) resolveOne(ctx context.Context, name ingredient.CanonicalName) (ingredient.IngredientRecord, error) {
	return e.store.Resolve(ctx, name, e.cfg.RecordMaxAge, func(ctx context.Context, stale *ingredient.IngredientRecord) (ingredient.IngredientRecord, error) {
		select {
		case e.global <- struct{}{}:
			defer func() { <-e.global }()
		case <-ctx.Done():
			if stale != nil {
				return *stale, nil
			}
			return ingredient.IngredientRecord{}, errors.Wrap(ctx.Err(), errors.CodeDeadlineExceeded, "global concurrency slot not acquired in time")
		}

		facts := e.fanOut(ctx, name)

		successCount := 0
		for _, f := range facts {
			if f.Success {
				successCount++
			}
		}

		if successCount < e.cfg.MinProvidersForFresh {
			if stale != nil {
				return *stale, nil
			}
			if successCount == 0 {
				return unknownRecord(name), nil
			}
		}

		var seed *aggregator.SeedData
		if e.seed != nil {
			seed, _ = e.seed.Seed(ctx, name)
		}

		rec := aggregator.Aggregate(e.aggCfg, name, facts, seed)

		if e.writer == nil {
			return rec, nil
		}
		persisted, err := e.writer.Persist(ctx, rec)
		if err != nil {
			return ingredient.IngredientRecord{}, err
		}
		return persisted, nil
	})
}

// fanOut runs one concurrent Fetch per enabled provider (already wrapped by
// the Resilience Layer) and waits for every one to return; a provider that
// fails or runs past its per-call deadline contributes a failure fact to
// the result, never a failure of the whole fan-out (§4.7 step 4).
func (e *Engine) fanOut(ctx context.Context, name ingredient.CanonicalName) []ingredient.IngredientFact {
	facts := make([]ingredient.IngredientFact, len(e.providers))
	var wg sync.WaitGroup
	for i, binding := range e.providers {
		wg.Add(1)
		go func(i int, b ProviderBinding) {
			defer wg.Done()
			if cached, ok := e.store.GetFact(b.ID, name); ok {
				facts[i] = cached
				return
			}
			fact := b.Fetcher.Fetch(ctx, name)
			e.store.PutFact(fact)
			facts[i] = fact
		}(i, binding)
	}
	wg.Wait()
	return facts
}

// buildProductAnalysis implements §4.7 steps 6-7: average eco score,
// suitability verdict (with a forced avoid when any high-risk ingredient
// coincides with a sensitive user_context), and a deterministic
// recommendations template.
func (e *Engine) buildProductAnalysis(productName, userContext string, details []ingredient.IngredientDetail) ingredient.ProductAnalysis {
	var sum float64
	var problematic []ingredient.IngredientDetail
	hasHighRisk := false

	for _, d := range details {
		sum += float64(d.Record.EcoScore)
		if d.Record.RiskLevel == ingredient.RiskHigh || d.Record.RiskLevel == ingredient.RiskModerate {
			problematic = append(problematic, d)
		}
		if d.Record.RiskLevel == ingredient.RiskHigh {
			hasHighRisk = true
		}
	}
	avg := sum / float64(len(details))

	suit := suitabilityFromScore(avg, e.cfg.Suitability)
	if hasHighRisk && e.cfg.IsSensitive(userContext) {
		suit = ingredient.SuitabilityAvoid
	}

	return ingredient.ProductAnalysis{
		ProductName:        productName,
		IngredientsDetails: details,
		AvgEcoScore:        math.Round(avg),
		Suitability:        suit,
		Recommendations:    buildRecommendations(problematic),
	}
}

func suitabilityFromScore(avg float64, t SuitabilityThresholds) ingredient.Suitability {
	switch {
	case avg >= t.Suitable:
		return ingredient.SuitabilitySuitable
	case avg >= t.Caution:
		return ingredient.SuitabilityCaution
	default:
		return ingredient.SuitabilityAvoid
	}
}

// buildRecommendations renders a deterministic template over the
// problematic (moderate/high risk) ingredients, sorted by canonical name so
// the output is stable across runs (§4.5's determinism extends here).
func buildRecommendations(problematic []ingredient.IngredientDetail) string {
	if len(problematic) == 0 {
		return "No ingredients of concern were identified."
	}
	sort.Slice(problematic, func(i, j int) bool {
		return problematic[i].CanonicalName < problematic[j].CanonicalName
	})

	names := make([]string, len(problematic))
	for i, d := range problematic {
		names[i] = string(d.CanonicalName)
	}
	return fmt.Sprintf("Review the following ingredients before use: %s.", strings.Join(names, ", "))
}

// unknownRecord builds the §4.7/§8 S3 fallback: an ingredient with no
// information at all still appears with risk_level=unknown, eco_score=50,
// sources=[].
func unknownRecord(name ingredient.CanonicalName) ingredient.IngredientRecord {
	return ingredient.IngredientRecord{
		CanonicalName: name,
		EcoScore:      ingredient.RiskUnknown.FallbackScore(),
		RiskLevel:     ingredient.RiskUnknown,
		SchemaVersion: ingredient.SchemaVersion,
	}
}
