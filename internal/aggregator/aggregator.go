// Package aggregator implements the Aggregator component (§4.5): a pure
// function from a bag of per-provider IngredientFacts (plus optional seed
// data) to one merged IngredientRecord. It performs no I/O and depends on
// wall-clock time only through each fact's own FetchedAt, never the call
// time, so Aggregate(b) = Aggregate(permutation(b)) for any clock (§8 P4).
package aggregator

import (
	"math"
	"sort"
	"strings"

	"github.com/mommyshops/irae/internal/ingredient"
	"github.com/mommyshops/irae/internal/providers"
)

// maxFieldLength caps benefits/risks_detailed per §4.5 R3/R4.
const maxFieldLength = 2000

// Config carries the provider priority order and weighted-mean weights used
// by R1/R2; both are configurable per §6 ("providers[].priority, .weight").
type Config struct {
	PriorityOrder []ingredient.ProviderID
	Weights       map[ingredient.ProviderID]float64
}

// DefaultConfig returns the representative defaults from §4.5.
func DefaultConfig() Config {
	return Config{
		PriorityOrder: providers.DefaultPriorityOrder,
		Weights:       providers.DefaultWeights,
	}
}

// SeedData is the optional local-catalog contribution merged alongside
// provider facts, attributed to ingredient.ProviderLocalSeed for priority
// and sources purposes.
type SeedData struct {
	RiskLevel     ingredient.RiskLevel
	EcoScore      *int
	Benefits      string
	RisksDetailed string
}

// Aggregate merges facts (and an optional seed) into one IngredientRecord
// for name, applying R1-R6 from §4.5. It never sets CreatedAt/UpdatedAt —
// those are stamped by the Dual-Store Writer at persistence time (§4.6),
// keeping Aggregate itself clock-independent per P4.
func Aggregate(cfg Config, name ingredient.CanonicalName, facts []ingredient.IngredientFact, seed *SeedData) ingredient.IngredientRecord {
	order := cfg.PriorityOrder
	if len(order) == 0 {
		order = providers.DefaultPriorityOrder
	}
	weights := cfg.Weights
	if weights == nil {
		weights = providers.DefaultWeights
	}

	sorted := make([]ingredient.IngredientFact, len(facts))
	copy(sorted, facts)
	sortByPriorityThenFetchTime(sorted, order)

	risk := riskLevel(sorted, order)
	score := ecoScore(sorted, weights, seed, risk)
	benefits := joinField(sorted, func(f ingredient.IngredientFact) string { return f.Benefits }, seed, func(s *SeedData) string { return s.Benefits })
	risksDetailed := joinField(sorted, func(f ingredient.IngredientFact) string { return f.RisksDetailed }, seed, func(s *SeedData) string { return s.RisksDetailed })
	sources := sourceList(sorted, order, seed)

	return ingredient.IngredientRecord{
		CanonicalName: name,
		EcoScore:      score,
		RiskLevel:     risk,
		Benefits:      benefits,
		RisksDetailed: risksDetailed,
		Sources:       sources,
		SchemaVersion: ingredient.SchemaVersion,
	}
}

// sortByPriorityThenFetchTime orders facts by ascending priority rank
// (index in order; absent providers rank last), breaking ties by the
// earliest FetchedAt, matching R1's tie-break rule. The sort is stable so
// equal-priority-equal-time facts keep their input relative order, which is
// irrelevant to any rule's output (R1-R5 all dedupe/pick deterministically).
func sortByPriorityThenFetchTime(facts []ingredient.IngredientFact, order []ingredient.ProviderID) {
	sort.SliceStable(facts, func(i, j int) bool {
		ri, rj := providers.PriorityRank(order, facts[i].ProviderID), providers.PriorityRank(order, facts[j].ProviderID)
		if ri != rj {
			return ri < rj
		}
		return facts[i].FetchedAt.Before(facts[j].FetchedAt)
	})
}

// riskLevel implements R1: the highest-priority non-unknown successful
// risk_level, ties broken by earliest fetch (already reflected in sort
// order), else unknown.
func riskLevel(sorted []ingredient.IngredientFact, order []ingredient.ProviderID) ingredient.RiskLevel {
	for _, f := range sorted {
		if f.Success && f.RiskLevel != "" && f.RiskLevel != ingredient.RiskUnknown {
			return f.RiskLevel
		}
	}
	return ingredient.RiskUnknown
}

// ecoScore implements R2: a weighted mean over successful facts that
// contributed a numeric score, falling back to the risk-to-score mapping
// when no provider did. The result is always clamped to [0, 100] (§8 P6).
func ecoScore(sorted []ingredient.IngredientFact, weights map[ingredient.ProviderID]float64, seed *SeedData, risk ingredient.RiskLevel) int {
	var weightedSum, weightTotal float64
	for _, f := range sorted {
		if !f.Success || f.EcoScore == nil {
			continue
		}
		w := weights[f.ProviderID]
		if w <= 0 {
			continue
		}
		weightedSum += w * float64(*f.EcoScore)
		weightTotal += w
	}
	if seed != nil && seed.EcoScore != nil {
		w := weights[ingredient.ProviderLocalSeed]
		if w > 0 {
			weightedSum += w * float64(*seed.EcoScore)
			weightTotal += w
		}
	}

	var score int
	if weightTotal > 0 {
		score = int(math.Round(weightedSum / weightTotal))
	} else {
		score = risk.FallbackScore()
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// joinField implements R3/R4: concatenate unique non-empty field values in
// priority order, joined by ". ", capped at maxFieldLength.
func joinField(sorted []ingredient.IngredientFact, get func(ingredient.IngredientFact) string, seed *SeedData, getSeed func(*SeedData) string) string {
	seen := make(map[string]struct{})
	var parts []string
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		parts = append(parts, v)
	}

	for _, f := range sorted {
		if f.Success {
			add(get(f))
		}
	}
	if seed != nil {
		add(getSeed(seed))
	}

	joined := strings.Join(parts, ". ")
	if len(joined) > maxFieldLength {
		joined = joined[:maxFieldLength]
	}
	return joined
}

// sourceList implements R5: contributing provider_ids (success=true, or
// seed present) in priority order, deduplicated.
func sourceList(sorted []ingredient.IngredientFact, order []ingredient.ProviderID, seed *SeedData) []ingredient.ProviderID {
	seen := make(map[ingredient.ProviderID]struct{})
	var out []ingredient.ProviderID
	for _, f := range sorted {
		if !f.Success {
			continue
		}
		if _, ok := seen[f.ProviderID]; ok {
			continue
		}
		seen[f.ProviderID] = struct{}{}
		out = append(out, f.ProviderID)
	}
	if seed != nil {
		if _, ok := seen[ingredient.ProviderLocalSeed]; !ok {
			out = append(out, ingredient.ProviderLocalSeed)
		}
	}
	return out
}
