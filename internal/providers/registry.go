package providers

import "github.com/mommyshops/irae/internal/ingredient"

// Registration is one entry in the declarative Provider Adapter Registry
// (§4.2/C9): the adapter implementation plus the priority and weight used
// downstream by the Aggregator. Registry wiring itself (reading config,
// constructing each concrete adapter with its HTTPConfig, applying
// per-provider resilience overrides) lives in cmd/irae-server, which is the
// only place allowed to know about every concrete adapter package.
type Registration struct {
	Adapter  Adapter
	Priority int // lower value wins ties in R1; position in the default order below
	Weight   float64
}

// DefaultPriorityOrder is the provider_priority default named in §4.5 R1:
// IARC > FDA > CIR > SCCS > INVIMA > EWG > ICCR > INCI Beauty > CosIng > local_seed.
var DefaultPriorityOrder = []ingredient.ProviderID{
	ingredient.ProviderIARC,
	ingredient.ProviderFDAFAERS,
	ingredient.ProviderCIR,
	ingredient.ProviderSCCS,
	ingredient.ProviderINVIMA,
	ingredient.ProviderEWG,
	ingredient.ProviderICCR,
	ingredient.ProviderINCIBeauty,
	ingredient.ProviderCosIng,
	ingredient.ProviderLocalSeed,
}

// DefaultWeights are the representative weighted-mean weights from §4.5 R2;
// providers not listed default to 0 and so never move the numeric eco_score,
// only the risk_level/benefits/risks_detailed fields.
var DefaultWeights = map[ingredient.ProviderID]float64{
	ingredient.ProviderEWG:  0.25,
	ingredient.ProviderFDAFAERS: 0.30,
	ingredient.ProviderCIR:  0.20,
	ingredient.ProviderSCCS: 0.15,
	ingredient.ProviderICCR: 0.10,
}

// PriorityRank returns order's index for id, or len(order) if id is absent
// (lowest priority), so callers can sort ascending.
func PriorityRank(order []ingredient.ProviderID, id ingredient.ProviderID) int {
	for i, p := range order {
		if p == id {
			return i
		}
	}
	return len(order)
}
