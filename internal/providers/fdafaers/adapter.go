// Package fdafaers adapts the FDA Adverse Event Reporting System (FAERS) as
// a Provider Adapter (§4.2), converting its serious/adverse event counts for
// an ingredient into a RiskLevel per the mapping named in §6.
package fdafaers

import (
	"context"
	"time"

	"github.com/mommyshops/irae/internal/ingredient"
	"github.com/mommyshops/irae/internal/providers"
)

type response struct {
	SeriousEvents int    `json:"serious_events"`
	AdverseEvents int    `json:"adverse_events"`
	Summary       string `json:"summary"`
}

// Adapter queries the FDA FAERS ingredient safety endpoint.
type Adapter struct {
	http *providers.HTTPClient
}

// New builds an Adapter from its declarative HTTPConfig (base URL, auth env
// var, path template), assembled by the registry from configuration.
func New(cfg providers.HTTPConfig) *Adapter {
	return &Adapter{http: providers.NewHTTPClient(cfg)}
}

func (a *Adapter) ID() ingredient.ProviderID { return ingredient.ProviderFDAFAERS }

// Fetch retrieves FAERS event counts for name and maps them onto RiskLevel
// per §6: serious_events>0 → high, adverse_events>5 → moderate, >0 → low,
// else none. FAERS never reports a numeric eco_score.
func (a *Adapter) Fetch(ctx context.Context, name ingredient.CanonicalName) ingredient.IngredientFact {
	var body response
	status, err := a.http.FetchJSON(ctx, name, &body)
	if err != nil {
		return providers.FailureFact(a.ID(), name, status)
	}

	return ingredient.IngredientFact{
		ProviderID:        a.ID(),
		CanonicalName:     name,
		FetchedAt:         time.Now(),
		StatusCode:        ingredient.StatusSuccess,
		Success:           true,
		RiskLevel:         riskFromCounts(body.SeriousEvents, body.AdverseEvents),
		RisksDetailed:     body.Summary,
		RawPayloadSummary: body.Summary,
	}
}

func riskFromCounts(serious, adverse int) ingredient.RiskLevel {
	switch {
	case serious > 0:
		return ingredient.RiskHigh
	case adverse > 5:
		return ingredient.RiskModerate
	case adverse > 0:
		return ingredient.RiskLow
	default:
		return ingredient.RiskNone
	}
}
