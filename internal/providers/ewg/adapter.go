// Package ewg adapts the EWG Skin Deep hazard database as a Provider
// Adapter (§4.2), mapping its 0-10 hazard score onto RiskLevel and its
// inverse onto a numeric eco_score contribution.
package ewg

import (
	"context"
	"time"

	"github.com/mommyshops/irae/internal/ingredient"
	"github.com/mommyshops/irae/internal/providers"
)

type response struct {
	HazardScore float64 `json:"hazard_score"` // 0 (safest) .. 10 (most hazardous)
	DataGaps    bool    `json:"data_gaps"`
	Concerns    string  `json:"concerns"`
}

// Adapter queries the EWG Skin Deep hazard endpoint.
type Adapter struct {
	http *providers.HTTPClient
}

// New builds an Adapter from its declarative HTTPConfig.
func New(cfg providers.HTTPConfig) *Adapter {
	return &Adapter{http: providers.NewHTTPClient(cfg)}
}

func (a *Adapter) ID() ingredient.ProviderID { return ingredient.ProviderEWG }

// Fetch retrieves the hazard score for name and maps it per §6: hazard
// score >=8 → high, >=5 → moderate, >=3 → low, else safe (none). eco_score
// is derived as the complement of the hazard score on a 0-100 scale so the
// Aggregator's weighted mean (§4.5 R2) can use EWG numerically too.
func (a *Adapter) Fetch(ctx context.Context, name ingredient.CanonicalName) ingredient.IngredientFact {
	var body response
	status, err := a.http.FetchJSON(ctx, name, &body)
	if err != nil {
		return providers.FailureFact(a.ID(), name, status)
	}

	score := int((10 - body.HazardScore) * 10)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return ingredient.IngredientFact{
		ProviderID:        a.ID(),
		CanonicalName:     name,
		FetchedAt:         time.Now(),
		StatusCode:        ingredient.StatusSuccess,
		Success:           true,
		RiskLevel:         riskFromHazard(body.HazardScore),
		EcoScore:          &score,
		RisksDetailed:     body.Concerns,
		RawPayloadSummary: body.Concerns,
	}
}

func riskFromHazard(score float64) ingredient.RiskLevel {
	switch {
	case score >= 8:
		return ingredient.RiskHigh
	case score >= 5:
		return ingredient.RiskModerate
	case score >= 3:
		return ingredient.RiskLow
	default:
		return ingredient.RiskNone
	}
}
