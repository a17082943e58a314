// Package incibeauty adapts the INCI Beauty Pro consumer-facing safety score
// as a Provider Adapter (§4.2). Unlike the regulatory/expert-panel sources,
// INCI Beauty Pro already publishes a 0-100 score, which this adapter passes
// through directly as eco_score.
package incibeauty

import (
	"context"
	"time"

	"github.com/mommyshops/irae/internal/ingredient"
	"github.com/mommyshops/irae/internal/providers"
)

type response struct {
	Score       int    `json:"score"` // 0 (worst) .. 100 (best), already normalized
	RiskLabel   string `json:"risk_label"`
	Description string `json:"description"`
}

// Adapter queries the INCI Beauty Pro ingredient-score endpoint.
type Adapter struct {
	http *providers.HTTPClient
}

// New builds an Adapter from its declarative HTTPConfig.
func New(cfg providers.HTTPConfig) *Adapter {
	return &Adapter{http: providers.NewHTTPClient(cfg)}
}

func (a *Adapter) ID() ingredient.ProviderID { return ingredient.ProviderINCIBeauty }

// Fetch retrieves INCI Beauty Pro's score for name.
func (a *Adapter) Fetch(ctx context.Context, name ingredient.CanonicalName) ingredient.IngredientFact {
	var body response
	status, err := a.http.FetchJSON(ctx, name, &body)
	if err != nil {
		return providers.FailureFact(a.ID(), name, status)
	}

	score := body.Score
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
		RiskLevel:         riskFromLabel(body.RiskLabel, score),
		EcoScore:          &score,
		Benefits:          body.Description,
		RawPayloadSummary: body.Description,
	}
}

func riskFromLabel(label string, score int) ingredient.RiskLevel {
	if label != "" {
		switch label {
		case "high_risk":
			return ingredient.RiskHigh
		case "moderate_risk":
			return ingredient.RiskModerate
		case "low_risk":
			return ingredient.RiskLow
		case "safe":
			return ingredient.RiskNone
		}
	}
	switch {
	case score < 25:
		return ingredient.RiskHigh
	case score < 55:
		return ingredient.RiskModerate
	case score < 80:
		return ingredient.RiskLow
	default:
		return ingredient.RiskNone
	}
}
