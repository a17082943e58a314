// Package cir adapts the Cosmetic Ingredient Review (CIR) expert panel
// safety conclusions as a Provider Adapter (§4.2).
package cir

import (
	"context"
	"strings"
	"time"

	"github.com/mommyshops/irae/internal/ingredient"
	"github.com/mommyshops/irae/internal/providers"
)

type response struct {
	Conclusion string `json:"conclusion"` // "safe", "safe with qualifications", "insufficient data", "unsafe"
	Benefits   string `json:"benefits"`
	Notes      string `json:"notes"`
}

// Adapter queries the CIR final-report-conclusion endpoint.
type Adapter struct {
	http *providers.HTTPClient
}

// New builds an Adapter from its declarative HTTPConfig.
func New(cfg providers.HTTPConfig) *Adapter {
	return &Adapter{http: providers.NewHTTPClient(cfg)}
}

func (a *Adapter) ID() ingredient.ProviderID { return ingredient.ProviderCIR }

// Fetch retrieves CIR's safety conclusion and maps its expert-panel
// vocabulary onto RiskLevel; "insufficient data" maps to unknown rather than
// none, since CIR itself declines to render a verdict in that case.
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
		RiskLevel:         riskFromConclusion(body.Conclusion),
		Benefits:          body.Benefits,
		RisksDetailed:     body.Notes,
		RawPayloadSummary: body.Conclusion,
	}
}

func riskFromConclusion(conclusion string) ingredient.RiskLevel {
	switch strings.ToLower(strings.TrimSpace(conclusion)) {
	case "unsafe":
		return ingredient.RiskHigh
	case "safe with qualifications":
		return ingredient.RiskModerate
	case "safe":
		return ingredient.RiskNone
	case "insufficient data":
		return ingredient.RiskUnknown
	default:
		return ingredient.RiskUnknown
	}
}
