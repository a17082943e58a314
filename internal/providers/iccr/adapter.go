// Package iccr adapts International Cooperation on Cosmetics Regulation
// (ICCR) harmonization status lookups as a Provider Adapter (§4.2). ICCR
// publishes cross-jurisdiction alignment findings rather than its own
// independent safety tests, so its risk signal is deliberately coarse.
package iccr

import (
	"context"
	"strings"
	"time"

	"github.com/mommyshops/irae/internal/ingredient"
	"github.com/mommyshops/irae/internal/providers"
)

type response struct {
	HarmonizationStatus string `json:"harmonization_status"` // "aligned", "divergent", "flagged", "not_reviewed"
	Summary              string `json:"summary"`
}

// Adapter queries the ICCR harmonization-status endpoint.
type Adapter struct {
	http *providers.HTTPClient
}

// New builds an Adapter from its declarative HTTPConfig.
func New(cfg providers.HTTPConfig) *Adapter {
	return &Adapter{http: providers.NewHTTPClient(cfg)}
}

func (a *Adapter) ID() ingredient.ProviderID { return ingredient.ProviderICCR }

// Fetch retrieves ICCR's harmonization status for name.
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
		RiskLevel:         riskFromStatus(body.HarmonizationStatus),
		RisksDetailed:     body.Summary,
		RawPayloadSummary: body.HarmonizationStatus,
	}
}

func riskFromStatus(status string) ingredient.RiskLevel {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "flagged":
		return ingredient.RiskModerate
	case "divergent":
		return ingredient.RiskLow
	case "aligned":
		return ingredient.RiskNone
	default:
		return ingredient.RiskUnknown
	}
}
