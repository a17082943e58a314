// Package iarc adapts IARC carcinogen monograph classifications, retrieved
// via PubMed-indexed monograph summaries, as a Provider Adapter (§4.2). IARC
// sits first in the default provider priority order (§4.5 R1): it is the
// most authoritative source this engine consults.
package iarc

import (
	"context"
	"strings"
	"time"

	"github.com/mommyshops/irae/internal/ingredient"
	"github.com/mommyshops/irae/internal/providers"
)

type response struct {
	Group   string `json:"group"` // "1", "2A", "2B", "3", "4", "not_classified"
	Summary string `json:"summary"`
}

// Adapter queries the IARC monograph-group lookup endpoint.
type Adapter struct {
	http *providers.HTTPClient
}

// New builds an Adapter from its declarative HTTPConfig.
func New(cfg providers.HTTPConfig) *Adapter {
	return &Adapter{http: providers.NewHTTPClient(cfg)}
}

func (a *Adapter) ID() ingredient.ProviderID { return ingredient.ProviderIARC }

// Fetch retrieves the IARC carcinogen group for name and maps it onto
// RiskLevel: Group 1 (carcinogenic) and 2A (probably carcinogenic) → high,
// 2B (possibly carcinogenic) → moderate, 3 (not classifiable) → unknown,
// 4 (probably not carcinogenic) → none.
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
		RiskLevel:         riskFromGroup(body.Group),
		RisksDetailed:     body.Summary,
		RawPayloadSummary: body.Group,
	}
}

func riskFromGroup(group string) ingredient.RiskLevel {
	switch strings.TrimSpace(group) {
	case "1", "2A":
		return ingredient.RiskHigh
	case "2B":
		return ingredient.RiskModerate
	case "4":
		return ingredient.RiskNone
	case "3":
		return ingredient.RiskUnknown
	default:
		return ingredient.RiskUnknown
	}
}
