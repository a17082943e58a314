// Package sccs adapts the EU Scientific Committee on Consumer Safety (SCCS)
// opinion outcomes as a Provider Adapter (§4.2).
package sccs

import (
	"context"
	"strings"
	"time"

	"github.com/mommyshops/irae/internal/ingredient"
	"github.com/mommyshops/irae/internal/providers"
)

type response struct {
	Opinion        string   `json:"opinion"` // "safe", "safe with restriction", "not safe", "no opinion"
	RestrictedUses []string `json:"restricted_uses"`
	Notes          string   `json:"notes"`
}

// Adapter queries the SCCS opinion-lookup endpoint.
type Adapter struct {
	http *providers.HTTPClient
}

// New builds an Adapter from its declarative HTTPConfig.
func New(cfg providers.HTTPConfig) *Adapter {
	return &Adapter{http: providers.NewHTTPClient(cfg)}
}

func (a *Adapter) ID() ingredient.ProviderID { return ingredient.ProviderSCCS }

// Fetch retrieves SCCS's opinion for name and maps it onto RiskLevel.
func (a *Adapter) Fetch(ctx context.Context, name ingredient.CanonicalName) ingredient.IngredientFact {
	var body response
	status, err := a.http.FetchJSON(ctx, name, &body)
	if err != nil {
		return providers.FailureFact(a.ID(), name, status)
	}

	risksDetailed := body.Notes
	if len(body.RestrictedUses) > 0 {
		risksDetailed = strings.Join(body.RestrictedUses, "; ")
	}

	return ingredient.IngredientFact{
		ProviderID:        a.ID(),
		CanonicalName:     name,
		FetchedAt:         time.Now(),
		StatusCode:        ingredient.StatusSuccess,
		Success:           true,
		RiskLevel:         riskFromOpinion(body.Opinion, len(body.RestrictedUses)),
		RisksDetailed:     risksDetailed,
		RawPayloadSummary: body.Opinion,
	}
}

func riskFromOpinion(opinion string, restrictionCount int) ingredient.RiskLevel {
	switch strings.ToLower(strings.TrimSpace(opinion)) {
	case "not safe":
		return ingredient.RiskHigh
	case "safe with restriction":
		if restrictionCount > 2 {
			return ingredient.RiskModerate
		}
		return ingredient.RiskLow
	case "safe":
		return ingredient.RiskNone
	default:
		return ingredient.RiskUnknown
	}
}
