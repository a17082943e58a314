// Package invima adapts Colombia's INVIMA cosmetic ingredient restriction
// registry as a Provider Adapter (§4.2).
package invima

import (
	"context"
	"strings"
	"time"

	"github.com/mommyshops/irae/internal/ingredient"
	"github.com/mommyshops/irae/internal/providers"
)

type response struct {
	RestrictionLevel string `json:"restriction_level"` // "prohibited", "restricted", "permitted", "unlisted"
	MaxConcentration *float64 `json:"max_concentration_pct"`
	Notes            string `json:"notes"`
}

// Adapter queries the INVIMA ingredient-restriction endpoint.
type Adapter struct {
	http *providers.HTTPClient
}

// New builds an Adapter from its declarative HTTPConfig.
func New(cfg providers.HTTPConfig) *Adapter {
	return &Adapter{http: providers.NewHTTPClient(cfg)}
}

func (a *Adapter) ID() ingredient.ProviderID { return ingredient.ProviderINVIMA }

// Fetch retrieves INVIMA's restriction level for name.
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
		RiskLevel:         riskFromRestriction(body.RestrictionLevel),
		RisksDetailed:     body.Notes,
		RawPayloadSummary: body.RestrictionLevel,
	}
}

func riskFromRestriction(level string) ingredient.RiskLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "prohibited":
		return ingredient.RiskHigh
	case "restricted":
		return ingredient.RiskModerate
	case "permitted":
		return ingredient.RiskNone
	default:
		return ingredient.RiskUnknown
	}
}
