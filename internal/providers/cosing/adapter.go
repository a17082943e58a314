// Package cosing adapts the EU CosIng (Cosmetic Ingredient) database as a
// Provider Adapter (§4.2). CosIng is a functional/regulatory registry rather
// than a hazard assessment, so its risk signal comes only from whether the
// ingredient carries an EU Annex restriction entry (banned substances,
// restricted-use substances) rather than from a graded score.
package cosing

import (
	"context"
	"strings"
	"time"

	"github.com/mommyshops/irae/internal/ingredient"
	"github.com/mommyshops/irae/internal/providers"
)

type response struct {
	Functions     []string `json:"functions"`
	AnnexEntry    string   `json:"annex_entry"` // "II" (prohibited), "III" (restricted), "" (none)
	RestrictionText string `json:"restriction_text"`
}

// Adapter queries the CosIng substance-lookup endpoint.
type Adapter struct {
	http *providers.HTTPClient
}

// New builds an Adapter from its declarative HTTPConfig.
func New(cfg providers.HTTPConfig) *Adapter {
	return &Adapter{http: providers.NewHTTPClient(cfg)}
}

func (a *Adapter) ID() ingredient.ProviderID { return ingredient.ProviderCosIng }

// Fetch retrieves CosIng's Annex classification and function list for name.
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
		RiskLevel:         riskFromAnnex(body.AnnexEntry),
		Benefits:          strings.Join(body.Functions, ", "),
		RisksDetailed:     body.RestrictionText,
		RawPayloadSummary: body.AnnexEntry,
	}
}

func riskFromAnnex(annex string) ingredient.RiskLevel {
	switch strings.TrimSpace(annex) {
	case "II":
		return ingredient.RiskHigh
	case "III":
		return ingredient.RiskModerate
	case "":
		return ingredient.RiskNone
	default:
		return ingredient.RiskUnknown
	}
}
