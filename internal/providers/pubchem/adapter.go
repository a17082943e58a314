// Package pubchem adapts PubChem's PUG View GHS classification data as a
// Provider Adapter (§4.2), turning the count and severity of a compound's
// GHS hazard statements into a RiskLevel.
package pubchem

import (
	"context"
	"strings"
	"time"

	"github.com/mommyshops/irae/internal/ingredient"
	"github.com/mommyshops/irae/internal/providers"
)

type response struct {
	GHSHazardStatements []string `json:"ghs_hazard_statements"` // e.g. "H301: Toxic if swallowed"
	CID                 int      `json:"cid"`
}

// Adapter queries PubChem's compound safety summary endpoint.
type Adapter struct {
	http *providers.HTTPClient
}

// New builds an Adapter from its declarative HTTPConfig.
func New(cfg providers.HTTPConfig) *Adapter {
	return &Adapter{http: providers.NewHTTPClient(cfg)}
}

func (a *Adapter) ID() ingredient.ProviderID { return ingredient.ProviderPubChem }

// Fetch retrieves GHS hazard statements for name. PubChem contributes no
// numeric eco_score: its value is corroborating risk_level and a
// RawPayloadSummary of the raw H-codes, not a weighted score input.
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
		RiskLevel:         riskFromHazardStatements(body.GHSHazardStatements),
		RawPayloadSummary: strings.Join(body.GHSHazardStatements, "; "),
	}
}

// riskFromHazardStatements classifies by the most severe GHS hazard class
// code present: H3xx (acute toxicity/severe) → high, H2xx → moderate, any
// other statement present → low, none → none.
func riskFromHazardStatements(statements []string) ingredient.RiskLevel {
	risk := ingredient.RiskNone
	for _, s := range statements {
		code := strings.TrimSpace(s)
		switch {
		case strings.HasPrefix(code, "H3"):
			return ingredient.RiskHigh
		case strings.HasPrefix(code, "H2"):
			if risk != ingredient.RiskHigh {
				risk = ingredient.RiskModerate
			}
		case code != "":
			if risk == ingredient.RiskNone {
				risk = ingredient.RiskLow
			}
		}
	}
	return risk
}
