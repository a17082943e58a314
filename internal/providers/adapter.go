// Package providers defines the Provider Adapter contract (§4.2) and the
// declarative registry (§4.9/C9) that the orchestrator fans out through.
// Concrete adapters live in sibling packages (fdafaers, pubchem, ewg, cir,
// sccs, iccr, invima, iarc, incibeauty, cosing) and are wired together only
// through this interface — the orchestrator never imports a concrete
// adapter package.
package providers

import (
	"context"
	"time"

	"github.com/mommyshops/irae/internal/ingredient"
)

// Adapter is implemented once per external information source. Fetch must
// never panic and must always return a fully-formed IngredientFact — a
// failure is a legitimate outcome (success=false with a status code), not a
// Go error. The Resilience Layer wraps every Adapter and is the only caller
// that invokes Fetch directly.
type Adapter interface {
	// ID returns this adapter's stable ProviderID, matching its registry entry.
	ID() ingredient.ProviderID
	// Fetch retrieves and parses this provider's answer for name, honoring
	// ctx's deadline. It must not block past ctx's deadline.
	Fetch(ctx context.Context, name ingredient.CanonicalName) ingredient.IngredientFact
}

// FailureFact builds a well-formed failure IngredientFact, the shape every
// Adapter (and the Resilience Layer, on its behalf) must return instead of
// propagating a Go error across the adapter boundary.
func FailureFact(id ingredient.ProviderID, name ingredient.CanonicalName, status ingredient.StatusCode) ingredient.IngredientFact {
	return ingredient.IngredientFact{
		ProviderID:    id,
		CanonicalName: name,
		FetchedAt:     time.Now(),
		StatusCode:    status,
		Success:       false,
	}
}
