// internal/interfaces/http/handlers/resolve_handler.go implements the HTTP
// facade for Op1 (POST /v1/resolve) and Op2 (GET /v1/ingredients/{token}),
// translating between the wire JSON shape and internal/orchestrator.Engine.

package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mommyshops/irae/internal/ingredient"
	"github.com/mommyshops/irae/internal/orchestrator"
)

// ResolveHandler serves Op1/Op2 over HTTP.
type ResolveHandler struct {
	engine *orchestrator.Engine
}

// NewResolveHandler constructs a ResolveHandler backed by engine.
func NewResolveHandler(engine *orchestrator.Engine) *ResolveHandler {
	return &ResolveHandler{engine: engine}
}

// RegisterRoutes mounts the resolve and get-ingredient routes onto r.
func (h *ResolveHandler) RegisterRoutes(r chi.Router) {
	r.Post("/resolve", h.Resolve)
	r.Get("/ingredients/{token}", h.GetIngredient)
}

// resolveRequest is POST /v1/resolve's request body.
type resolveRequest struct {
	RawTokens   []string `json:"raw_tokens"`
	UserContext string   `json:"user_context"`
	ProductName string   `json:"product_name"`
}

// ingredientDetailDTO is the wire shape of ingredient.IngredientDetail.
type ingredientDetailDTO struct {
	RawToken      string              `json:"raw_token"`
	CanonicalName string              `json:"canonical_name"`
	Record        ingredientRecordDTO `json:"record"`
}

// ingredientRecordDTO is the wire shape of ingredient.IngredientRecord.
type ingredientRecordDTO struct {
	CanonicalName string   `json:"canonical_name"`
	EcoScore      int      `json:"eco_score"`
	RiskLevel     string   `json:"risk_level"`
	Benefits      string   `json:"benefits"`
	RisksDetailed string   `json:"risks_detailed"`
	Sources       []string `json:"sources"`
	SchemaVersion int      `json:"schema_version"`
}

// productAnalysisDTO is the wire shape of ingredient.ProductAnalysis.
type productAnalysisDTO struct {
	ProductName        string                `json:"product_name"`
	IngredientsDetails []ingredientDetailDTO `json:"ingredients_details"`
	AvgEcoScore        float64               `json:"avg_eco_score"`
	Suitability        string                `json:"suitability"`
	Recommendations    string                `json:"recommendations"`
}

func toRecordDTO(rec ingredient.IngredientRecord) ingredientRecordDTO {
	sources := make([]string, len(rec.Sources))
	for i, s := range rec.Sources {
		sources[i] = string(s)
	}
	return ingredientRecordDTO{
		CanonicalName: string(rec.CanonicalName),
		EcoScore:      rec.EcoScore,
		RiskLevel:     string(rec.RiskLevel),
		Benefits:      rec.Benefits,
		RisksDetailed: rec.RisksDetailed,
		Sources:       sources,
		SchemaVersion: rec.SchemaVersion,
	}
}

func toProductAnalysisDTO(pa ingredient.ProductAnalysis) productAnalysisDTO {
	details := make([]ingredientDetailDTO, len(pa.IngredientsDetails))
	for i, d := range pa.IngredientsDetails {
		details[i] = ingredientDetailDTO{
			RawToken:      d.RawToken,
			CanonicalName: string(d.CanonicalName),
			Record:        toRecordDTO(d.Record),
		}
	}
	return productAnalysisDTO{
		ProductName:        pa.ProductName,
		IngredientsDetails: details,
		AvgEcoScore:        pa.AvgEcoScore,
		Suitability:        string(pa.Suitability),
		Recommendations:    pa.Recommendations,
	}
}

// Resolve handles POST /v1/resolve (Op1).
func (h *ResolveHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	analysis, err := h.engine.ResolveIngredients(r.Context(), req.RawTokens, req.UserContext, req.ProductName)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProductAnalysisDTO(analysis))
}

// GetIngredient handles GET /v1/ingredients/{token} (Op2).
func (h *ResolveHandler) GetIngredient(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(chi.URLParam(r, "token"))

	rec, err := h.engine.GetIngredient(r.Context(), token)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRecordDTO(rec))
}

