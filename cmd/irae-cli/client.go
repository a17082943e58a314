package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// apiClient is a minimal JSON client for irae-server's /v1 and /healthz
// routes; it carries no application state beyond the base URL.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{baseURL: baseURL, http: &http.Client{Timeout: 30 * time.Second}}
}

type resolveRequest struct {
	RawTokens   []string `json:"raw_tokens"`
	UserContext string   `json:"user_context"`
	ProductName string   `json:"product_name"`
}

type ingredientDetailDTO struct {
	RawToken      string              `json:"raw_token"`
	CanonicalName string              `json:"canonical_name"`
	Record        ingredientRecordDTO `json:"record"`
}

type ingredientRecordDTO struct {
	CanonicalName string   `json:"canonical_name"`
	EcoScore      int      `json:"eco_score"`
	RiskLevel     string   `json:"risk_level"`
	Benefits      string   `json:"benefits"`
	RisksDetailed string   `json:"risks_detailed"`
	Sources       []string `json:"sources"`
	SchemaVersion int      `json:"schema_version"`
}

type productAnalysisDTO struct {
	ProductName        string                `json:"product_name"`
	IngredientsDetails []ingredientDetailDTO `json:"ingredients_details"`
	AvgEcoScore        float64               `json:"avg_eco_score"`
	Suitability        string                `json:"suitability"`
	Recommendations    string                `json:"recommendations"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e apiError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func (c *apiClient) Resolve(req resolveRequest) (productAnalysisDTO, error) {
	var out productAnalysisDTO
	err := c.doJSON(http.MethodPost, "/v1/resolve", req, &out)
	return out, err
}

func (c *apiClient) GetIngredient(token string) (ingredientRecordDTO, error) {
	var out ingredientRecordDTO
	err := c.doJSON(http.MethodGet, "/v1/ingredients/"+token, nil, &out)
	return out, err
}

func (c *apiClient) Health() (map[string]interface{}, error) {
	var out map[string]interface{}
	err := c.doJSON(http.MethodGet, "/healthz/detail", nil, &out)
	return out, err
}

func (c *apiClient) doJSON(method, path string, body interface{}, out interface{}) error {
	var reqBody *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("irae-server unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr apiError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Message != "" {
			return apiErr
		}
		return fmt.Errorf("irae-server returned status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
