package providers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mommyshops/irae/internal/ingredient"
)

// HTTPConfig is the declarative, per-provider shape named in §6: base URL,
// auth header template (sourced from an env var by name), and a path
// template containing "{canonical_name}".
type HTTPConfig struct {
	BaseURL     string
	PathTemplate string // e.g. "/ingredients/{canonical_name}/safety"
	AuthEnvVar  string // name of the env var holding the API key, empty if none
	AuthHeader  string // header name to carry the API key, default "Authorization"
}

// HTTPClient is the shared transport every concrete adapter uses to issue
// its single outbound request. A custom http.Client (with its own
// transport-level timeout) may be injected for tests.
type HTTPClient struct {
	Client *http.Client
	Config HTTPConfig
}

// NewHTTPClient builds an HTTPClient with a bounded default timeout; callers
// still rely on ctx's deadline as the authoritative bound (§4.2 "must honor
// the deadline passed via context").
func NewHTTPClient(cfg HTTPConfig) *HTTPClient {
	return &HTTPClient{
		Client: &http.Client{Timeout: 10 * time.Second},
		Config: cfg,
	}
}

// buildURL substitutes {canonical_name} into the path template and joins it
// with BaseURL.
func (h *HTTPClient) buildURL(name ingredient.CanonicalName) (string, error) {
	path := strings.ReplaceAll(h.Config.PathTemplate, "{canonical_name}", url.PathEscape(string(name)))
	base := strings.TrimSuffix(h.Config.BaseURL, "/")
	return base + path, nil
}

// classify maps a transport-level failure or HTTP status to the §7/§4.3
// status-code vocabulary.
func classify(err error, statusCode int) ingredient.StatusCode {
	if err != nil {
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return ingredient.StatusTimeout
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return ingredient.StatusTimeout
		}
		return ingredient.StatusConnReset
	}
	switch {
	case statusCode == http.StatusTooManyRequests:
		return ingredient.StatusRateLimited
	case statusCode >= 500:
		return ingredient.StatusUpstream5xx
	case statusCode >= 400:
		return ingredient.StatusUpstream4xx
	}
	return ingredient.StatusSuccess
}

// FetchJSON issues the GET request for name and decodes the response body
// into dest. It always returns a StatusCode describing the outcome so
// callers can build a failure IngredientFact without inspecting err
// themselves; err is non-nil for transport and parse failures and for any
// response status of 300 or above.
func (h *HTTPClient) FetchJSON(ctx context.Context, name ingredient.CanonicalName, dest interface{}) (ingredient.StatusCode, error) {
	reqURL, err := h.buildURL(name)
	if err != nil {
		return ingredient.StatusParseError, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return ingredient.StatusParseError, err
	}
	if h.Config.AuthEnvVar != "" {
		header := h.Config.AuthHeader
		if header == "" {
			header = "Authorization"
		}
		if key := os.Getenv(h.Config.AuthEnvVar); key != "" {
			req.Header.Set(header, key)
		}
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return classify(err, 0), err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return classify(nil, resp.StatusCode), errStatus(resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ingredient.StatusParseError, err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return ingredient.StatusParseError, err
	}
	return ingredient.StatusSuccess, nil
}

type statusError struct{ code int }

func (e *statusError) Error() string { return http.StatusText(e.code) }

func errStatus(code int) error { return &statusError{code: code} }
