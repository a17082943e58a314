// Package opensearch implements the §4.11 audit search mirror: every
// ExternalSourceLogEntry written to the relational audit table (§6) is
// additionally indexed into OpenSearch under index
// "<prefix>external-source-log" so operators can query "all failures for
// provider X in the last hour" without scanning Postgres. Indexing is
// best-effort; a failure here is logged and never blocks or fails a
// resolution.
package opensearch

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/opensearch-project/opensearch-go/v3"
	"github.com/opensearch-project/opensearch-go/v3/opensearchapi"

	"github.com/mommyshops/irae/internal/config"
	"github.com/mommyshops/irae/internal/ingredient"
	apperrors "github.com/mommyshops/irae/internal/platform/errors"
	"github.com/mommyshops/irae/internal/platform/logging"
)

const auditIndexName = "external-source-log"

// auditDoc is the JSON shape indexed for each audit row.
type auditDoc struct {
	SourceID      ingredient.ProviderID `json:"source_id"`
	CanonicalName ingredient.CanonicalName `json:"canonical_name"`
	StatusCode    ingredient.StatusCode `json:"status_code"`
	FetchedAt     time.Time             `json:"fetched_at"`
	Summary       string                `json:"summary"`
}

// indexAPI is the subset of opensearchapi.Client the indexer needs.
type indexAPI interface {
	Index(ctx context.Context, req opensearchapi.IndexReq) (*opensearchapi.IndexResp, error)
}

// Indexer mirrors audit-log rows into OpenSearch.
type Indexer struct {
	client indexAPI
	index  string
	log    logging.Logger
}

// New constructs an Indexer from configuration.
func New(cfg config.OpenSearchConfig, log logging.Logger) (*Indexer, error) {
	if log == nil {
		log = logging.Default()
	}
	log = log.Named("opensearch-indexer")

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	client, err := opensearchapi.NewClient(opensearchapi.Config{
		Client: opensearch.Config{
			Addresses: cfg.Addresses,
			Username:  cfg.User,
			Password:  cfg.Password,
			Transport: transport,
		},
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to create opensearch client")
	}

	indexName := cfg.IndexPrefix + auditIndexName
	return &Indexer{client: client, index: indexName, log: log}, nil
}

// NewWithAPI injects a fake indexAPI; used by tests.
func NewWithAPI(api indexAPI, index string, log logging.Logger) *Indexer {
	if log == nil {
		log = logging.Default()
	}
	return &Indexer{client: api, index: index, log: log.Named("opensearch-indexer")}
}

// IndexAuditEntry indexes a single external_source_log row. Errors are
// returned to the caller (audit.Sink logs and discards them, per §4.11's
// best-effort contract); they are never
// propagated as a resolution failure.
func (i *Indexer) IndexAuditEntry(ctx context.Context, id string, fact ingredient.IngredientFact) error {
	doc := auditDoc{
		SourceID:      fact.ProviderID,
		CanonicalName: fact.CanonicalName,
		StatusCode:    fact.StatusCode,
		FetchedAt:     fact.FetchedAt,
		Summary:       fact.RawPayloadSummary,
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "failed to marshal audit document")
	}

	_, err = i.client.Index(ctx, opensearchapi.IndexReq{
		Index:      i.index,
		DocumentID: id,
		Body:       bytes.NewReader(body),
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, fmt.Sprintf("failed to index audit entry %s", id))
	}
	return nil
}
