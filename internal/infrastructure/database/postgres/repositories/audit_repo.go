package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mommyshops/irae/internal/ingredient"
	apperrors "github.com/mommyshops/irae/internal/platform/errors"
	"github.com/mommyshops/irae/internal/platform/logging"
)

// ExternalSourceLogEntry is the audit-trail row of §6: one row per provider
// fetch, independent of whether it succeeded.
type ExternalSourceLogEntry struct {
	ID            uuid.UUID
	SourceID      ingredient.ProviderID
	CanonicalName ingredient.CanonicalName
	StatusCode    ingredient.StatusCode
	FetchedAt     time.Time
	Summary       string
}

// AuditRepo persists ExternalSourceLogEntry rows.
type AuditRepo struct {
	pool *pgxpool.Pool
	log  logging.Logger
}

// NewAuditRepo constructs an AuditRepo over an established pool.
func NewAuditRepo(pool *pgxpool.Pool, log logging.Logger) *AuditRepo {
	return &AuditRepo{pool: pool, log: log.Named("postgres.audit_repo")}
}

// LogFact records one IngredientFact as an audit row, regardless of success.
func (r *AuditRepo) LogFact(ctx context.Context, fact ingredient.IngredientFact) error {
	const query = `
		INSERT INTO external_source_log (id, source_id, canonical_name, status_code, fetched_at, summary)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	summary := fact.RawPayloadSummary
	if summary == "" && !fact.Success {
		summary = marshalDebug(map[string]interface{}{"success": false, "status_code": fact.StatusCode})
	}
	_, err := r.pool.Exec(ctx, query,
		uuid.New(), string(fact.ProviderID), string(fact.CanonicalName), string(fact.StatusCode), fact.FetchedAt, summary,
	)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "audit_repo: log fact failed")
	}
	return nil
}
