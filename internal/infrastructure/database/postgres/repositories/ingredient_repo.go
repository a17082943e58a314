// Package repositories contains the PostgreSQL-backed repository
// implementations for the engine's relational store (§5): the `ingredient`
// table (IngredientRecord, §3) and the `external_source_log` audit table
// (§6).
package repositories

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mommyshops/irae/internal/ingredient"
	apperrors "github.com/mommyshops/irae/internal/platform/errors"
	"github.com/mommyshops/irae/internal/platform/logging"
)

// IngredientRepo is the relational store for IngredientRecord, satisfying
// both cache.RecordReader (L2 read path, §4.4) and dualstore.PrimaryStore
// (authoritative write path, §4.6).
type IngredientRepo struct {
	pool *pgxpool.Pool
	log  logging.Logger
}

// NewIngredientRepo constructs an IngredientRepo over an established pool.
func NewIngredientRepo(pool *pgxpool.Pool, log logging.Logger) *IngredientRepo {
	return &IngredientRepo{pool: pool, log: log.Named("postgres.ingredient_repo")}
}

// GetRecord implements cache.RecordReader: the Cache Tier's L2 fallback on
// an L1 miss (§4.4).
func (r *IngredientRepo) GetRecord(ctx context.Context, name ingredient.CanonicalName) (ingredient.IngredientRecord, bool, error) {
	const query = `
		SELECT canonical_name, eco_score, risk_level, benefits, risks_detailed,
		       sources, created_at, updated_at, schema_version
		FROM ingredient
		WHERE canonical_name = $1
	`
	var rec ingredient.IngredientRecord
	var sources []string
	err := r.pool.QueryRow(ctx, query, string(name)).Scan(
		&rec.CanonicalName, &rec.EcoScore, &rec.RiskLevel, &rec.Benefits, &rec.RisksDetailed,
		&sources, &rec.CreatedAt, &rec.UpdatedAt, &rec.SchemaVersion,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ingredient.IngredientRecord{}, false, nil
		}
		return ingredient.IngredientRecord{}, false, apperrors.Wrap(err, apperrors.CodeInternal, "ingredient_repo: get record failed")
	}
	rec.Sources = toProviderIDs(sources)
	return rec, true, nil
}

// UpsertRecord implements dualstore.PrimaryStore: the Dual-Store Writer's
// authoritative write (§4.6). A failure here fails the whole resolution.
func (r *IngredientRepo) UpsertRecord(ctx context.Context, rec ingredient.IngredientRecord) error {
	const query = `
		INSERT INTO ingredient (
			canonical_name, eco_score, risk_level, benefits, risks_detailed,
			sources, created_at, updated_at, schema_version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (canonical_name) DO UPDATE SET
			eco_score = EXCLUDED.eco_score,
			risk_level = EXCLUDED.risk_level,
			benefits = EXCLUDED.benefits,
			risks_detailed = EXCLUDED.risks_detailed,
			sources = EXCLUDED.sources,
			updated_at = EXCLUDED.updated_at,
			schema_version = EXCLUDED.schema_version
	`
	_, err := r.pool.Exec(ctx, query,
		string(rec.CanonicalName), rec.EcoScore, string(rec.RiskLevel), rec.Benefits, rec.RisksDetailed,
		fromProviderIDs(rec.Sources), rec.CreatedAt, rec.UpdatedAt, rec.SchemaVersion,
	)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "ingredient_repo: upsert record failed")
	}
	return nil
}

func toProviderIDs(ss []string) []ingredient.ProviderID {
	out := make([]ingredient.ProviderID, len(ss))
	for i, s := range ss {
		out[i] = ingredient.ProviderID(s)
	}
	return out
}

func fromProviderIDs(ps []ingredient.ProviderID) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = string(p)
	}
	return out
}

// marshalDebug is used only by AuditRepo.LogFact to build a compact JSON
// summary for a failed fact that carries no raw payload summary.
func marshalDebug(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
