//go:build integration

package repositories

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/mommyshops/irae/internal/ingredient"
	"github.com/mommyshops/irae/internal/platform/logging"
)

func connectForTest(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("INTEGRATION_TEST_DB_URL")
	if url == "" {
		t.Skip("INTEGRATION_TEST_DB_URL not set; skipping integration test")
	}
	pool, err := pgxpool.New(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestIngredientRepo_UpsertAndGetRoundTrip(t *testing.T) {
	pool := connectForTest(t)
	repo := NewIngredientRepo(pool, logging.NewNop())
	ctx := context.Background()

	rec := ingredient.IngredientRecord{
		CanonicalName: "water",
		EcoScore:      95,
		RiskLevel:     ingredient.RiskNone,
		Sources:       []ingredient.ProviderID{ingredient.ProviderEWG},
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
		SchemaVersion: ingredient.SchemaVersion,
	}
	require.NoError(t, repo.UpsertRecord(ctx, rec))

	got, ok, err := repo.GetRecord(ctx, "water")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, rec.EcoScore, got.EcoScore)
	require.Equal(t, rec.RiskLevel, got.RiskLevel)
}

func TestIngredientRepo_GetRecord_MissingReturnsFalse(t *testing.T) {
	pool := connectForTest(t)
	repo := NewIngredientRepo(pool, logging.NewNop())

	_, ok, err := repo.GetRecord(context.Background(), "definitely-not-present")
	require.NoError(t, err)
	require.False(t, ok)
}
