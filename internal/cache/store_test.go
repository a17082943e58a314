package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mommyshops/irae/internal/ingredient"
	"github.com/mommyshops/irae/internal/platform/logging"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	rec   ingredient.IngredientRecord
	found bool
	err   error
	calls int32
}

func (f *fakeReader) GetRecord(ctx context.Context, name ingredient.CanonicalName) (ingredient.IngredientRecord, bool, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.rec, f.found, f.err
}

func TestStore_L1HitSkipsL2(t *testing.T) {
	l1 := NewL1(10)
	reader := &fakeReader{found: true, rec: ingredient.IngredientRecord{CanonicalName: "water", EcoScore: 90}}
	store := NewStore(l1, reader, time.Minute, time.Minute, logging.NewNop())

	store.PutRecord(ingredient.IngredientRecord{CanonicalName: "water", EcoScore: 95})

	rec, err := store.GetOrResolve(context.Background(), "water", func(ctx context.Context) (ingredient.IngredientRecord, error) {
		t.Fatal("resolve should not be called on L1 hit")
		return ingredient.IngredientRecord{}, nil
	})
	require.NoError(t, err)
	require.Equal(t, 95, rec.EcoScore)
	require.EqualValues(t, 0, reader.calls)
}

func TestStore_L2HitPopulatesL1(t *testing.T) {
	l1 := NewL1(10)
	reader := &fakeReader{found: true, rec: ingredient.IngredientRecord{CanonicalName: "glycerin", EcoScore: 80}}
	store := NewStore(l1, reader, time.Minute, time.Minute, logging.NewNop())

	rec, err := store.GetOrResolve(context.Background(), "glycerin", func(ctx context.Context) (ingredient.IngredientRecord, error) {
		t.Fatal("resolve should not be called on L2 hit")
		return ingredient.IngredientRecord{}, nil
	})
	require.NoError(t, err)
	require.Equal(t, 80, rec.EcoScore)

	_, ok := l1.Get(ingredient.RecordCacheKey("glycerin"))
	require.True(t, ok)
}

func TestStore_MissTriggersSingleFlightedResolve(t *testing.T) {
	l1 := NewL1(10)
	reader := &fakeReader{found: false}
	store := NewStore(l1, reader, time.Minute, time.Minute, logging.NewNop())

	var resolveCalls int32
	resolve := func(ctx context.Context) (ingredient.IngredientRecord, error) {
		atomic.AddInt32(&resolveCalls, 1)
		time.Sleep(20 * time.Millisecond)
		return ingredient.IngredientRecord{CanonicalName: "fragrance", EcoScore: 50}, nil
	}

	var wg sync.WaitGroup
	results := make([]ingredient.IngredientRecord, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			rec, err := store.GetOrResolve(context.Background(), "fragrance", resolve)
			require.NoError(t, err)
			results[idx] = rec
		}(i)
	}
	wg.Wait()

	require.EqualValues(t, 1, resolveCalls)
	for _, r := range results {
		require.Equal(t, 50, r.EcoScore)
	}
}

func TestStore_InvalidateRecordForcesL2Reread(t *testing.T) {
	l1 := NewL1(10)
	reader := &fakeReader{found: true, rec: ingredient.IngredientRecord{CanonicalName: "water", EcoScore: 70}}
	store := NewStore(l1, reader, time.Minute, time.Minute, logging.NewNop())

	store.PutRecord(ingredient.IngredientRecord{CanonicalName: "water", EcoScore: 60})
	store.InvalidateRecord("water")

	rec, err := store.GetOrResolve(context.Background(), "water", func(ctx context.Context) (ingredient.IngredientRecord, error) {
		t.Fatal("L2 has a value; resolve should not run")
		return ingredient.IngredientRecord{}, nil
	})
	require.NoError(t, err)
	require.Equal(t, 70, rec.EcoScore)
}
