package cache

import (
	"context"
	"time"

	"github.com/mommyshops/irae/internal/ingredient"
	"github.com/mommyshops/irae/internal/platform/logging"
	"golang.org/x/sync/singleflight"
)

// RecordReader is the L2 read surface the Cache Tier depends on: the
// relational ingredient table, read under READ COMMITTED per §4.4. It is an
// interface here so internal/cache never imports internal/infrastructure
// directly; the concrete Postgres-backed implementation is wired in
// cmd/irae-server.
type RecordReader interface {
	GetRecord(ctx context.Context, name ingredient.CanonicalName) (ingredient.IngredientRecord, bool, error)
}

// Store composes L1 and L2 per §4.4's read path (L1 → L2 → resolution) and
// guarantees single-flight resolution per canonical_name, grounded on the
// teacher's redisCache.GetOrSet (internal/infrastructure/database/redis/cache.go).
type Store struct {
	l1        *L1
	l2        RecordReader
	recordTTL time.Duration
	factTTL   time.Duration
	sf        singleflight.Group
	log       logging.Logger
}

// NewStore constructs a Store. l2 may be nil, in which case the read path
// degrades to L1-only (every L1 miss triggers resolution directly).
func NewStore(l1 *L1, l2 RecordReader, recordTTL, factTTL time.Duration, log logging.Logger) *Store {
	if log == nil {
		log = logging.Default()
	}
	return &Store{l1: l1, l2: l2, recordTTL: recordTTL, factTTL: factTTL, log: log.Named("cache")}
}

// GetFact returns a cached provider fact, if present and unexpired.
func (s *Store) GetFact(provider ingredient.ProviderID, name ingredient.CanonicalName) (ingredient.IngredientFact, bool) {
	v, ok := s.l1.Get(ingredient.FactCacheKey(provider, name))
	if !ok {
		return ingredient.IngredientFact{}, false
	}
	fact, ok := v.(ingredient.IngredientFact)
	return fact, ok
}

// PutFact caches a provider fact under its standard L1 key.
func (s *Store) PutFact(fact ingredient.IngredientFact) {
	s.l1.Set(ingredient.FactCacheKey(fact.ProviderID, fact.CanonicalName), fact, s.factTTL)
}

// GetOrResolve implements §4.4's full read path for an aggregated record
// without a staleness budget: L1(record) → L2 (any age) → single-flighted
// resolve. Used where "fresher than record_max_age" does not apply, e.g.
// tests and simple callers; the orchestrator uses Resolve instead, which
// adds the record_max_age freshness check from §4.7 step 3.
func (s *Store) GetOrResolve(ctx context.Context, name ingredient.CanonicalName, resolve func(ctx context.Context) (ingredient.IngredientRecord, error)) (ingredient.IngredientRecord, error) {
	return s.Resolve(ctx, name, 0, func(ctx context.Context, _ *ingredient.IngredientRecord) (ingredient.IngredientRecord, error) {
		return resolve(ctx)
	})
}

// Resolve implements §4.7 Op1 algorithm step 3's per-ingredient read path:
// L1(record) hit → return; else L2 hit fresher than maxAge → return; else
// single-flighted resolve, which receives the stale L2 record (nil if there
// was none) so the caller can fall back to it when provider fan-out yields
// fewer than min_providers_for_fresh results (§4.7 step 4). maxAge <= 0
// disables the freshness check: any L2 hit is treated as fresh.
func (s *Store) Resolve(ctx context.Context, name ingredient.CanonicalName, maxAge time.Duration, resolve func(ctx context.Context, stale *ingredient.IngredientRecord) (ingredient.IngredientRecord, error)) (ingredient.IngredientRecord, error) {
	key := ingredient.RecordCacheKey(name)

	if v, ok := s.l1.Get(key); ok {
		if rec, ok := v.(ingredient.IngredientRecord); ok {
			return rec, nil
		}
	}

	var stale *ingredient.IngredientRecord
	if s.l2 != nil {
		rec, found, err := s.l2.GetRecord(ctx, name)
		if err != nil {
			s.log.Warn("L2 read failed, falling through to resolution",
				logging.String("canonical_name", string(name)), logging.Err(err))
		} else if found {
			if maxAge <= 0 || time.Since(rec.UpdatedAt) < maxAge {
				s.l1.Set(key, rec, s.recordTTL)
				return rec, nil
			}
			r := rec
			stale = &r
		}
	}

	v, err, _ := s.sf.Do(string(key), func() (interface{}, error) {
		rec, err := resolve(ctx, stale)
		if err != nil {
			return ingredient.IngredientRecord{}, err
		}
		s.l1.Set(key, rec, s.recordTTL)
		return rec, nil
	})
	if err != nil {
		return ingredient.IngredientRecord{}, err
	}
	return v.(ingredient.IngredientRecord), nil
}

// InvalidateRecord evicts a record from L1, used after a write so the next
// read observes the freshly-written value rather than a stale cached one.
func (s *Store) InvalidateRecord(name ingredient.CanonicalName) {
	s.l1.Delete(ingredient.RecordCacheKey(name))
}

// PutRecord populates L1 directly, used by the Dual-Store Writer right
// after a successful primary write (§4.4 write path: "write L2 then update
// L1(record)").
func (s *Store) PutRecord(rec ingredient.IngredientRecord) {
	s.l1.Set(ingredient.RecordCacheKey(rec.CanonicalName), rec, s.recordTTL)
}

// Stats exposes the L1 per-prefix counters for Health reporting.
func (s *Store) Stats() map[string]Stats { return s.l1.SnapshotStats() }

// Len returns the current L1 size, for HealthReport.cache.size.
func (s *Store) Len() int { return s.l1.Len() }
