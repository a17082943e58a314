// Package dualstore implements the dual-store writer: a relational primary
// write that is the single authoritative, transaction-bounded persistence
// path, plus a best-effort document-store mirror whose failures never roll
// back the primary. This is the one call-site allowed to write the mirror;
// a failed mirror write is reconciled asynchronously rather than retried
// inline, so the request path never blocks on document-store health.
package dualstore

import (
	"context"
	"time"

	"github.com/mommyshops/irae/internal/ingredient"
	"github.com/mommyshops/irae/internal/platform/errors"
	"github.com/mommyshops/irae/internal/platform/logging"
)

// PrimaryStore is the relational upsert surface (§4.6): "canonical_name as
// the unique key," concurrent writes for the same key serialized by the
// primary's row lock.
type PrimaryStore interface {
	UpsertRecord(ctx context.Context, rec ingredient.IngredientRecord) error
}

// MirrorStore is the best-effort document-store surface. A failure here is
// logged and counted, never surfaced to the caller.
type MirrorStore interface {
	MirrorRecord(ctx context.Context, rec ingredient.IngredientRecord) error
}

// ReconciliationPublisher receives a notice when the mirror write fails, so
// an out-of-process reconciler (§4.6 "retries later") can replay it later.
// Optional: a Writer built without WithReconciliationPublisher simply skips
// publication.
type ReconciliationPublisher interface {
	PublishMirrorFailure(ctx context.Context, rec ingredient.IngredientRecord, cause error) error
}

// Metrics receives mirror-failure counts for observability; optional.
type Metrics interface {
	IncMirrorFailure(provider string)
}

// Writer composes PrimaryStore and MirrorStore per the §4.6 contract: a
// primary failure fails the whole resolution, a mirror failure does not.
type Writer struct {
	primary   PrimaryStore
	mirror    MirrorStore
	publisher ReconciliationPublisher
	metrics   Metrics
	log       logging.Logger
	now       func() time.Time
}

// Option configures optional Writer dependencies.
type Option func(*Writer)

// WithMirror attaches a MirrorStore; omitted means the mirror step is skipped.
func WithMirror(m MirrorStore) Option { return func(w *Writer) { w.mirror = m } }

// WithReconciliationPublisher attaches a publisher invoked when the mirror fails.
func WithReconciliationPublisher(p ReconciliationPublisher) Option {
	return func(w *Writer) { w.publisher = p }
}

// WithMetrics attaches a Metrics sink for mirror failure counts.
func WithMetrics(m Metrics) Option { return func(w *Writer) { w.metrics = m } }

// WithClock overrides the time source used to stamp updated_at; intended
// for tests only.
func WithClock(now func() time.Time) Option { return func(w *Writer) { w.now = now } }

// NewWriter constructs a Writer around a mandatory PrimaryStore.
func NewWriter(primary PrimaryStore, log logging.Logger, opts ...Option) *Writer {
	if log == nil {
		log = logging.Default()
	}
	w := &Writer{primary: primary, log: log.Named("dualstore"), now: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Persist stamps rec's updated_at (and created_at, if unset) and writes it
// to the primary; on primary success it then best-effort mirrors it. If the
// primary write fails the whole operation fails — the caller's L2 view of
// canonical_name stays exactly as stale as before (§4.6). If the mirror
// fails, Persist still returns success; the failure is logged, metered, and
// — if a publisher is configured — queued for asynchronous reconciliation.
func (w *Writer) Persist(ctx context.Context, rec ingredient.IngredientRecord) (ingredient.IngredientRecord, error) {
	now := w.now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	if err := w.primary.UpsertRecord(ctx, rec); err != nil {
		return ingredient.IngredientRecord{}, errors.Wrap(err, errors.CodeInternal, "primary store write failed")
	}

	if w.mirror != nil {
		if err := w.mirror.MirrorRecord(ctx, rec); err != nil {
			w.log.Warn("document-store mirror write failed",
				logging.String("canonical_name", string(rec.CanonicalName)), logging.Err(err))
			if w.metrics != nil {
				w.metrics.IncMirrorFailure(string(rec.CanonicalName))
			}
			if w.publisher != nil {
				if pubErr := w.publisher.PublishMirrorFailure(ctx, rec, err); pubErr != nil {
					w.log.Error("failed to publish mirror-failure reconciliation event",
						logging.String("canonical_name", string(rec.CanonicalName)), logging.Err(pubErr))
				}
			}
		}
	}

	return rec, nil
}
