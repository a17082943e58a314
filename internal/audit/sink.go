// Package audit implements the §4.11 audit trail: every provider fetch,
// successful or not, is logged to the relational external_source_log table
// and best-effort mirrored into the OpenSearch search index. Sink composes
// both destinations behind one call so the orchestrator's fan-out never
// needs to know there are two of them.
package audit

import (
	"context"

	"github.com/google/uuid"

	"github.com/mommyshops/irae/internal/ingredient"
	"github.com/mommyshops/irae/internal/orchestrator"
	"github.com/mommyshops/irae/internal/platform/logging"
)

// FactLogger is the relational audit-row writer; repositories.AuditRepo
// satisfies it.
type FactLogger interface {
	LogFact(ctx context.Context, fact ingredient.IngredientFact) error
}

// EntryIndexer is the search-mirror writer; opensearch.Indexer satisfies it.
type EntryIndexer interface {
	IndexAuditEntry(ctx context.Context, id string, fact ingredient.IngredientFact) error
}

// Sink fans one IngredientFact out to the audit repository and, when
// configured, the search mirror. Either dependency may be nil, in which
// case that destination is simply skipped; a nil *Sink is also safe to
// call Record on.
type Sink struct {
	repo    FactLogger
	indexer EntryIndexer
	log     logging.Logger
}

// NewSink constructs a Sink. repo and indexer may each be nil.
func NewSink(repo FactLogger, indexer EntryIndexer, log logging.Logger) *Sink {
	if log == nil {
		log = logging.Default()
	}
	return &Sink{repo: repo, indexer: indexer, log: log.Named("audit")}
}

// Record writes fact to every configured destination. Failures are logged
// and swallowed: the audit trail is diagnostic, never a resolution
// dependency (§4.11's "best-effort" contract).
func (s *Sink) Record(ctx context.Context, fact ingredient.IngredientFact) {
	if s == nil {
		return
	}
	id := uuid.New().String()
	if s.repo != nil {
		if err := s.repo.LogFact(ctx, fact); err != nil {
			s.log.Warn("audit repo write failed",
				logging.String("provider", string(fact.ProviderID)),
				logging.String("canonical_name", string(fact.CanonicalName)),
				logging.Err(err))
		}
	}
	if s.indexer != nil {
		if err := s.indexer.IndexAuditEntry(ctx, id, fact); err != nil {
			s.log.Warn("audit search mirror write failed",
				logging.String("provider", string(fact.ProviderID)),
				logging.String("canonical_name", string(fact.CanonicalName)),
				logging.Err(err))
		}
	}
}

// fetcher decorates an orchestrator.Fetcher, recording every outcome to a
// Sink before returning it unchanged to the caller.
type fetcher struct {
	next orchestrator.Fetcher
	sink *Sink
}

// Wrap returns next decorated with sink's audit logging. next is returned
// unchanged if sink is nil, so callers can wire this unconditionally.
func Wrap(next orchestrator.Fetcher, sink *Sink) orchestrator.Fetcher {
	if sink == nil {
		return next
	}
	return &fetcher{next: next, sink: sink}
}

func (f *fetcher) Fetch(ctx context.Context, name ingredient.CanonicalName) ingredient.IngredientFact {
	fact := f.next.Fetch(ctx, name)
	f.sink.Record(ctx, fact)
	return fact
}
