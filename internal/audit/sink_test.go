package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mommyshops/irae/internal/ingredient"
	"github.com/mommyshops/irae/internal/platform/logging"
)

type fakeFactLogger struct {
	calls []ingredient.IngredientFact
	err   error
}

func (f *fakeFactLogger) LogFact(_ context.Context, fact ingredient.IngredientFact) error {
	f.calls = append(f.calls, fact)
	return f.err
}

type fakeEntryIndexer struct {
	calls int
	err   error
}

func (f *fakeEntryIndexer) IndexAuditEntry(_ context.Context, _ string, _ ingredient.IngredientFact) error {
	f.calls++
	return f.err
}

type fakeFetcher struct {
	fact ingredient.IngredientFact
}

func (f *fakeFetcher) Fetch(_ context.Context, _ ingredient.CanonicalName) ingredient.IngredientFact {
	return f.fact
}

func TestSink_RecordWritesBothDestinations(t *testing.T) {
	repo := &fakeFactLogger{}
	indexer := &fakeEntryIndexer{}
	sink := NewSink(repo, indexer, logging.NewNop())

	fact := ingredient.IngredientFact{ProviderID: "fda_faers", CanonicalName: "water", Success: true}
	sink.Record(context.Background(), fact)

	assert.Len(t, repo.calls, 1)
	assert.Equal(t, 1, indexer.calls)
}

func TestSink_RecordSwallowsErrors(t *testing.T) {
	repo := &fakeFactLogger{err: errors.New("boom")}
	indexer := &fakeEntryIndexer{err: errors.New("boom")}
	sink := NewSink(repo, indexer, logging.NewNop())

	assert.NotPanics(t, func() {
		sink.Record(context.Background(), ingredient.IngredientFact{ProviderID: "pubchem"})
	})
}

func TestSink_NilSinkRecordIsNoop(t *testing.T) {
	var sink *Sink
	assert.NotPanics(t, func() {
		sink.Record(context.Background(), ingredient.IngredientFact{})
	})
}

func TestWrap_NilSinkReturnsNextUnchanged(t *testing.T) {
	next := &fakeFetcher{fact: ingredient.IngredientFact{ProviderID: "ewg"}}
	wrapped := Wrap(next, nil)
	assert.Same(t, next, wrapped)
}

func TestWrap_RecordsEveryFetch(t *testing.T) {
	repo := &fakeFactLogger{}
	sink := NewSink(repo, nil, logging.NewNop())
	next := &fakeFetcher{fact: ingredient.IngredientFact{ProviderID: "cir", CanonicalName: "glycerin"}}

	wrapped := Wrap(next, sink)
	got := wrapped.Fetch(context.Background(), "glycerin")

	assert.Equal(t, next.fact, got)
	assert.Len(t, repo.calls, 1)
	assert.Equal(t, ingredient.CanonicalName("glycerin"), repo.calls[0].CanonicalName)
}
