package neo4j

import (
	"context"
	"sync"
	"time"

	"github.com/mommyshops/irae/internal/canonical"
	"github.com/mommyshops/irae/internal/platform/logging"
)

// graphReader is the subset of *Driver the synonym graph needs; narrowed so
// tests can substitute a fake driver.
type graphReader interface {
	ExecuteRead(ctx context.Context, work func(Transaction) (interface{}, error)) (interface{}, error)
}

const synonymCypher = `
MATCH (alias:Ingredient)-[:SYNONYM_OF]->(canon:Ingredient)
RETURN alias.normalized_name AS alias, canon.normalized_name AS canonical
`

// SynonymGraph is a canonical.SynonymResolver backed by a Neo4j synonym
// graph, loaded into memory at construction and refreshed on a timer. A
// lookup miss, or any refresh failure leaving the graph never populated,
// falls through to canonical.StaticResolver — the graph only ever adds
// aliases on top of the built-in table, it never removes from it.
type SynonymGraph struct {
	driver   graphReader
	fallback canonical.SynonymResolver
	log      logging.Logger

	mu      sync.RWMutex
	synonym map[string]string
}

// NewSynonymGraph constructs a SynonymGraph and performs a first, blocking
// load so the resolver is useful as soon as it is wired in; a failed first
// load leaves the resolver purely on canonical.StaticResolver until the
// next refresh succeeds.
func NewSynonymGraph(driver graphReader, log logging.Logger) *SynonymGraph {
	if log == nil {
		log = logging.Default()
	}
	g := &SynonymGraph{
		driver:   driver,
		fallback: canonical.StaticResolver,
		log:      log.Named("synonym-graph"),
		synonym:  make(map[string]string),
	}
	if err := g.reload(context.Background()); err != nil {
		g.log.Warn("initial synonym graph load failed; falling back to static table", logging.Err(err))
	}
	return g
}

// Resolve implements canonical.SynonymResolver. It never performs I/O: it
// consults the in-memory snapshot, falling back to the static table on a
// miss.
func (g *SynonymGraph) Resolve(normalized string) string {
	g.mu.RLock()
	canon, ok := g.synonym[normalized]
	g.mu.RUnlock()
	if ok {
		return canon
	}
	return g.fallback.Resolve(normalized)
}

func (g *SynonymGraph) reload(ctx context.Context) error {
	raw, err := g.driver.ExecuteRead(ctx, func(tx Transaction) (interface{}, error) {
		result, err := tx.Run(ctx, synonymCypher, nil)
		if err != nil {
			return nil, err
		}
		next := make(map[string]string)
		for result.Next(ctx) {
			rec := result.Record()
			alias, aok := rec.Get("alias")
			canon, cok := rec.Get("canonical")
			if !aok || !cok {
				continue
			}
			aliasStr, _ := alias.(string)
			canonStr, _ := canon.(string)
			if aliasStr != "" && canonStr != "" {
				next[aliasStr] = canonStr
			}
		}
		if err := result.Err(); err != nil {
			return nil, err
		}
		return next, nil
	})
	if err != nil {
		return err
	}

	next, ok := raw.(map[string]string)
	if !ok {
		return nil
	}
	g.mu.Lock()
	g.synonym = next
	g.mu.Unlock()
	return nil
}

// Refresh runs reload once; intended to be called on a timer by the
// owning process (see RunRefreshLoop).
func (g *SynonymGraph) Refresh(ctx context.Context) error {
	return g.reload(ctx)
}

// RunRefreshLoop periodically reloads the synonym graph until ctx is
// cancelled. A reload failure is logged and the previous snapshot is kept.
func (g *SynonymGraph) RunRefreshLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := g.reload(ctx); err != nil {
				g.log.Warn("synonym graph refresh failed; keeping previous snapshot", logging.Err(err))
			}
		}
	}
}
