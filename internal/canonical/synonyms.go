package canonical

// synonymTable collapses known aliases onto one canonical spelling (§4.1
// step 5). Keys and values are already lowercased, whitespace-collapsed
// forms — the caller applies this after normalization, not before.
var synonymTable = map[string]string{
	"aqua":       "water",
	"eau":        "water",
	"h2o":        "water",
	"parfum":     "fragrance",
	"perfume":    "fragrance",
	"aroma":      "fragrance",
	"ci 77891":   "titanium dioxide",
	"ci77891":    "titanium dioxide",
	"tocopherol": "vitamin e",
	"retinoic acid": "retinol",
	"ascorbic acid": "vitamin c",
	"methylparaben":  "methylparaben",
	"ethylparaben":   "ethylparaben",
	"propylparaben":  "propylparaben",
	"butylparaben":   "butylparaben",
	"sodium laureth sulfate": "sles",
	"sodium lauryl sulfate":  "sls",
	"glycerine": "glycerin",
	"glycerol":  "glycerin",
}

// SynonymResolver maps an already-normalized name to its canonical form. The
// zero value (staticResolver) needs no I/O and is always available; a
// Neo4j-backed implementation (internal/infrastructure/database/neo4j) can
// supersede it — see Canonicalizer.WithSynonymResolver.
type SynonymResolver interface {
	Resolve(normalized string) string
}

type staticResolver struct{}

// Resolve returns synonymTable[normalized] if present, else normalized
// unchanged.
func (staticResolver) Resolve(normalized string) string {
	if canon, ok := synonymTable[normalized]; ok {
		return canon
	}
	return normalized
}

// StaticResolver is the built-in, dependency-free SynonymResolver.
var StaticResolver SynonymResolver = staticResolver{}
