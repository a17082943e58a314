// Package canonical implements the Canonicalizer (§4.1): a pure,
// deterministic, I/O-free mapping from raw ingredient tokens (free text or
// OCR output) to a CanonicalName, or a rejection.
package canonical

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/mommyshops/irae/internal/ingredient"
)

// stopwords are tokens that are not ingredient names even after successful
// normalization (§4.1 step 6).
var stopwords = map[string]struct{}{
	"and":         {},
	"list":        {},
	"ingredients": {},
	"other":       {},
	"contains":    {},
	"may":         {},
	"the":         {},
}

// minLength is the shortest normalized form accepted (§4.1 step 6).
const minLength = 3

// greekReplacer substitutes a fixed set of special characters that show up
// in scraped/OCR ingredient text with their ASCII equivalents or a space,
// applied before diacritic stripping so e.g. "µg" first becomes "ug" and
// is then caught by the measurement-rejection step.
var greekReplacer = strings.NewReplacer(
	"µ", "u",
	"α", "alpha",
	"β", "beta",
	"γ", "gamma",
	"δ", "delta",
	"(", " ",
	")", " ",
	"-", " ",
	"/", " / ",
	"_", " ",
)

// diacriticStripper removes Unicode combining marks after NFD
// decomposition, turning e.g. "é" into "e".
var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Canonicalizer converts raw tokens into CanonicalNames. The zero value is
// ready to use with the built-in static synonym table; call
// WithSynonymResolver to plug in an alternative backend (e.g. the Neo4j
// graph in internal/infrastructure/database/neo4j).
type Canonicalizer struct {
	synonyms SynonymResolver
}

// New constructs a Canonicalizer using the built-in static synonym table.
func New() *Canonicalizer {
	return &Canonicalizer{synonyms: StaticResolver}
}

// WithSynonymResolver returns a copy of c using resolver instead of the
// static table. Passing nil restores the static table.
func (c *Canonicalizer) WithSynonymResolver(resolver SynonymResolver) *Canonicalizer {
	if resolver == nil {
		resolver = StaticResolver
	}
	return &Canonicalizer{synonyms: resolver}
}

// Canonicalize maps raw to a CanonicalName, or reports ok=false if raw
// should be discarded (measurement token, too short, or a stopword). It
// never performs I/O and never panics on malformed UTF-8 input.
func (c *Canonicalizer) Canonicalize(raw string) (ingredient.CanonicalName, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}

	// Step 1+2: substitute special characters, then strip diacritics.
	s = greekReplacer.Replace(s)
	if stripped, _, err := transform.String(diacriticStripper, s); err == nil {
		s = stripped
	}

	// Step 4 (partial): lowercase before the measurement check so unit
	// matching is case-insensitive regardless of input casing.
	s = strings.ToLower(s)
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	// Step 3: reject bare measurement tokens.
	if isMeasurement(s) {
		return "", false
	}

	// Step 5: synonym collapse.
	resolver := c.synonyms
	if resolver == nil {
		resolver = StaticResolver
	}
	s = resolver.Resolve(s)
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	// Step 6: length and stopword rejection.
	if len(s) < minLength {
		return "", false
	}
	if _, bad := stopwords[s]; bad {
		return "", false
	}

	return ingredient.CanonicalName(s), true
}

// CanonicalizeAll canonicalizes and deduplicates a batch of raw tokens,
// preserving first-seen order. Rejected tokens are silently dropped, per
// §4.1's error mode: "caller discards the token."
func (c *Canonicalizer) CanonicalizeAll(raw []string) []ingredient.CanonicalName {
	seen := make(map[ingredient.CanonicalName]struct{}, len(raw))
	out := make([]ingredient.CanonicalName, 0, len(raw))
	for _, r := range raw {
		name, ok := c.Canonicalize(r)
		if !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
