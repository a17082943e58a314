package canonical

import "testing"

func TestCanonicalize_Synonymy(t *testing.T) {
	c := New()
	want := "water"
	for _, raw := range []string{"Aqua", "water", " WATER ", "Eau"} {
		got, ok := c.Canonicalize(raw)
		if !ok {
			t.Fatalf("Canonicalize(%q) rejected, want ok", raw)
		}
		if string(got) != want {
			t.Errorf("Canonicalize(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestCanonicalize_Idempotent(t *testing.T) {
	c := New()
	inputs := []string{"Aqua", "Glycerin", "Sodium Lauryl Sulfate", "(Aqua)", "Tocopherol"}
	for _, raw := range inputs {
		first, ok1 := c.Canonicalize(raw)
		if !ok1 {
			continue
		}
		second, ok2 := c.Canonicalize(string(first))
		if !ok2 || first != second {
			t.Errorf("Canonicalize not idempotent for %q: first=%q second=%q ok2=%v", raw, first, second, ok2)
		}
	}
}

func TestCanonicalize_MeasurementRejection(t *testing.T) {
	c := New()
	for _, raw := range []string{"1 mg", "5 µg/L", "0.1 ppm", "10%", "2ml"} {
		if _, ok := c.Canonicalize(raw); ok {
			t.Errorf("Canonicalize(%q) accepted, want rejected", raw)
		}
	}
}

func TestCanonicalize_StopwordsAndLength(t *testing.T) {
	c := New()
	for _, raw := range []string{"and", "Ingredients", "", "  ", "ab"} {
		if _, ok := c.Canonicalize(raw); ok {
			t.Errorf("Canonicalize(%q) accepted, want rejected", raw)
		}
	}
}

func TestCanonicalize_UnknownTokenBecomesUnknown(t *testing.T) {
	// §9 Open Questions: junk OCR tokens are not fuzzy-corrected, just
	// treated as ordinary (if unmatched-downstream) canonical names.
	c := New()
	got, ok := c.Canonicalize("GLNERPENTONETIANCL")
	if !ok {
		t.Fatalf("expected junk token to canonicalize, not be rejected")
	}
	if got != "glnerpentonetiancl" {
		t.Errorf("got %q", got)
	}
}

func TestCanonicalizeAll_DedupAndOrder(t *testing.T) {
	c := New()
	got := c.CanonicalizeAll([]string{"1 mg", "Water", "Water", "Glycerin"})
	want := []string{"water", "glycerin"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if string(got[i]) != want[i] {
			t.Errorf("index %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestCanonicalize_Diacritics(t *testing.T) {
	c := New()
	got, ok := c.Canonicalize("Café Extract")
	if !ok {
		t.Fatal("expected ok")
	}
	if string(got) != "cafe extract" {
		t.Errorf("got %q", got)
	}
}
