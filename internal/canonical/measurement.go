package canonical

import "regexp"

// measurementUnits is the closed set of units recognized by the measurement
// rejection rule (§4.1 step 3, §8 P3).
var measurementUnits = []string{"mg", "g", "µg", "ug", "ml", "l", "ppm", "ppb", "%"}

// measurementPattern matches "<number><unit>[/<unit>]" with optional
// whitespace between the number and unit, e.g. "1 mg", "5µg/L", "0.1ppm".
// Built once from measurementUnits so the unit list stays the single source
// of truth.
var measurementPattern = buildMeasurementPattern()

func buildMeasurementPattern() *regexp.Regexp {
	unitAlt := ""
	for i, u := range measurementUnits {
		if i > 0 {
			unitAlt += "|"
		}
		unitAlt += regexp.QuoteMeta(u)
	}
	// number: digits, optional decimal part
	const number = `[0-9]+(?:\.[0-9]+)?`
	pattern := `^` + number + `\s*(?:` + unitAlt + `)(?:\s*/\s*(?:` + unitAlt + `|l|L))?$`
	return regexp.MustCompile("(?i)" + pattern)
}

// isMeasurement reports whether s (already trimmed) looks like a bare
// measurement token rather than an ingredient name.
func isMeasurement(s string) bool {
	return measurementPattern.MatchString(s)
}
