// Package competency canonicalizes free-form competency labels into a fixed
// vocabulary so ratings entered under variant spellings land on the same key.
package competency

import (
	"math"
	"strings"
)

// aliases maps known lowercase variants to their canonical label.
var aliases = map[string]string{
	"technical_skills":     "Technical Skills",
	"technical_excellence": "Technical Skills",
	"problem_solving":      "Problem Solving",
	"quality_focus":        "Quality Focus",
	"quality":              "Quality Focus",
	"time_management":      "Time Management",
	"reliability":          "Time Management",
	"teamwork":             "Teamwork",
	"leadership":           "Leadership",
	"initiative":           "Leadership",
	"adaptability":         "Adaptability",
	"communication":        "Communication",
}

// Normalize canonicalizes every key of the input map. When two raw keys
// collapse onto the same canonical key their values are averaged (rounded to
// the nearest integer), not overwritten, so the result is independent of
// input ordering. Blank keys are dropped.
func Normalize(input map[string]int) map[string]int {
	if len(input) == 0 {
		return input
	}
	sums := make(map[string]int, len(input))
	counts := make(map[string]int, len(input))
	for k, v := range input {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		canonical := Canonicalize(key)
		sums[canonical] += v
		counts[canonical]++
	}
	out := make(map[string]int, len(sums))
	for k, total := range sums {
		out[k] = int(math.Round(float64(total) / float64(counts[k])))
	}
	return out
}

// Canonicalize normalizes a single competency name: alias lookup first, then
// title-casing with underscores and hyphens treated as word breaks.
func Canonicalize(key string) string {
	k := strings.TrimSpace(key)
	if k == "" {
		return k
	}
	if alias, ok := aliases[strings.ToLower(k)]; ok {
		return alias
	}
	replaced := strings.ToLower(strings.NewReplacer("_", " ", "-", " ").Replace(k))
	words := strings.Fields(replaced)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	title := strings.Join(words, " ")
	if title == "" {
		return k
	}
	return title
}
