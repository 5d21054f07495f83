package knowledge

import (
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// tokenize lower-cases and splits text into a bag-of-words set, used by
// both the dedup Jaccard comparison and template-tag mention detection.
func tokenize(text string) map[string]struct{} {
	tokens := tokenPattern.FindAllString(strings.ToLower(text), -1)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// jaccardSimilarity is the unambiguous bag-of-words overlap metric spec.md
// §4.8 requires two independent implementations to agree on: |A ∩ B| / |A
// ∪ B|, with the identical-empty-set case defined as a perfect match.
func jaccardSimilarity(a, b string) float64 {
	setA, setB := tokenize(a), tokenize(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}

	intersection := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
