package knowledge

import (
	"regexp"
	"strings"

	"github.com/stratlab/stratlab/pkg/config"
)

var negationMarkers = regexp.MustCompile(`(?i)\b(avoid|don't|do not|never|stop|no longer|reduce|cut|cease)\b`)

// negativePolarity reports whether an insight reads as a caution/avoidance
// rather than an endorsement, the signal the contradiction check compares
// across two entries sharing a pattern tag (spec.md §4.8).
func negativePolarity(text string) bool {
	return negationMarkers.MatchString(text)
}

// ensureAvoidPhrasing rephrases an exit-timing issue as a negative
// PATTERN_RULE per spec.md §4.8: "Each exit_timing_issues entry becomes a
// PATTERN_RULE phrased negatively ('avoid …')".
func ensureAvoidPhrasing(issue string) string {
	trimmed := strings.TrimSpace(issue)
	if negativePolarity(trimmed) {
		return trimmed
	}
	if trimmed == "" {
		return trimmed
	}
	lower := strings.ToLower(trimmed[:1]) + trimmed[1:]
	return "avoid " + lower
}

// mentionedTemplateTags returns the built-in template tags referenced in
// text, used to attach a PatternTag to PARAMETER_PREF and PATTERN_RULE
// entries derived from free-form LLM prose (spec.md §4.8).
func mentionedTemplateTags(text string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, tag := range config.TemplateTags {
		if strings.Contains(lower, strings.ReplaceAll(tag, "_", " ")) || strings.Contains(lower, tag) {
			out = append(out, tag)
		}
	}
	return out
}

var sentenceSplitPattern = regexp.MustCompile(`(?:[.!?]\s+|\n+)`)

// templateTagInsight narrows a multi-template comparison down to the
// sentences that actually discuss tag, so that two tags mentioned in the
// same comparison don't end up with byte-identical PARAMETER_PREF insight
// text and collapse into one entry under the Jaccard dedup check (spec.md
// §4.8). Falls back to the full comparison, prefixed with the tag so it
// stays distinguishable, when no sentence mentions it on its own.
func templateTagInsight(comparison, tag string) string {
	mentionsTag := func(s string) bool {
		lower := strings.ToLower(s)
		return strings.Contains(lower, strings.ReplaceAll(tag, "_", " ")) || strings.Contains(lower, tag)
	}

	var matched []string
	for _, sentence := range sentenceSplitPattern.Split(comparison, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence != "" && mentionsTag(sentence) {
			matched = append(matched, sentence)
		}
	}
	if len(matched) > 0 {
		return strings.Join(matched, ". ")
	}
	return tag + ": " + comparison
}
