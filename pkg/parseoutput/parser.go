// Package parseoutput recovers a structured signal or trade list from a
// sandboxed subprocess's stdout (spec.md §4.5). The LLM is instructed to
// emit JSON, but the parser must tolerate whatever text actually comes
// back — malformed or partial output is a first-class outcome, not an
// error (spec.md §4.4 "Note on trust").
package parseoutput

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/stratlab/stratlab/pkg/models"
)

var timestampLikeKey = regexp.MustCompile(`(?i)(timestamp|date)`)

var fencedBlockPattern = regexp.MustCompile("```(?:json)?\\s*\\n([\\s\\S]*?)```")

// linePrefixPattern matches the line-scrape fallback's `signal:`/`trade:`
// prefixed lines with space-separated key=value pairs.
var linePrefixPattern = regexp.MustCompile(`(?i)^\s*(?:signal|trade)\s*:\s*(.+)$`)

var keyValuePattern = regexp.MustCompile(`(\w+)=("[^"]*"|\S+)`)

// ParseRecords runs the layered recovery algorithm of spec.md §4.5 and
// returns every record carrying the mandatory {ticker, timestamp-or-date}
// keys, with unknown keys retained verbatim. Each of strategies 1-3 is
// tried in order; a strategy that parses but yields no valid record does
// not win — the next strategy still gets a turn before falling back to
// the line-scrape (spec.md §4.5's strict first-success-wins ordering).
// Returns an empty (never nil) slice when no strategy yields at least one
// valid record.
func ParseRecords(stdout string) []map[string]any {
	for _, text := range extractArrayTexts(stdout) {
		if records, ok := decodeRecords(text); ok {
			if filtered := filterValid(records); len(filtered) > 0 {
				return filtered
			}
		}
	}
	return filterValid(lineScrape(stdout))
}

// ParseSignals parses stdout into typed Signals (spec.md §4.5, GLOSSARY).
func ParseSignals(stdout string) []*models.Signal {
	records := ParseRecords(stdout)
	out := make([]*models.Signal, 0, len(records))
	for _, r := range records {
		out = append(out, recordToSignal(r))
	}
	return out
}

// ParseTrades parses stdout into typed Trades (spec.md §4.5, §4.7's custom
// executor path). Records round-trip through Trade's own JSON tags so that
// re-parsing a pretty-printed re-serialization yields an equal list
// (spec.md §8).
func ParseTrades(stdout string) []*models.Trade {
	records := ParseRecords(stdout)
	out := make([]*models.Trade, 0, len(records))
	for _, r := range records {
		b, err := json.Marshal(r)
		if err != nil {
			continue
		}
		var t models.Trade
		if err := json.Unmarshal(b, &t); err != nil {
			continue
		}
		out = append(out, &t)
	}
	return out
}

func recordToSignal(r map[string]any) *models.Signal {
	sig := &models.Signal{Extra: map[string]any{}}
	for k, v := range r {
		switch k {
		case "ticker":
			if s, ok := v.(string); ok {
				sig.Ticker = s
			}
		case "timestamp", "date":
			if sig.Timestamp == "" {
				sig.Timestamp = fmt.Sprint(v)
			}
		case "side":
			if s, ok := v.(string); ok {
				sig.Side = s
			}
		default:
			sig.Extra[k] = v
		}
	}
	return sig
}

func filterValid(records []map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(records))
	for _, r := range records {
		if hasMandatoryKeys(r) {
			out = append(out, r)
		}
	}
	return out
}

func hasMandatoryKeys(r map[string]any) bool {
	if _, ok := r["ticker"]; !ok {
		return false
	}
	for k := range r {
		if timestampLikeKey.MatchString(k) {
			return true
		}
	}
	return false
}

// extractArrayTexts implements strategies 1-3 in order: whole-stdout JSON
// (array, or object with a matches/signals/trades field), then the last
// fenced JSON block, then the longest balanced {...} or [...] span. Every
// strategy that parses into a container contributes its text, letting the
// caller fall through to the next strategy when an earlier one's records
// all turn out invalid rather than committing to the first container found.
func extractArrayTexts(stdout string) []string {
	var texts []string

	if trimmed := strings.TrimSpace(stdout); trimmed != "" {
		var v any
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			if text, ok := containerText(v); ok {
				texts = append(texts, text)
			}
		}
	}

	if matches := fencedBlockPattern.FindAllStringSubmatch(stdout, -1); len(matches) > 0 {
		last := strings.TrimSpace(matches[len(matches)-1][1])
		var v any
		if err := json.Unmarshal([]byte(last), &v); err == nil {
			if text, ok := containerText(v); ok {
				texts = append(texts, text)
			}
		}
	}

	if span, ok := longestBalancedSpan(stdout); ok {
		var v any
		if err := json.Unmarshal([]byte(span), &v); err == nil {
			if text, ok := containerText(v); ok {
				texts = append(texts, text)
			}
		}
	}

	return texts
}

// containerText normalizes a decoded JSON value into the array-or-object
// text the record decoder expects: arrays pass through; objects with a
// matches/signals/trades field are re-marshaled from that field alone
// (spec.md §4.5 step 1, "both are accepted equally" re: matches vs signals).
func containerText(v any) (string, bool) {
	switch t := v.(type) {
	case []any:
		b, err := json.Marshal(t)
		if err != nil {
			return "", false
		}
		return string(b), true
	case map[string]any:
		for _, key := range []string{"matches", "signals", "trades"} {
			if sub, ok := t[key]; ok {
				b, err := json.Marshal(sub)
				if err != nil {
					return "", false
				}
				return string(b), true
			}
		}
		// A bare object (no container field) is itself a single record.
		b, err := json.Marshal(t)
		if err != nil {
			return "", false
		}
		return "[" + string(b) + "]", true
	default:
		return "", false
	}
}

func decodeRecords(text string) ([]map[string]any, bool) {
	var arr []map[string]any
	if err := json.Unmarshal([]byte(text), &arr); err == nil {
		return arr, true
	}
	return nil, false
}

// longestBalancedSpan scans stdout for every balanced {...} / [...] span
// (tracking string literals so braces inside strings don't confuse the
// scanner) and returns the longest one, preferring spans found later in
// the text when lengths tie.
func longestBalancedSpan(stdout string) (string, bool) {
	var best string

	for i, c := range stdout {
		if c != '{' && c != '[' {
			continue
		}
		end, ok := matchBalanced(stdout, i)
		if !ok {
			continue
		}
		span := stdout[i : end+1]
		if len(span) >= len(best) {
			best = span
		}
	}

	if best == "" {
		return "", false
	}
	return best, true
}

// matchBalanced returns the index of the closing bracket matching the
// open bracket at position start, or false if unbalanced.
func matchBalanced(s string, start int) (int, bool) {
	open := s[start]
	var closeCh byte
	switch open {
	case '{':
		closeCh = '}'
	case '[':
		closeCh = ']'
	default:
		return 0, false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			if escaped {
				escaped = false
				continue
			}
			if c == '\\' {
				escaped = true
				continue
			}
			if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case closeCh:
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// lineScrape implements strategy 4: lines matching a `signal:`/`trade:`
// prefix with space-separated key=value pairs.
func lineScrape(stdout string) []map[string]any {
	var out []map[string]any
	for _, line := range strings.Split(stdout, "\n") {
		m := linePrefixPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		pairs := keyValuePattern.FindAllStringSubmatch(m[1], -1)
		if len(pairs) == 0 {
			continue
		}
		record := make(map[string]any, len(pairs))
		for _, p := range pairs {
			record[p[1]] = strings.Trim(p[2], `"`)
		}
		out = append(out, record)
	}
	return out
}
