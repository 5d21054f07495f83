package llmclient

import (
	"regexp"
	"strings"
)

var fencedCodePattern = regexp.MustCompile("(?s)```(?:\\w+)?\\n(.*?)```")

// extractCode looks for a fenced code block first, then falls back to the
// longest contiguous span that looks like a program (spec.md §4.3).
// Rationale is whatever prose precedes the extracted block.
func extractCode(text string) (code, rationale string, ok bool) {
	if loc := fencedCodePattern.FindStringSubmatchIndex(text); loc != nil {
		code = strings.TrimSpace(text[loc[2]:loc[3]])
		rationale = strings.TrimSpace(text[:loc[0]])
		if code != "" {
			return code, rationale, true
		}
	}

	if span, start, ok := longestProgramSpan(text); ok {
		return span, strings.TrimSpace(text[:start]), true
	}

	return "", "", false
}

// programLinePattern is a weak heuristic for "this line looks like code":
// assignment, function/def/import keywords, braces, or indentation. It is
// intentionally permissive — the sandbox, not this heuristic, is what
// guards against malformed code (spec.md §4.4 "Note on trust").
var programLinePattern = regexp.MustCompile(`^\s*(import |from |def |func |class |package |#include|return |if |for |while |\w+\s*[:=]|[{}()\[\];])`)

// longestProgramSpan scans line-by-line for the longest contiguous run of
// lines that look like code, used when no fenced block is present.
func longestProgramSpan(text string) (span string, startOffset int, ok bool) {
	lines := strings.Split(text, "\n")

	bestStart, bestEnd := -1, -1
	curStart := -1

	offsets := make([]int, len(lines)+1)
	pos := 0
	for i, l := range lines {
		offsets[i] = pos
		pos += len(l) + 1
	}
	offsets[len(lines)] = pos

	flush := func(end int) {
		if curStart < 0 {
			return
		}
		if bestStart < 0 || (end-curStart) > (bestEnd-bestStart) {
			bestStart, bestEnd = curStart, end
		}
		curStart = -1
	}

	for i, l := range lines {
		if programLinePattern.MatchString(l) {
			if curStart < 0 {
				curStart = i
			}
		} else if strings.TrimSpace(l) == "" {
			// blank lines don't break a run
			continue
		} else {
			flush(i)
		}
	}
	flush(len(lines))

	if bestStart < 0 {
		return "", 0, false
	}
	startOffset = offsets[bestStart]
	endOffset := offsets[bestEnd]
	if endOffset > len(text) {
		endOffset = len(text)
	}
	return strings.TrimSpace(text[startOffset:endOffset]), startOffset, true
}
