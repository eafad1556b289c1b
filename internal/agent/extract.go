package agent

import (
	"encoding/json"
	"strings"
)

// ExtractJSON finds the decision object in free text that mixes prose with a
// trailing JSON object. The greedy span from the first '{' to the last '}' is
// tried first. If that is not valid JSON, the last top-level balanced object
// that is valid JSON wins. ok is false when no valid object exists.
func ExtractJSON(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return "", false
	}
	if greedy := text[start : end+1]; json.Valid([]byte(greedy)) {
		return greedy, true
	}

	spans := balancedSpans(text[start : end+1])
	for i := len(spans) - 1; i >= 0; i-- {
		if json.Valid([]byte(spans[i])) {
			return spans[i], true
		}
	}
	return "", false
}

// balancedSpans returns the top-level {...} spans of s in order. Quotes are
// only tracked inside a span, so apostrophes and stray quotes in prose do not
// confuse the scan. An unclosed '{' is treated as prose and the scan resumes
// just after it.
func balancedSpans(s string) []string {
	var spans []string
	for from := 0; from < len(s); {
		found, next := scanSpans(s, from)
		spans = append(spans, found...)
		if next < 0 {
			break
		}
		from = next
	}
	return spans
}

// scanSpans collects the balanced spans of s starting at from. next is the
// offset to resume at when a span is left open, or -1 when the scan reached
// the end cleanly.
func scanSpans(s string, from int) (spans []string, next int) {
	var (
		depth    int
		begin    int
		inString bool
		escaped  bool
	)
	for i := from; i < len(s); i++ {
		ch := s[i]
		if depth > 0 && inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				begin = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				spans = append(spans, s[begin:i+1])
			}
		}
	}
	if depth > 0 {
		return spans, begin + 1
	}
	return spans, -1
}
