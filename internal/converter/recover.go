package converter

import (
	"bytes"
	"encoding/json"
)

// Recover tries to salvage a JSON value from text that failed strict
// parsing. Strategies run in order and the first success wins:
//
//  1. balanced {...} spans: one valid span is returned as is, several valid
//     spans are returned wrapped in an array (invalid spans are dropped)
//  2. balanced [...] spans: the first valid span
//  3. the earliest, longest valid substring starting at a '{' or '['
//
// The returned bytes are always valid JSON.
func Recover(text []byte) ([]byte, bool) {
	if value, ok := recoverObjects(text); ok {
		return value, true
	}
	if value, ok := recoverArray(text); ok {
		return value, true
	}
	return recoverLongest(text)
}

func recoverObjects(text []byte) ([]byte, bool) {
	var valid [][]byte
	for _, span := range balancedSpans(text, '{', '}') {
		if json.Valid(span) {
			valid = append(valid, span)
		}
	}

	switch len(valid) {
	case 0:
		return nil, false
	case 1:
		return valid[0], true
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	buf.Write(bytes.Join(valid, []byte{','}))
	buf.WriteByte(']')
	return buf.Bytes(), true
}

func recoverArray(text []byte) ([]byte, bool) {
	for _, span := range balancedSpans(text, '[', ']') {
		if json.Valid(span) {
			return span, true
		}
	}
	return nil, false
}

// recoverLongest tries every start position holding '{' or '[' and shrinks
// the end until the span parses. A valid span can only end in '}' or ']',
// so other end positions are skipped.
func recoverLongest(text []byte) ([]byte, bool) {
	for start := 0; start < len(text); start++ {
		if text[start] != '{' && text[start] != '[' {
			continue
		}
		for end := len(text); end > start+1; end-- {
			if c := text[end-1]; c != '}' && c != ']' {
				continue
			}
			if json.Valid(text[start:end]) {
				return text[start:end], true
			}
		}
	}
	return nil, false
}

// balancedSpans returns the non-overlapping spans of text that open with
// open and close at the matching depth. An opener that never closes is
// skipped and scanning resumes right after it.
func balancedSpans(text []byte, open, close byte) [][]byte {
	var spans [][]byte
	for i := 0; i < len(text); {
		if text[i] != open {
			i++
			continue
		}

		end := matchClose(text, i, open, close)
		if end < 0 {
			i++
			continue
		}

		spans = append(spans, text[i:end+1])
		i = end + 1
	}
	return spans
}

// matchClose counts depth from text[start] (an opener) and returns the index
// where depth returns to zero, or -1. Delimiters inside string literals are
// not counted.
func matchClose(text []byte, start int, open, close byte) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i
			}
		}
	}

	return -1
}
