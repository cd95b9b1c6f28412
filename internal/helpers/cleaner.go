package helpers

import (
	"errors"
	"strings"
)

// ErrNoJSONObject is returned when a model reply holds no balanced JSON object.
var ErrNoJSONObject = errors.New("no JSON object found")

// StripCodeFence returns the body of the first ```json block in s, or of the
// first bare ``` block when there is no json-tagged one. Text without a fence
// is returned trimmed. An unterminated fence yields everything after it.
func StripCodeFence(s string) string {
	s = trimBOM(s)
	if i := strings.Index(s, "```json"); i != -1 {
		rest := s[i+len("```json"):]
		if j := strings.Index(rest, "```"); j != -1 {
			rest = rest[:j]
		}
		return strings.TrimSpace(rest)
	}
	if i := strings.Index(s, "```"); i != -1 {
		rest := s[i+3:]
		if j := strings.Index(rest, "```"); j != -1 {
			rest = rest[:j]
		}
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(s)
}

// ExtractJSONObject unwraps a fenced reply and returns the first balanced
// {...} value in it, ignoring braces inside strings.
func ExtractJSONObject(s string) (string, error) {
	s = StripCodeFence(s)
	for i := 0; i < len(s); i++ {
		if s[i] != '{' {
			continue
		}
		if out, ok := balancedObjectFrom(s, i); ok {
			return out, nil
		}
	}
	return "", ErrNoJSONObject
}

func balancedObjectFrom(s string, start int) (string, bool) {
	var (
		depth    int
		inString bool
		escape   bool
	)
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escape:
				escape = false
			case c == '\\':
				escape = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// trimBOM removes an optional UTF-8 BOM.
func trimBOM(s string) string {
	return strings.TrimPrefix(s, "\uFEFF")
}
