package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SchemaValidator validates a parsed value after JSON extraction.
type SchemaValidator[T any] func(T) error

// ExtractJSON decodes the first JSON object or array found in raw model
// output into T. Markdown fences, surrounding prose, comments and numbers
// written as ".5" are tolerated. A non-nil validate runs on the decoded value.
func ExtractJSON[T any](raw string, validate SchemaValidator[T]) (T, error) {
	var out T

	block, ok := firstJSONValue(dropFenceLines(raw))
	if !ok {
		return out, fmt.Errorf("%w: no JSON value found in response", ErrInvalidOutput)
	}
	if err := json.Unmarshal([]byte(block), &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	if validate != nil {
		if err := validate(out); err != nil {
			var zero T
			return zero, fmt.Errorf("%w: validation failed: %v", ErrInvalidOutput, err)
		}
	}
	return out, nil
}

func dropFenceLines(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if !strings.HasPrefix(strings.TrimSpace(line), "```") {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// firstJSONValue copies the first balanced object or array out of s in one
// pass, skipping comments and prefixing bare leading decimals with 0.
// String contents are copied untouched.
func firstJSONValue(s string) (string, bool) {
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", false
	}

	var b strings.Builder
	b.Grow(len(s) - start)
	var last byte
	depth := 0
	inString, escaped := false, false

	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
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

		switch {
		case c == '"':
			inString = true
		case c == '/' && i+1 < len(s) && s[i+1] == '/':
			for i+1 < len(s) && s[i+1] != '\n' {
				i++
			}
			continue
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				return "", false
			}
			i += end + 3
			continue
		case c == '.' && i+1 < len(s) && isDigit(s[i+1]) && startsNumber(last):
			b.WriteByte('0')
		case c == '{' || c == '[':
			depth++
		case c == '}' || c == ']':
			depth--
		}

		b.WriteByte(c)
		if !isSpace(c) {
			last = c
		}
		if depth == 0 {
			return b.String(), true
		}
	}
	return "", false
}

// startsNumber reports whether a value may begin right after prev.
func startsNumber(prev byte) bool {
	switch prev {
	case ':', ',', '[', '{', '-':
		return true
	}
	return false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
