package plan

import (
	"fmt"
	"strings"

	"github.com/mifdirfan/PocketCoach/pkg/model"
)

// FormatError reports model output that could not be turned into a plan.
type FormatError struct {
	Kind model.PlanErrorKind
	Raw  string
	Err  error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("plan format error (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("plan format error (%s)", e.Kind)
}

func (e *FormatError) Unwrap() error { return e.Err }

// ExtractJSON returns the first balanced top-level JSON object in text. Braces inside string
// literals and // line comments are ignored; the comments stay in the result.
func ExtractJSON(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start >= 0 {
		if end := matchBrace(text, start); end >= 0 {
			return text[start : end+1], nil
		}
	}
	return "", &FormatError{Kind: model.PlanErrorNoJSON, Raw: text}
}

// matchBrace returns the index of the brace closing the one at start, or -1.
func matchBrace(text string, start int) int {
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
		if c == '/' && i+1 < len(text) && text[i+1] == '/' {
			for i < len(text) && text[i] != '\n' {
				i++
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				if c != '}' {
					return -1
				}
				return i
			}
			if depth < 0 {
				return -1
			}
		}
	}
	return -1
}

// StripComments removes // line comments that appear outside string literals, so URLs inside
// strings survive.
func StripComments(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
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
			b.WriteByte(c)
			continue
		}

		if c == '"' {
			inString = true
		} else if c == '/' && i+1 < len(text) && text[i+1] == '/' {
			for i < len(text) && text[i] != '\n' {
				i++
			}
			if i < len(text) {
				b.WriteByte('\n')
			}
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
