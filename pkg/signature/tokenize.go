package signature

import (
	"fmt"
	"strings"
	"unicode"
)

// Tokenize splits an argument string on whitespace. Double quotes group
// words into one token and a backslash escapes the next character.
//
//	counters view "daily votes" \"quoted\" -> [counters view daily votes "quoted"]
func Tokenize(input string) ([]string, error) {
	var (
		tokens  []string
		current strings.Builder
		inToken bool
		quoted  bool
		escaped bool
	)

	for _, r := range input {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
			inToken = true
		case r == '"':
			quoted = !quoted
			inToken = true
		case unicode.IsSpace(r) && !quoted:
			if inToken {
				tokens = append(tokens, current.String())
				current.Reset()
				inToken = false
			}
		default:
			current.WriteRune(r)
			inToken = true
		}
	}

	if quoted {
		return nil, fmt.Errorf("unterminated quote")
	}
	if escaped {
		current.WriteRune('\\')
	}
	if inToken {
		tokens = append(tokens, current.String())
	}
	return tokens, nil
}
