// Package normalize turns raw user input into an ordered, deduplicated
// sequence of order identifier tokens.
package normalize

import (
	"strings"
	"unicode"
)

// Tokens splits raw input on any run of commas, whitespace, or newlines,
// trims each piece, drops empties, and removes duplicates keeping the first
// occurrence's position. Tokens are preserved verbatim: "007" stays "007",
// it is never parsed or reformatted.
func Tokens(raw string) []string {
	pieces := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})

	if len(pieces) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(pieces))
	tokens := make([]string, 0, len(pieces))
	for _, p := range pieces {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		tokens = append(tokens, p)
	}

	return tokens
}
