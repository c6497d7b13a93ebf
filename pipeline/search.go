package pipeline

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// SearchNormalize lowercases s and strips diacritical marks, producing the
// search-friendly form stored next to channel and author names so report
// consumers can match them case and accent insensitively.
func SearchNormalize(s string) string {
	decomposed := norm.NFD.String(s)

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}

	return strings.TrimSpace(b.String())
}
