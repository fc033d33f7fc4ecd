package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeHeader folds a header label for comparison: lowercase, no diacritics,
// underscores and runs of whitespace collapsed to one space.
func NormalizeHeader(s string) string {
	s = strings.ToLower(StripDiacritics(s))
	s = strings.Map(func(r rune) rune {
		if r == '_' || r == ' ' || unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// StripDiacritics removes combining marks after NFD decomposition ("Réf" -> "Ref").
func StripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ContainsNormalized reports whether s contains substr once both are header-normalized.
func ContainsNormalized(s, substr string) bool {
	return strings.Contains(NormalizeHeader(s), NormalizeHeader(substr))
}
