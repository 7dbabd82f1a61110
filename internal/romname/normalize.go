package romname

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldDiacritics strips combining marks so "Pokémon" and "Pokemon" compare equal.
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeTerm produces the cache key form of a search term: lower case,
// diacritics folded, punctuation dropped, whitespace collapsed.
func NormalizeTerm(term string) string {
	term = strings.ToLower(foldDiacritics(term))

	var b strings.Builder
	space := false
	for _, r := range term {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			space = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == ':':
			if !space && b.Len() > 0 {
				b.WriteByte(' ')
				space = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// EqualFold reports whether two titles match ignoring case and diacritics.
func EqualFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(foldDiacritics(a)), strings.TrimSpace(foldDiacritics(b)))
}

// ContainsFold reports whether s contains substr ignoring case and diacritics.
func ContainsFold(s, substr string) bool {
	s = strings.ToLower(foldDiacritics(s))
	substr = strings.ToLower(strings.TrimSpace(foldDiacritics(substr)))
	if substr == "" {
		return false
	}
	return strings.Contains(s, substr)
}
