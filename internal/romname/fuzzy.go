package romname

import (
	"unicode"
)

// LevenshteinDistance computes the edit distance between two strings.
func LevenshteinDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)

	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 0
			if ra[i-1] != rb[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

// compact keeps only letters and digits of the normalized term.
func compact(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range NormalizeTerm(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			out = append(out, r)
		}
	}
	return string(out)
}

// Similarity scores how close a provider title is to a search term, 0..100.
func Similarity(term, title string) int {
	a, b := compact(term), compact(title)
	if a == "" && b == "" {
		return 100
	}
	maxLen := max(len([]rune(a)), len([]rune(b)))
	d := LevenshteinDistance(a, b)
	score := 100 - (d*100)/maxLen
	if score < 0 {
		return 0
	}
	return score
}
