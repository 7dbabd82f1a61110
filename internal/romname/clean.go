// Package romname turns ROM file names into display titles and search terms.
package romname

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	squareTag   = regexp.MustCompile(`\[[^\]]*\]`)
	parenTag    = regexp.MustCompile(`\([^)]*\)`)
	braceTag    = regexp.MustCompile(`\{[^}]*\}`)
	multiSpace  = regexp.MustCompile(`\s+`)
	trailingThe = regexp.MustCompile(`(?i)^(.*), the$`)
)

// BaseName returns the file name of path without directory or extension.
func BaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// CleanTitle formats a ROM base name as a display title. With stripTags set,
// every (...), {...} and [...] token is removed except [BIOS].
func CleanTitle(baseName string, stripTags bool) string {
	title := baseName
	if stripTags {
		title = squareTag.ReplaceAllStringFunc(title, func(tag string) string {
			if strings.EqualFold(tag, "[BIOS]") {
				return tag
			}
			return ""
		})
		title = parenTag.ReplaceAllString(title, "")
		title = braceTag.ReplaceAllString(title, "")
	}
	title = strings.TrimSpace(multiSpace.ReplaceAllString(title, " "))

	if m := trailingThe.FindStringSubmatch(title); m != nil {
		title = "The " + strings.TrimSpace(m[1])
	}
	return title
}

// SearchTerm derives the provider query for a ROM base name: tags removed,
// underscores and dots treated as spaces.
func SearchTerm(baseName string) string {
	term := CleanTitle(baseName, true)
	term = strings.ReplaceAll(term, "[BIOS]", "")
	term = strings.NewReplacer("_", " ", ".", " ").Replace(term)
	return strings.TrimSpace(multiSpace.ReplaceAllString(term, " "))
}
