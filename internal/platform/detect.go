package platform

import (
	"path/filepath"
	"regexp"
	"strings"
)

// nonAlphaNum strips non-alphanumeric chars for fuzzy matching
var nonAlphaNum = regexp.MustCompile(`[^a-z0-9]+`)

func normalizeDir(name string) string {
	return nonAlphaNum.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "")
}

// Detect guesses the platform of a ROM from the directories it lives in.
// It walks from the nearest directory outwards and returns "" when nothing
// matches.
func (r *Resolver) Detect(romPath string) string {
	dir := filepath.Dir(romPath)
	for range 4 {
		base := filepath.Base(dir)
		if base == "." || base == string(filepath.Separator) || base == "" {
			break
		}
		if name := r.detectFromName(base); name != "" {
			return name
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func (r *Resolver) detectFromName(name string) string {
	key := normalizeDir(name)
	if key == "" {
		return ""
	}

	if p, ok := r.dirs[key]; ok {
		return p
	}
	if e, ok := r.entries[strings.ToLower(strings.TrimSpace(name))]; ok {
		return e.Name
	}

	// DAT style names carry extra suffixes, e.g. "(Parent-Clone) (20240101)".
	best := ""
	for alias := range r.dirs {
		if len(alias) > 4 && strings.HasPrefix(key, alias) && len(alias) > len(best) {
			best = alias
		}
	}
	if best != "" {
		return r.dirs[best]
	}
	return ""
}
