// Package nfo reads the flat XML-like sidecar files that live next to ROMs.
package nfo

import (
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// tagPair matches <tag>value</tag>. Go regexp has no backreferences, so the
// closing tag is captured and compared separately.
var tagPair = regexp.MustCompile(`<([A-Za-z][A-Za-z0-9_]*)>([^<]*)</([A-Za-z][A-Za-z0-9_]*)>`)

// PathFor returns the sidecar path for a ROM file: same directory and base
// name with the .nfo extension.
func PathFor(romPath string) string {
	ext := filepath.Ext(romPath)
	return strings.TrimSuffix(romPath, ext) + ".nfo"
}

// Read extracts tag/value pairs from the sidecar at path. Tag names are
// lower-cased; the first occurrence of a tag wins.
func Read(path string) (map[string]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path derived from ROM location
	if err != nil {
		return nil, err
	}
	return Parse(string(data)), nil
}

// Parse extracts tag/value pairs from sidecar text.
func Parse(text string) map[string]string {
	out := make(map[string]string)
	for _, m := range tagPair.FindAllStringSubmatch(text, -1) {
		if !strings.EqualFold(m[1], m[3]) {
			continue
		}
		tag := strings.ToLower(m[1])
		if _, seen := out[tag]; seen {
			continue
		}
		out[tag] = strings.TrimSpace(html.UnescapeString(m[2]))
	}
	return out
}

// ErrNoSidecar is returned by ReadFor when the ROM has no sidecar.
var ErrNoSidecar = errors.New("no nfo sidecar")

// ReadFor reads the sidecar of a ROM file.
func ReadFor(romPath string) (map[string]string, error) {
	path := PathFor(romPath)
	fields, err := Read(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNoSidecar, path)
	}
	return fields, err
}
