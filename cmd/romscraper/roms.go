package main

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ryanm101/romscraper/internal/logging"
	"github.com/ryanm101/romscraper/internal/platform"
	"github.com/ryanm101/romscraper/internal/scraper"
)

// romFile is a ROM found on disk together with its detected platform.
type romFile struct {
	Path     string
	Platform string
}

// nonRomExtensions are sidecar and media files that live next to ROMs.
var nonRomExtensions = map[string]bool{
	".nfo": true, ".xml": true, ".txt": true, ".md": true, ".json": true,
	".yaml": true, ".yml": true, ".db": true, ".dat": true, ".srm": true,
	".sav": true, ".state": true, ".lock": true,
}

func isRomCandidate(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" || nonRomExtensions[ext] {
		return false
	}
	for _, kind := range []scraper.AssetKind{scraper.AssetSnap, scraper.AssetManual, scraper.AssetTrailer} {
		if kind.MatchesExtension(ext) {
			return false
		}
	}
	return true
}

// collectRoms expands paths into ROM files. Directories are walked
// recursively, skipping hidden entries and the configured media dirs.
// platformOverride, when set, is used instead of directory detection.
func collectRoms(paths []string, resolver *platform.Resolver, platformOverride string, skipDirs []string) ([]romFile, error) {
	skip := make(map[string]bool, len(skipDirs))
	for _, d := range skipDirs {
		if abs, err := filepath.Abs(d); err == nil {
			skip[filepath.Clean(abs)] = true
		}
	}

	seen := make(map[string]bool)
	var out []romFile
	add := func(path string) {
		abs, err := filepath.Abs(path)
		if err != nil || seen[abs] {
			return
		}
		seen[abs] = true

		plat := platformOverride
		if plat == "" {
			plat = resolver.Detect(abs)
		}
		if plat == "" {
			logging.Warn("skipping rom with unknown platform", "path", abs)
			return
		}
		out = append(out, romFile{Path: abs, Platform: plat})
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				if abs, err := filepath.Abs(path); err == nil && skip[filepath.Clean(abs)] {
					return filepath.SkipDir
				}
				return nil
			}
			if isRomCandidate(d.Name()) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}
