package scraper

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// NamingScheme decides where a downloaded asset is stored.
type NamingScheme int

const (
	// NamingDir stores each kind in its own directory as <dir>/<base><ext>.
	NamingDir NamingScheme = iota
	// NamingSuffix shares one directory as <dir>/<base>_<id3>_<kind><ext>.
	NamingSuffix
)

func (n NamingScheme) String() string {
	if n == NamingSuffix {
		return "suffix"
	}
	return "dir"
}

// ParseNamingScheme accepts "dir" and "suffix".
func ParseNamingScheme(s string) (NamingScheme, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dir":
		return NamingDir, nil
	case "suffix":
		return NamingSuffix, nil
	}
	return NamingDir, fmt.Errorf("unknown naming scheme %q", s)
}

// AssetDirs maps each enabled kind to its storage directory.
type AssetDirs map[AssetKind]string

const defaultAssetExt = ".jpg"

// AssetStem is the file name without extension an asset of kind gets.
func AssetStem(scheme NamingScheme, kind AssetKind, rom RomIdentity) string {
	if scheme == NamingSuffix {
		return fmt.Sprintf("%s_%s_%s", rom.BaseName, shortID(rom.ObjectID), kind.Suffix())
	}
	return rom.BaseName
}

// AssetPath joins dir, the stem for kind and ext.
func AssetPath(scheme NamingScheme, dir string, kind AssetKind, rom RomIdentity, ext string) string {
	return filepath.Join(dir, AssetStem(scheme, kind, rom)+ext)
}

func shortID(id string) string {
	r := []rune(id)
	if len(r) > 3 {
		r = r[:3]
	}
	return string(r)
}

// ExtensionFromURL returns the lower-cased extension of the URL path, or
// .jpg when there is none.
func ExtensionFromURL(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}
	ext := strings.ToLower(path.Ext(p))
	if len(ext) < 2 || len(ext) > 6 {
		return defaultAssetExt
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return defaultAssetExt
		}
	}
	return ext
}

// FindLocalAsset looks in dir for a file named stem with an extension valid
// for kind. Names are compared case-insensitively. A missing directory is
// reported as ErrNotFound.
func FindLocalAsset(dir, stem string, kind AssetKind) (string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("asset directory %s: %w", dir, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("list %s: %w", dir, err)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := filepath.Ext(name)
		if !kind.MatchesExtension(ext) {
			continue
		}
		if strings.EqualFold(strings.TrimSuffix(name, ext), stem) {
			return filepath.Join(dir, name), nil
		}
	}
	return "", fmt.Errorf("no local %s for %s: %w", kind, stem, ErrNotFound)
}
