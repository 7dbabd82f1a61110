package scraper

import (
	"fmt"
	"strings"
)

// AssetKind is the closed set of artwork and media types.
type AssetKind int

const (
	AssetTitle AssetKind = iota + 1
	AssetSnap
	AssetFanart
	AssetBanner
	AssetClearlogo
	AssetBoxFront
	AssetBoxBack
	AssetCartridge
	AssetFlyer
	AssetMap
	AssetManual
	AssetTrailer
	AssetThumb
)

var assetKindNames = map[AssetKind]string{
	AssetTitle:     "title",
	AssetSnap:      "snap",
	AssetFanart:    "fanart",
	AssetBanner:    "banner",
	AssetClearlogo: "clearlogo",
	AssetBoxFront:  "boxfront",
	AssetBoxBack:   "boxback",
	AssetCartridge: "cartridge",
	AssetFlyer:     "flyer",
	AssetMap:       "map",
	AssetManual:    "manual",
	AssetTrailer:   "trailer",
	AssetThumb:     "thumb",
}

var (
	imageExtensions   = []string{".png", ".jpg", ".gif", ".jpeg", ".bmp"}
	manualExtensions  = []string{".pdf"}
	trailerExtensions = []string{".mov", ".divx", ".xvid", ".wmv", ".avi", ".mpg", ".mpeg", ".mp4", ".mkv", ".avc"}
)

// AllAssetKinds lists every kind in declaration order.
func AllAssetKinds() []AssetKind {
	return []AssetKind{
		AssetTitle, AssetSnap, AssetFanart, AssetBanner, AssetClearlogo,
		AssetBoxFront, AssetBoxBack, AssetCartridge, AssetFlyer, AssetMap,
		AssetManual, AssetTrailer, AssetThumb,
	}
}

func (k AssetKind) String() string {
	if name, ok := assetKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("AssetKind(%d)", int(k))
}

// Suffix is the token used by the SUFFIX naming scheme.
func (k AssetKind) Suffix() string {
	return k.String()
}

// Valid reports whether k is one of the declared kinds.
func (k AssetKind) Valid() bool {
	_, ok := assetKindNames[k]
	return ok
}

// Extensions returns the file extensions a local file of this kind may use.
func (k AssetKind) Extensions() []string {
	switch k {
	case AssetManual:
		return manualExtensions
	case AssetTrailer:
		return trailerExtensions
	default:
		return imageExtensions
	}
}

// MatchesExtension reports whether ext (with dot) is valid for k, ignoring case.
func (k AssetKind) MatchesExtension(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range k.Extensions() {
		if e == ext {
			return true
		}
	}
	return false
}

// ParseAssetKind accepts the lower-case names used in configuration.
func ParseAssetKind(s string) (AssetKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range assetKindNames {
		if name == s {
			return k, nil
		}
	}
	switch s {
	case "box_front", "boxfront2d", "cover":
		return AssetBoxFront, nil
	case "box_back":
		return AssetBoxBack, nil
	case "screenshot", "snapshot":
		return AssetSnap, nil
	case "logo":
		return AssetClearlogo, nil
	}
	return 0, fmt.Errorf("unknown asset kind %q", s)
}
