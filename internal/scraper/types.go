package scraper

import (
	"path/filepath"
	"strings"

	"github.com/ryanm101/romscraper/internal/romname"
)

// RomIdentity identifies the unit being scraped.
type RomIdentity struct {
	BaseName string // file name without directory or extension
	Platform string // canonical platform name
	Path     string // full ROM path, used for sidecar and local file lookups
	ObjectID string // record id, used by the SUFFIX naming scheme
}

// Candidate is one search result row from a source.
type Candidate struct {
	ID          string
	Title       string // provider title, compared against the search term
	DisplayName string // shown in the picker; may carry a platform suffix
	RankScore   int
	Platform    string // provider platform code reported with the result
}

// GameMetadata holds the scraped fields. Empty means "not provided".
type GameMetadata struct {
	Title     string
	Year      string
	Genre     string
	Developer string
	Players   string
	Rating    string
	Plot      string
}

// IsEmpty reports whether no field carries a value.
func (m GameMetadata) IsEmpty() bool {
	return m == GameMetadata{}
}

// AssetRecord describes one image or file a source can provide.
type AssetRecord struct {
	Kind        AssetKind
	DisplayName string
	URL         string
	IsOnline    bool
	IsOnPage    bool // URL points at a page that must be fetched to find the file
}

// Record is the caller-owned ROM record that scrape results are written to.
type Record struct {
	ID             string
	Path           string
	Platform       string
	Metadata       GameMetadata
	MetadataSource string
	Assets         map[AssetKind]string
}

// NewRecord creates a record for the ROM at path.
func NewRecord(id, path, platform string) *Record {
	return &Record{
		ID:       id,
		Path:     path,
		Platform: platform,
		Assets:   make(map[AssetKind]string),
	}
}

// Identity derives the immutable scrape identity of the record.
func (r *Record) Identity() RomIdentity {
	return RomIdentity{
		BaseName: romname.BaseName(r.Path),
		Platform: r.Platform,
		Path:     r.Path,
		ObjectID: r.ID,
	}
}

// Dir returns the directory holding the ROM file.
func (r *Record) Dir() string {
	return filepath.Dir(r.Path)
}

// ApplyMetadata copies the non-empty fields of md onto the record.
func (r *Record) ApplyMetadata(md GameMetadata, source string) {
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&r.Metadata.Title, md.Title)
	set(&r.Metadata.Year, md.Year)
	set(&r.Metadata.Genre, md.Genre)
	set(&r.Metadata.Developer, md.Developer)
	set(&r.Metadata.Players, md.Players)
	set(&r.Metadata.Rating, md.Rating)
	set(&r.Metadata.Plot, md.Plot)
	r.MetadataSource = source
}

// SetAsset records the resolved file for kind.
func (r *Record) SetAsset(kind AssetKind, path string) {
	if r.Assets == nil {
		r.Assets = make(map[AssetKind]string)
	}
	r.Assets[kind] = path
}
