package romstore

import (
	"context"
	"encoding/xml"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ryanm101/romscraper/internal/scraper"
)

// GamelistGame represents a single game entry in EmulationStation's gamelist.xml.
type GamelistGame struct {
	XMLName     xml.Name `xml:"game"`
	Path        string   `xml:"path"`
	Name        string   `xml:"name"`
	Desc        string   `xml:"desc,omitempty"`
	Image       string   `xml:"image,omitempty"`
	Thumbnail   string   `xml:"thumbnail,omitempty"`
	Marquee     string   `xml:"marquee,omitempty"`
	Video       string   `xml:"video,omitempty"`
	Rating      string   `xml:"rating,omitempty"`
	ReleaseDate string   `xml:"releasedate,omitempty"`
	Developer   string   `xml:"developer,omitempty"`
	Genre       string   `xml:"genre,omitempty"`
	Players     string   `xml:"players,omitempty"`
}

// GamelistXML represents the root gamelist.xml structure.
type GamelistXML struct {
	XMLName xml.Name       `xml:"gameList"`
	Games   []GamelistGame `xml:"game"`
}

// GamelistOptions configures the gamelist export.
type GamelistOptions struct {
	ScrapedOnly bool   // Only include records with scraped metadata
	PathPrefix  string // Prefix to prepend to file names (e.g., "./")
}

// ExportGamelist generates an EmulationStation gamelist.xml for a platform.
func (s *Store) ExportGamelist(ctx context.Context, platform string, opts GamelistOptions) ([]byte, error) {
	recs, err := s.List(ctx, platform)
	if err != nil {
		return nil, err
	}

	var games []GamelistGame
	for _, rec := range recs {
		if opts.ScrapedOnly && rec.MetadataSource == "" {
			continue
		}
		games = append(games, gamelistGame(rec, opts))
	}

	output, err := xml.MarshalIndent(GamelistXML{Games: games}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), output...), nil
}

func gamelistGame(rec *scraper.Record, opts GamelistOptions) GamelistGame {
	md := rec.Metadata
	name := md.Title
	if name == "" {
		name = rec.Identity().BaseName
	}
	game := GamelistGame{
		Path:      formatGamelistPath(rec.Path, opts.PathPrefix),
		Name:      name,
		Desc:      md.Plot,
		Developer: md.Developer,
		Genre:     md.Genre,
		Players:   md.Players,
		Rating:    gamelistRating(md.Rating),
		Image:     firstAsset(rec, scraper.AssetBoxFront, scraper.AssetSnap, scraper.AssetTitle),
		Thumbnail: firstAsset(rec, scraper.AssetThumb, scraper.AssetSnap),
		Marquee:   firstAsset(rec, scraper.AssetClearlogo, scraper.AssetBanner),
		Video:     firstAsset(rec, scraper.AssetTrailer),
	}
	if len(md.Year) == 4 {
		game.ReleaseDate = md.Year + "0101T000000"
	}
	return game
}

func firstAsset(rec *scraper.Record, kinds ...scraper.AssetKind) string {
	for _, k := range kinds {
		if p := rec.Assets[k]; p != "" {
			return p
		}
	}
	return ""
}

// gamelistRating converts a 0-10 rating to the 0-1 scale ES expects.
func gamelistRating(r string) string {
	r = strings.TrimSpace(r)
	if r == "" {
		return ""
	}
	v, err := strconv.ParseFloat(r, 64)
	if err != nil || v < 0 {
		return ""
	}
	if v > 10 {
		v = 10
	}
	return strconv.FormatFloat(v/10, 'f', -1, 64)
}

func formatGamelistPath(path, prefix string) string {
	if prefix != "" {
		return prefix + filepath.Base(path)
	}
	return path
}
