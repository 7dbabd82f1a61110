package igdb

import (
	"errors"
	"strconv"
	"time"

	"github.com/Henry-Sarabia/igdb/v2"
)

// gameRow is the subset of an IGDB game this source uses.
type gameRow struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Summary     string  `json:"summary"`
	ReleaseUnix int64   `json:"release_unix"`
	Rating      float64 `json:"rating"`
	Cover       int     `json:"cover"`
	Screenshots []int   `json:"screenshots"`
	Artworks    []int   `json:"artworks"`
	Genres      []int   `json:"genres"`
	Involved    []int   `json:"involved_companies"`
	Platforms   []int   `json:"platforms"`
}

// catalog is the slice of the IGDB API the client needs.
type catalog interface {
	searchGames(term, platformID string, limit int) ([]gameRow, error)
	game(id int) (*gameRow, error)
	coverImageID(id int) (string, error)
	screenshotImageIDs(ids []int) ([]string, error)
	artworkImageIDs(ids []int) ([]string, error)
	genreNames(ids []int) ([]string, error)
	developerCompanies(involvedIDs []int) ([]int, error)
	companyName(id int) (string, error)
}

var gameFields = []string{
	"id", "name", "summary", "first_release_date", "total_rating",
	"cover", "screenshots", "artworks", "genres", "involved_companies", "platforms",
}

// sdkCatalog implements catalog with the igdb SDK.
type sdkCatalog struct {
	client *igdb.Client
}

func noResults(err error) bool {
	return errors.Is(err, igdb.ErrNoResults)
}

func toRow(g *igdb.Game) gameRow {
	return gameRow{
		ID:          g.ID,
		Name:        g.Name,
		Summary:     g.Summary,
		ReleaseUnix: int64(g.FirstReleaseDate),
		Rating:      g.TotalRating,
		Cover:       g.Cover,
		Screenshots: g.Screenshots,
		Artworks:    g.Artworks,
		Genres:      g.Genres,
		Involved:    g.InvolvedCompanies,
		Platforms:   g.Platforms,
	}
}

func (s *sdkCatalog) searchGames(term, platformID string, limit int) ([]gameRow, error) {
	opts := []igdb.Option{igdb.SetFields(gameFields...), igdb.SetLimit(limit)}
	if platformID != "" {
		opts = append(opts, igdb.SetFilter("platforms", igdb.OpEquals, platformID))
	}
	games, err := s.client.Games.Search(term, opts...)
	if noResults(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rows := make([]gameRow, 0, len(games))
	for _, g := range games {
		rows = append(rows, toRow(g))
	}
	return rows, nil
}

func (s *sdkCatalog) game(id int) (*gameRow, error) {
	g, err := s.client.Games.Get(id, igdb.SetFields(gameFields...))
	if noResults(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	row := toRow(g)
	return &row, nil
}

func (s *sdkCatalog) coverImageID(id int) (string, error) {
	c, err := s.client.Covers.Get(id, igdb.SetFields("image_id"))
	if noResults(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return c.ImageID, nil
}

func (s *sdkCatalog) screenshotImageIDs(ids []int) ([]string, error) {
	shots, err := s.client.Screenshots.List(ids, igdb.SetFields("image_id"))
	if noResults(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(shots))
	for _, sh := range shots {
		out = append(out, sh.ImageID)
	}
	return out, nil
}

func (s *sdkCatalog) artworkImageIDs(ids []int) ([]string, error) {
	arts, err := s.client.Artworks.List(ids, igdb.SetFields("image_id"))
	if noResults(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(arts))
	for _, a := range arts {
		out = append(out, a.ImageID)
	}
	return out, nil
}

func (s *sdkCatalog) genreNames(ids []int) ([]string, error) {
	genres, err := s.client.Genres.List(ids, igdb.SetFields("name"))
	if noResults(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(genres))
	for _, g := range genres {
		out = append(out, g.Name)
	}
	return out, nil
}

// developerCompanies returns the company ids credited as developer, in
// listing order.
func (s *sdkCatalog) developerCompanies(involvedIDs []int) ([]int, error) {
	involved, err := s.client.InvolvedCompanies.List(involvedIDs, igdb.SetFields("company", "developer"))
	if noResults(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []int
	for _, ic := range involved {
		if ic.Developer {
			out = append(out, ic.Company)
		}
	}
	return out, nil
}

func (s *sdkCatalog) companyName(id int) (string, error) {
	co, err := s.client.Companies.Get(id, igdb.SetFields("name"))
	if noResults(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return co.Name, nil
}

func releaseYear(unix int64) string {
	if unix == 0 {
		return ""
	}
	return strconv.Itoa(time.Unix(unix, 0).UTC().Year())
}
