// Package thegamesdb implements a scraper source backed by the TheGamesDB
// v1 JSON API.
package thegamesdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/ryanm101/romscraper/internal/platform"
	"github.com/ryanm101/romscraper/internal/respcache"
	"github.com/ryanm101/romscraper/internal/romname"
	"github.com/ryanm101/romscraper/internal/scraper"
	"github.com/ryanm101/romscraper/internal/sources/sourceutil"
)

// ID is the provider id used in configuration and platform tables.
const ID = "thegamesdb"

// DefaultBaseURL is the public API endpoint.
const DefaultBaseURL = "https://api.thegamesdb.net"

// DefaultRequestsPerSecond keeps well inside the public key's budget.
const DefaultRequestsPerSecond = 2

// Client talks to TheGamesDB.
type Client struct {
	baseURL string
	apiKey  string
	gate    *sourceutil.Gate
}

var _ scraper.SourceClient = (*Client)(nil)

// New creates a client. No request is made until the first search.
func New(baseURL, apiKey string, gate *sourceutil.Gate) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, gate: gate}
}

func (c *Client) ID() string { return ID }

type gameRow struct {
	ID          int    `json:"id"`
	Title       string `json:"game_title"`
	ReleaseDate string `json:"release_date"`
	Platform    int    `json:"platform"`
	Players     int    `json:"players"`
	Overview    string `json:"overview"`
	Rating      string `json:"rating"`
	Developers  []int  `json:"developers"`
	Genres      []int  `json:"genres"`
}

type gamesResponse struct {
	Code int `json:"code"`
	Data struct {
		Count int       `json:"count"`
		Games []gameRow `json:"games"`
	} `json:"data"`
}

func (c *Client) endpoint(path string, q url.Values) string {
	q.Set("apikey", c.apiKey)
	return c.baseURL + path + "?" + q.Encode()
}

// Search queries games by name. An unknown platform searches every platform.
func (c *Client) Search(ctx context.Context, term, _ string, code platform.Code) ([]scraper.Candidate, error) {
	q := url.Values{}
	q.Set("name", term)
	if code.Known {
		q.Set("filter[platform]", code.Value)
	}

	var resp gamesResponse
	key := respcache.Key("search", romname.NormalizeTerm(term), code.String())
	found, err := c.gate.GetJSON(ctx, key, c.endpoint("/v1/Games/ByGameName", q), nil, &resp)
	if err != nil || !found {
		return nil, err
	}

	out := make([]scraper.Candidate, 0, len(resp.Data.Games))
	for i, g := range resp.Data.Games {
		out = append(out, scraper.Candidate{
			ID:          strconv.Itoa(g.ID),
			Title:       g.Title,
			DisplayName: g.Title,
			RankScore:   romname.Similarity(term, g.Title)*10 - i,
			Platform:    strconv.Itoa(g.Platform),
		})
	}
	return out, nil
}

func (c *Client) game(ctx context.Context, id string) (*gameRow, error) {
	q := url.Values{}
	q.Set("id", id)
	q.Set("fields", "players,genres,overview,rating,developers")

	var resp gamesResponse
	found, err := c.gate.GetJSON(ctx, "game|"+id, c.endpoint("/v1/Games/ByGameID", q), nil, &resp)
	if err != nil {
		return nil, err
	}
	if !found || len(resp.Data.Games) == 0 {
		return nil, fmt.Errorf("%s game %s: %w", ID, id, scraper.ErrNotFound)
	}
	return &resp.Data.Games[0], nil
}

// FetchMetadata loads one game and resolves genre and developer names.
func (c *Client) FetchMetadata(ctx context.Context, id string) (scraper.GameMetadata, error) {
	g, err := c.game(ctx, id)
	if err != nil {
		return scraper.GameMetadata{}, err
	}

	md := scraper.GameMetadata{
		Title:  g.Title,
		Plot:   g.Overview,
		Rating: g.Rating,
	}
	if len(g.ReleaseDate) >= 4 {
		md.Year = g.ReleaseDate[:4]
	}
	if g.Players > 0 {
		md.Players = strconv.Itoa(g.Players)
	}

	if len(g.Genres) > 0 {
		names, err := c.lookup(ctx, "genres", "/v1/Genres", g.Genres)
		if err != nil {
			return scraper.GameMetadata{}, err
		}
		md.Genre = strings.Join(names, " / ")
	}
	if len(g.Developers) > 0 {
		names, err := c.lookup(ctx, "developers", "/v1/Developers", g.Developers)
		if err != nil {
			return scraper.GameMetadata{}, err
		}
		if len(names) > 0 {
			md.Developer = names[0]
		}
	}
	return md, nil
}

type namedRow struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// lookup resolves ids against one of the static name tables.
func (c *Client) lookup(ctx context.Context, table, path string, ids []int) ([]string, error) {
	// data also carries a numeric count next to the table itself.
	var resp struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	key := "table|" + table
	found, err := c.gate.GetJSON(ctx, key, c.endpoint(path, url.Values{}), nil, &resp)
	if err != nil || !found {
		return nil, err
	}
	var rows map[string]namedRow
	if raw, ok := resp.Data[table]; ok {
		if err := json.Unmarshal(raw, &rows); err != nil {
			c.gate.Malformed(ctx, key, err)
			return nil, nil
		}
	}

	var names []string
	for _, id := range ids {
		if row, ok := rows[strconv.Itoa(id)]; ok && row.Name != "" {
			names = append(names, row.Name)
		}
	}
	return names, nil
}

type imageRow struct {
	ID       int    `json:"id"`
	Type     string `json:"type"`
	Side     string `json:"side"`
	Filename string `json:"filename"`
}

type imagesResponse struct {
	Data struct {
		BaseURL struct {
			Original string `json:"original"`
		} `json:"base_url"`
		Images map[string][]imageRow `json:"images"`
	} `json:"data"`
}

// FetchAssetIndex lists every image the site holds for a game.
func (c *Client) FetchAssetIndex(ctx context.Context, id string) ([]scraper.AssetRecord, error) {
	q := url.Values{}
	q.Set("games_id", id)

	var resp imagesResponse
	found, err := c.gate.GetJSON(ctx, "images|"+id, c.endpoint("/v1/Games/Images", q), nil, &resp)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	rows := resp.Data.Images[id]
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })

	base := resp.Data.BaseURL.Original
	var out []scraper.AssetRecord
	for _, img := range rows {
		kind, ok := kindFor(img)
		if !ok || img.Filename == "" {
			continue
		}
		out = append(out, scraper.AssetRecord{
			Kind:        kind,
			DisplayName: fmt.Sprintf("%s #%d", kind, img.ID),
			URL:         joinURL(base, img.Filename),
			IsOnline:    true,
		})
	}
	return out, nil
}

func kindFor(img imageRow) (scraper.AssetKind, bool) {
	switch img.Type {
	case "boxart":
		if img.Side == "back" {
			return scraper.AssetBoxBack, true
		}
		return scraper.AssetBoxFront, true
	case "screenshot":
		return scraper.AssetSnap, true
	case "titlescreen":
		return scraper.AssetTitle, true
	case "fanart":
		return scraper.AssetFanart, true
	case "banner":
		return scraper.AssetBanner, true
	case "clearlogo":
		return scraper.AssetClearlogo, true
	}
	return 0, false
}

func joinURL(base, file string) string {
	if base == "" {
		return file
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(file, "/")
}
