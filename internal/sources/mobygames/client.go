// Package mobygames implements a scraper source backed by the MobyGames v1
// JSON API. Candidate ids carry both the game and the platform
// ("gameID/platformID") because covers and screenshots are per platform.
package mobygames

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ryanm101/romscraper/internal/platform"
	"github.com/ryanm101/romscraper/internal/respcache"
	"github.com/ryanm101/romscraper/internal/romname"
	"github.com/ryanm101/romscraper/internal/scraper"
	"github.com/ryanm101/romscraper/internal/sources/sourceutil"
)

// ID is the provider id used in configuration and platform tables.
const ID = "mobygames"

// DefaultBaseURL is the public API endpoint.
const DefaultBaseURL = "https://api.mobygames.com"

// DefaultRequestsPerSecond is the documented free-tier budget.
const DefaultRequestsPerSecond = 1

// Client talks to MobyGames.
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

type gamePlatform struct {
	ID          int    `json:"platform_id"`
	Name        string `json:"platform_name"`
	ReleaseDate string `json:"first_release_date"`
}

type genre struct {
	Name     string `json:"genre_name"`
	Category string `json:"genre_category"`
}

type game struct {
	ID          int            `json:"game_id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	MobyScore   float64        `json:"moby_score"`
	Genres      []genre        `json:"genres"`
	Platforms   []gamePlatform `json:"platforms"`
}

func (c *Client) endpoint(path string, q url.Values) string {
	if q == nil {
		q = url.Values{}
	}
	q.Set("api_key", c.apiKey)
	return c.baseURL + path + "?" + q.Encode()
}

// Search queries games by title. An unknown platform searches every platform
// and yields one candidate per game/platform pair.
func (c *Client) Search(ctx context.Context, term, _ string, code platform.Code) ([]scraper.Candidate, error) {
	q := url.Values{}
	q.Set("title", term)
	q.Set("format", "normal")
	if code.Known {
		q.Set("platform", code.Value)
	}

	var resp struct {
		Games []game `json:"games"`
	}
	key := respcache.Key("search", romname.NormalizeTerm(term), code.String())
	found, err := c.gate.GetJSON(ctx, key, c.endpoint("/v1/games", q), nil, &resp)
	if err != nil || !found {
		return nil, err
	}

	var out []scraper.Candidate
	for i, g := range resp.Games {
		score := romname.Similarity(term, g.Title)*10 - i
		for _, p := range g.Platforms {
			pid := strconv.Itoa(p.ID)
			if code.Known && pid != code.Value {
				continue
			}
			name := g.Title
			if !code.Known {
				name = fmt.Sprintf("%s (%s)", g.Title, p.Name)
			}
			out = append(out, scraper.Candidate{
				ID:          fmt.Sprintf("%d/%d", g.ID, p.ID),
				Title:       g.Title,
				DisplayName: name,
				RankScore:   score,
				Platform:    pid,
			})
		}
	}
	return out, nil
}

func splitID(id string) (gameID, platformID string, err error) {
	gameID, platformID, ok := strings.Cut(id, "/")
	if !ok || gameID == "" || platformID == "" {
		return "", "", fmt.Errorf("invalid %s candidate id %q", ID, id)
	}
	return gameID, platformID, nil
}

type platformDetail struct {
	ReleaseDate string `json:"first_release_date"`
	Attributes  []struct {
		Category string `json:"attribute_category_name"`
		Name     string `json:"attribute_name"`
	} `json:"attributes"`
	Ratings []struct {
		System string `json:"rating_system_name"`
		Name   string `json:"rating_name"`
	} `json:"ratings"`
	Releases []struct {
		Companies []struct {
			Name string `json:"company_name"`
			Role string `json:"role"`
		} `json:"companies"`
	} `json:"releases"`
}

// FetchMetadata combines the game record with its platform-specific details.
func (c *Client) FetchMetadata(ctx context.Context, id string) (scraper.GameMetadata, error) {
	gameID, platformID, err := splitID(id)
	if err != nil {
		return scraper.GameMetadata{}, err
	}

	var g game
	found, err := c.gate.GetJSON(ctx, "game|"+gameID, c.endpoint("/v1/games/"+gameID, nil), nil, &g)
	if err != nil {
		return scraper.GameMetadata{}, err
	}
	if !found {
		return scraper.GameMetadata{}, fmt.Errorf("%s game %s: %w", ID, gameID, scraper.ErrNotFound)
	}

	md := scraper.GameMetadata{
		Title: g.Title,
		Plot:  stripTags(g.Description),
	}
	for _, gn := range g.Genres {
		if gn.Category == "Basic Genres" {
			md.Genre = gn.Name
			break
		}
	}
	if md.Genre == "" && len(g.Genres) > 0 {
		md.Genre = g.Genres[0].Name
	}

	var detail platformDetail
	path := fmt.Sprintf("/v1/games/%s/platforms/%s", gameID, platformID)
	found, err = c.gate.GetJSON(ctx, "platform|"+id, c.endpoint(path, nil), nil, &detail)
	if err != nil {
		return scraper.GameMetadata{}, err
	}
	if found {
		applyPlatformDetail(&md, detail)
	}
	return md, nil
}

func applyPlatformDetail(md *scraper.GameMetadata, d platformDetail) {
	if len(d.ReleaseDate) >= 4 {
		md.Year = d.ReleaseDate[:4]
	}
	for _, a := range d.Attributes {
		if strings.HasPrefix(a.Category, "Number of Players") || strings.HasPrefix(a.Category, "Number of Offline Players") {
			md.Players = strings.TrimSuffix(a.Name, " Players")
			break
		}
	}
	for _, r := range d.Ratings {
		if r.System == "ESRB Rating" {
			md.Rating = r.Name
			break
		}
	}
	for _, rel := range d.Releases {
		for _, co := range rel.Companies {
			if co.Role == "Developed by" {
				md.Developer = co.Name
				return
			}
		}
	}
}

// FetchAssetIndex lists covers and screenshots for the candidate's platform.
func (c *Client) FetchAssetIndex(ctx context.Context, id string) ([]scraper.AssetRecord, error) {
	gameID, platformID, err := splitID(id)
	if err != nil {
		return nil, err
	}
	base := fmt.Sprintf("/v1/games/%s/platforms/%s", gameID, platformID)

	var covers struct {
		Groups []struct {
			Countries []string `json:"countries"`
			Covers    []struct {
				Image  string `json:"image"`
				ScanOf string `json:"scan_of"`
			} `json:"covers"`
		} `json:"cover_groups"`
	}
	found, err := c.gate.GetJSON(ctx, "covers|"+id, c.endpoint(base+"/covers", nil), nil, &covers)
	if err != nil {
		return nil, err
	}

	var out []scraper.AssetRecord
	if found {
		for _, grp := range covers.Groups {
			region := strings.Join(grp.Countries, ", ")
			for _, cv := range grp.Covers {
				kind, ok := coverKind(cv.ScanOf)
				if !ok || cv.Image == "" {
					continue
				}
				out = append(out, scraper.AssetRecord{
					Kind:        kind,
					DisplayName: strings.TrimSpace(cv.ScanOf + " " + region),
					URL:         cv.Image,
					IsOnline:    true,
				})
			}
		}
	}

	var shots struct {
		Screenshots []struct {
			Image   string `json:"image"`
			Caption string `json:"caption"`
		} `json:"screenshots"`
	}
	found, err = c.gate.GetJSON(ctx, "screenshots|"+id, c.endpoint(base+"/screenshots", nil), nil, &shots)
	if err != nil {
		return nil, err
	}
	if found {
		for _, s := range shots.Screenshots {
			if s.Image == "" {
				continue
			}
			kind := scraper.AssetSnap
			if strings.Contains(strings.ToLower(s.Caption), "title screen") {
				kind = scraper.AssetTitle
			}
			out = append(out, scraper.AssetRecord{
				Kind:        kind,
				DisplayName: s.Caption,
				URL:         s.Image,
				IsOnline:    true,
			})
		}
	}
	return out, nil
}

func coverKind(scanOf string) (scraper.AssetKind, bool) {
	switch strings.ToLower(scanOf) {
	case "front cover":
		return scraper.AssetBoxFront, true
	case "back cover":
		return scraper.AssetBoxBack, true
	case "media":
		return scraper.AssetCartridge, true
	}
	return 0, false
}

// stripTags reduces the HTML MobyGames uses in descriptions to plain text.
func stripTags(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
