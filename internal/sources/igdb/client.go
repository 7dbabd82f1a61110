// Package igdb implements a scraper source backed by the IGDB API. Access
// tokens come from Twitch and are requested on first use, so constructing a
// client never touches the network.
package igdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Henry-Sarabia/igdb/v2"

	"github.com/ryanm101/romscraper/internal/platform"
	"github.com/ryanm101/romscraper/internal/respcache"
	"github.com/ryanm101/romscraper/internal/romname"
	"github.com/ryanm101/romscraper/internal/scraper"
	"github.com/ryanm101/romscraper/internal/sources/sourceutil"
)

// ID is the provider id used in configuration and platform tables.
const ID = "igdb"

// DefaultRequestsPerSecond is IGDB's documented limit.
const DefaultRequestsPerSecond = 4

// DefaultTokenURL issues Twitch app access tokens.
const DefaultTokenURL = "https://id.twitch.tv/oauth2/token"

const (
	searchLimit = 10
	imageBase   = "https://images.igdb.com/igdb/image/upload"
)

// Client talks to IGDB.
type Client struct {
	clientID     string
	clientSecret string
	tokenURL     string
	httpClient   *http.Client
	gate         *sourceutil.Gate

	mu      sync.Mutex
	catalog catalog
}

var _ scraper.SourceClient = (*Client)(nil)

// New creates a client. httpClient may be nil. The SDK sends requests
// without a context, so the client handed to it always carries the gate's
// request timeout.
func New(clientID, clientSecret string, gate *sourceutil.Gate, httpClient *http.Client) *Client {
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     DefaultTokenURL,
		httpClient:   boundedClient(httpClient, gate.Timeout()),
		gate:         gate,
	}
}

func boundedClient(base *http.Client, timeout time.Duration) *http.Client {
	var hc http.Client
	if base != nil {
		hc = *base
	}
	if hc.Timeout <= 0 || hc.Timeout > timeout {
		hc.Timeout = timeout
	}
	return &hc
}

// newWithCatalog is used by tests to bypass authentication.
func newWithCatalog(gate *sourceutil.Gate, c catalog) *Client {
	return &Client{gate: gate, catalog: c}
}

func (c *Client) ID() string { return ID }

// api returns the catalog, authenticating on first use. A failed token
// request is retried on the next call.
func (c *Client) api(ctx context.Context) (catalog, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.catalog != nil {
		return c.catalog, nil
	}

	token, err := c.fetchToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("authenticate with twitch: %w", err)
	}
	c.catalog = &sdkCatalog{client: igdb.NewClient(c.clientID, token, c.httpClient)}
	return c.catalog, nil
}

func (c *Client) fetchToken(ctx context.Context) (string, error) {
	vals := url.Values{}
	vals.Set("client_id", c.clientID)
	vals.Set("client_secret", c.clientSecret)
	vals.Set("grant_type", "client_credentials")

	if err := c.gate.Wait(ctx); err != nil {
		return "", err
	}
	resp, err := c.gate.Fetcher().Post(ctx, c.tokenURL, []byte(vals.Encode()),
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"}, c.gate.Timeout())
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", fmt.Errorf("unexpected status: %d", resp.Status)
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return "", fmt.Errorf("decode token: %w", err)
	}
	if result.AccessToken == "" {
		return "", fmt.Errorf("empty access token")
	}
	return result.AccessToken, nil
}

// remember caches a JSON-encoded catalog result under key.
func remember[T any](ctx context.Context, g *sourceutil.Gate, key string, fetch func() (*T, error)) (*T, error) {
	data, err := g.Remember(ctx, key, func() ([]byte, error) {
		v, err := fetch()
		if err != nil || v == nil {
			return nil, err
		}
		return json.Marshal(v)
	})
	if err != nil || data == nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		g.Malformed(ctx, key, err)
		return nil, nil
	}
	return &out, nil
}

// Search runs a full text game search. An unknown platform drops the
// platform filter.
func (c *Client) Search(ctx context.Context, term, _ string, code platform.Code) ([]scraper.Candidate, error) {
	api, err := c.api(ctx)
	if err != nil {
		return nil, err
	}
	platformID := ""
	if code.Known {
		platformID = code.Value
	}

	key := respcache.Key("search", romname.NormalizeTerm(term), code.String())
	rows, err := remember(ctx, c.gate, key, func() (*[]gameRow, error) {
		rows, err := api.searchGames(term, platformID, searchLimit)
		if err != nil || rows == nil {
			return nil, err
		}
		return &rows, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s search: %w", ID, err)
	}
	if rows == nil {
		return nil, nil
	}

	out := make([]scraper.Candidate, 0, len(*rows))
	for i, g := range *rows {
		cand := scraper.Candidate{
			ID:          strconv.Itoa(g.ID),
			Title:       g.Name,
			DisplayName: g.Name,
			RankScore:   romname.Similarity(term, g.Name)*10 - i,
		}
		if code.Known && hasPlatform(g.Platforms, code.Value) {
			cand.Platform = code.Value
		}
		out = append(out, cand)
	}
	return out, nil
}

func hasPlatform(ids []int, code string) bool {
	for _, id := range ids {
		if strconv.Itoa(id) == code {
			return true
		}
	}
	return false
}

func (c *Client) game(ctx context.Context, api catalog, id string) (*gameRow, error) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return nil, fmt.Errorf("invalid %s game id %q", ID, id)
	}
	g, err := remember(ctx, c.gate, "game|"+id, func() (*gameRow, error) {
		return api.game(n)
	})
	if err != nil {
		return nil, fmt.Errorf("%s game %s: %w", ID, id, err)
	}
	if g == nil {
		return nil, fmt.Errorf("%s game %s: %w", ID, id, scraper.ErrNotFound)
	}
	return g, nil
}

// FetchMetadata loads a game and resolves genres and the developer.
func (c *Client) FetchMetadata(ctx context.Context, id string) (scraper.GameMetadata, error) {
	api, err := c.api(ctx)
	if err != nil {
		return scraper.GameMetadata{}, err
	}
	g, err := c.game(ctx, api, id)
	if err != nil {
		return scraper.GameMetadata{}, err
	}

	md := scraper.GameMetadata{
		Title: g.Name,
		Plot:  g.Summary,
		Year:  releaseYear(g.ReleaseUnix),
	}
	if g.Rating > 0 {
		md.Rating = strconv.FormatFloat(g.Rating/10, 'f', 1, 64)
	}

	if len(g.Genres) > 0 {
		genres, err := remember(ctx, c.gate, "genres|"+joinInts(g.Genres), func() (*[]string, error) {
			names, err := api.genreNames(g.Genres)
			return &names, err
		})
		if err != nil {
			return scraper.GameMetadata{}, err
		}
		if genres != nil {
			md.Genre = strings.Join(*genres, " / ")
		}
	}
	if len(g.Involved) > 0 {
		dev, err := c.developer(ctx, api, id, g.Involved)
		if err != nil {
			return scraper.GameMetadata{}, err
		}
		md.Developer = dev
	}
	return md, nil
}

// developer resolves the first credited developer. The involved-company list
// and each company lookup are separate requests, each taken from the budget.
func (c *Client) developer(ctx context.Context, api catalog, id string, involved []int) (string, error) {
	companies, err := remember(ctx, c.gate, "developers|"+id, func() (*[]int, error) {
		ids, err := api.developerCompanies(involved)
		if err != nil || len(ids) == 0 {
			return nil, err
		}
		return &ids, nil
	})
	if err != nil || companies == nil {
		return "", err
	}
	for _, co := range *companies {
		name, err := remember(ctx, c.gate, "company|"+strconv.Itoa(co), func() (*string, error) {
			name, err := api.companyName(co)
			if err != nil || name == "" {
				return nil, err
			}
			return &name, nil
		})
		if err != nil {
			return "", err
		}
		if name != nil {
			return *name, nil
		}
	}
	return "", nil
}

// FetchAssetIndex lists the cover, screenshots and artworks of a game.
func (c *Client) FetchAssetIndex(ctx context.Context, id string) ([]scraper.AssetRecord, error) {
	api, err := c.api(ctx)
	if err != nil {
		return nil, err
	}
	g, err := c.game(ctx, api, id)
	if err != nil {
		return nil, err
	}

	var out []scraper.AssetRecord
	add := func(kind scraper.AssetKind, size, imageID, label string) {
		if imageID == "" {
			return
		}
		out = append(out, scraper.AssetRecord{
			Kind:        kind,
			DisplayName: label,
			URL:         fmt.Sprintf("%s/%s/%s.jpg", imageBase, size, imageID),
			IsOnline:    true,
		})
	}

	if g.Cover != 0 {
		cover, err := remember(ctx, c.gate, "cover|"+strconv.Itoa(g.Cover), func() (*string, error) {
			imageID, err := api.coverImageID(g.Cover)
			return &imageID, err
		})
		if err != nil {
			return nil, err
		}
		if cover != nil {
			add(scraper.AssetBoxFront, "t_cover_big", *cover, "Cover")
		}
	}
	if len(g.Screenshots) > 0 {
		shots, err := remember(ctx, c.gate, "screenshots|"+id, func() (*[]string, error) {
			ids, err := api.screenshotImageIDs(g.Screenshots)
			return &ids, err
		})
		if err != nil {
			return nil, err
		}
		if shots != nil {
			for i, imageID := range *shots {
				add(scraper.AssetSnap, "t_screenshot_huge", imageID, fmt.Sprintf("Screenshot %d", i+1))
			}
		}
	}
	if len(g.Artworks) > 0 {
		arts, err := remember(ctx, c.gate, "artworks|"+id, func() (*[]string, error) {
			ids, err := api.artworkImageIDs(g.Artworks)
			return &ids, err
		})
		if err != nil {
			return nil, err
		}
		if arts != nil {
			for i, imageID := range *arts {
				add(scraper.AssetFanart, "t_1080p", imageID, fmt.Sprintf("Artwork %d", i+1))
			}
		}
	}
	return out, nil
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
