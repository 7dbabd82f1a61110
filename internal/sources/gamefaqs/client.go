// Package gamefaqs implements a scraper source that reads GameFAQs HTML
// pages. Box art is listed on a gallery page and the file URL lives on a
// per-image page, so those records are "on page" and resolved lazily.
package gamefaqs

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ryanm101/romscraper/internal/platform"
	"github.com/ryanm101/romscraper/internal/respcache"
	"github.com/ryanm101/romscraper/internal/romname"
	"github.com/ryanm101/romscraper/internal/scraper"
	"github.com/ryanm101/romscraper/internal/sources/sourceutil"
)

// ID is the provider id used in configuration and platform tables.
const ID = "gamefaqs"

// DefaultBaseURL is the public site.
const DefaultBaseURL = "https://gamefaqs.gamespot.com"

// DefaultRequestsPerSecond keeps page scraping polite.
const DefaultRequestsPerSecond = 1

var headers = map[string]string{"Accept": "text/html"}

// Client scrapes GameFAQs.
type Client struct {
	baseURL string
	gate    *sourceutil.Gate
}

var (
	_ scraper.SourceClient     = (*Client)(nil)
	_ scraper.AssetURLResolver = (*Client)(nil)
)

// New creates a client. No request is made until the first search.
func New(baseURL string, gate *sourceutil.Gate) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), gate: gate}
}

func (c *Client) ID() string { return ID }

// page fetches and parses an HTML page. A nil document means 404.
func (c *Client) page(ctx context.Context, key, pageURL string) (*goquery.Document, error) {
	body, found, err := c.gate.Get(ctx, key, pageURL, headers)
	if err != nil || !found {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		c.gate.Malformed(ctx, key, err)
		return nil, nil
	}
	return doc, nil
}

func (c *Client) absolute(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return c.baseURL + "/" + strings.TrimLeft(href, "/")
}

// Search reads the advanced search results table. Candidate ids are site
// paths such as "/snes/519824-super-mario-world".
func (c *Client) Search(ctx context.Context, term, _ string, code platform.Code) ([]scraper.Candidate, error) {
	q := url.Values{}
	q.Set("game", term)
	if code.Known {
		q.Set("platform", code.Value)
	}
	key := respcache.Key("search", romname.NormalizeTerm(term), code.String())
	doc, err := c.page(ctx, key, c.baseURL+"/search_advanced?"+q.Encode())
	if err != nil || doc == nil {
		return nil, err
	}

	var out []scraper.Candidate
	doc.Find("table.results tr").Each(func(i int, row *goquery.Selection) {
		link := row.Find("td.rtitle a").First()
		href, ok := link.Attr("href")
		title := strings.TrimSpace(link.Text())
		if !ok || title == "" {
			return
		}
		name := title
		if plat := strings.TrimSpace(row.Find("td.rplat").Text()); plat != "" && !code.Known {
			name = fmt.Sprintf("%s (%s)", title, plat)
		}
		cand := scraper.Candidate{
			ID:          href,
			Title:       title,
			DisplayName: name,
			RankScore:   romname.Similarity(term, title)*10 - i,
		}
		if code.Known {
			cand.Platform = code.Value
		}
		out = append(out, cand)
	})
	return out, nil
}

// FetchMetadata reads the game's overview page.
func (c *Client) FetchMetadata(ctx context.Context, id string) (scraper.GameMetadata, error) {
	doc, err := c.page(ctx, "game|"+id, c.absolute(id))
	if err != nil {
		return scraper.GameMetadata{}, err
	}
	if doc == nil {
		return scraper.GameMetadata{}, fmt.Errorf("%s game %s: %w", ID, id, scraper.ErrNotFound)
	}

	md := scraper.GameMetadata{
		Title: strings.TrimSpace(doc.Find("h1.page-title").First().Text()),
		Plot:  strings.TrimSpace(doc.Find("div.game_desc div.desc").First().Text()),
	}
	doc.Find("div.pod_gameinfo li").Each(func(_ int, li *goquery.Selection) {
		label := strings.TrimSuffix(strings.TrimSpace(li.Find("b").First().Text()), ":")
		value := strings.TrimSpace(strings.TrimPrefix(li.Text(), li.Find("b").First().Text()))
		value = strings.TrimSpace(strings.TrimSuffix(value, "»"))
		switch strings.ToLower(label) {
		case "genre":
			md.Genre = strings.Join(strings.Fields(strings.ReplaceAll(value, "»", "/")), " ")
		case "developer", "developer/publisher":
			md.Developer = value
		case "release":
			md.Year = yearOf(value)
		case "players", "local players":
			md.Players = value
		case "esrb", "rating":
			md.Rating = value
		}
	})
	return md, nil
}

func yearOf(s string) string {
	for _, f := range strings.Fields(s) {
		f = strings.Trim(f, ",.»")
		if len(f) == 4 && f[0] >= '1' && f[0] <= '2' {
			return f
		}
	}
	return ""
}

// FetchAssetIndex reads the image gallery. Box shots are on-page records;
// screenshots link straight to the file.
func (c *Client) FetchAssetIndex(ctx context.Context, id string) ([]scraper.AssetRecord, error) {
	doc, err := c.page(ctx, "images|"+id, c.absolute(strings.TrimRight(id, "/")+"/images"))
	if err != nil || doc == nil {
		return nil, err
	}

	var out []scraper.AssetRecord
	doc.Find("div.boxshot").Each(func(_ int, box *goquery.Selection) {
		href, ok := box.Find("a").First().Attr("href")
		if !ok {
			return
		}
		region := strings.TrimSpace(box.Find(".region").Text())
		page := c.absolute(href)
		out = append(out,
			scraper.AssetRecord{Kind: scraper.AssetBoxFront, DisplayName: strings.TrimSpace(region + " Front"), URL: page, IsOnline: true, IsOnPage: true},
			scraper.AssetRecord{Kind: scraper.AssetBoxBack, DisplayName: strings.TrimSpace(region + " Back"), URL: page, IsOnline: true, IsOnPage: true},
		)
	})
	doc.Find("div.screenshots img").Each(func(i int, img *goquery.Selection) {
		src := img.AttrOr("data-src", img.AttrOr("src", ""))
		if src == "" {
			return
		}
		out = append(out, scraper.AssetRecord{
			Kind:        scraper.AssetSnap,
			DisplayName: fmt.Sprintf("Screenshot %d", i+1),
			URL:         c.absolute(src),
			IsOnline:    true,
		})
	})
	return out, nil
}

// ResolveAssetURL opens the box shot page behind rec and picks the front or
// back scan.
func (c *Client) ResolveAssetURL(ctx context.Context, _ string, rec scraper.AssetRecord) (string, error) {
	doc, err := c.page(ctx, respcache.Key("boxpage", rec.URL), rec.URL)
	if err != nil {
		return "", err
	}
	if doc == nil {
		return "", fmt.Errorf("%s box page %s: %w", ID, rec.URL, scraper.ErrNotFound)
	}

	want := "front"
	if rec.Kind == scraper.AssetBoxBack {
		want = "back"
	}
	imgs := doc.Find("img.full_boxshot")
	var src string
	imgs.EachWithBreak(func(_ int, img *goquery.Selection) bool {
		if strings.Contains(strings.ToLower(img.AttrOr("alt", "")), want) {
			src = img.AttrOr("src", "")
			return false
		}
		return true
	})
	if src == "" {
		idx := 0
		if want == "back" {
			idx = 1
		}
		if imgs.Length() > idx {
			src = imgs.Eq(idx).AttrOr("src", "")
		}
	}
	if src == "" {
		return "", fmt.Errorf("%s: no %s scan on %s: %w", ID, want, rec.URL, scraper.ErrNotFound)
	}
	return c.absolute(src), nil
}
