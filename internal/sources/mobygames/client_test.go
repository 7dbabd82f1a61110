package mobygames

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanm101/romscraper/internal/logging"
	"github.com/ryanm101/romscraper/internal/netfetch"
	"github.com/ryanm101/romscraper/internal/platform"
	"github.com/ryanm101/romscraper/internal/scraper"
	"github.com/ryanm101/romscraper/internal/sources/sourceutil"
)

const searchBody = `{"games":[
 {"game_id":180,"title":"Sonic the Hedgehog","platforms":[
   {"platform_id":16,"platform_name":"Genesis","first_release_date":"1991-06-23"},
   {"platform_id":26,"platform_name":"SEGA Master System","first_release_date":"1991-10-25"}]},
 {"game_id":181,"title":"Sonic the Hedgehog 2","platforms":[
   {"platform_id":16,"platform_name":"Genesis","first_release_date":"1992"}]}
]}`

const gameBody = `{"game_id":180,"title":"Sonic the Hedgehog",
 "description":"<p>Dr. Robotnik has <i>kidnapped</i> the animals.</p>",
 "genres":[{"genre_name":"Side view","genre_category":"Perspective"},{"genre_name":"Action","genre_category":"Basic Genres"}]}`

const platformBody = `{"first_release_date":"1991-06-23",
 "attributes":[{"attribute_category_name":"Number of Players Supported","attribute_name":"1 Player"}],
 "ratings":[{"rating_system_name":"ESRB Rating","rating_name":"Everyone"}],
 "releases":[{"companies":[{"company_name":"SEGA of America","role":"Published by"},{"company_name":"Sonic Team","role":"Developed by"}]}]}`

const coversBody = `{"cover_groups":[{"countries":["United States"],"covers":[
 {"image":"https://cdn.mobygames.com/covers/front.jpg","scan_of":"Front Cover"},
 {"image":"https://cdn.mobygames.com/covers/back.jpg","scan_of":"Back Cover"},
 {"image":"https://cdn.mobygames.com/covers/spine.jpg","scan_of":"Spine/Sides"},
 {"image":"https://cdn.mobygames.com/covers/media.jpg","scan_of":"Media"}]}]}`

const screenshotsBody = `{"screenshots":[
 {"image":"https://cdn.mobygames.com/shots/1.png","caption":"Title screen"},
 {"image":"https://cdn.mobygames.com/shots/2.png","caption":"Green Hill Zone"}]}`

func newClient(baseURL string) *Client {
	gate := sourceutil.NewGate(sourceutil.Options{
		Provider: ID,
		Fetcher:  netfetch.New(netfetch.WithLogger(logging.Discard())),
		Logger:   logging.Discard(),
	})
	return New(baseURL, "key", gate)
}

func newServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for path, body := range routes {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("api_key") != "key" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(body))
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSearch_KnownPlatformFiltersPairs(t *testing.T) {
	srv := newServer(t, map[string]string{"/v1/games": searchBody})

	cands, err := newClient(srv.URL).Search(context.Background(), "Sonic the Hedgehog", "", platform.Known("16"))
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.Equal(t, "180/16", cands[0].ID)
	assert.Equal(t, "Sonic the Hedgehog", cands[0].DisplayName)
	assert.Equal(t, "16", cands[0].Platform)
	assert.Equal(t, "181/16", cands[1].ID)
}

func TestSearch_UnknownPlatformListsEveryPair(t *testing.T) {
	srv := newServer(t, map[string]string{"/v1/games": searchBody})

	cands, err := newClient(srv.URL).Search(context.Background(), "Sonic the Hedgehog", "", platform.Unknown())
	require.NoError(t, err)
	require.Len(t, cands, 3)
	assert.Equal(t, "Sonic the Hedgehog (SEGA Master System)", cands[1].DisplayName)
	assert.Equal(t, "180/26", cands[1].ID)
}

func TestFetchMetadata(t *testing.T) {
	srv := newServer(t, map[string]string{
		"/v1/games/180":              gameBody,
		"/v1/games/180/platforms/16": platformBody,
	})

	md, err := newClient(srv.URL).FetchMetadata(context.Background(), "180/16")
	require.NoError(t, err)
	assert.Equal(t, scraper.GameMetadata{
		Title:     "Sonic the Hedgehog",
		Year:      "1991",
		Genre:     "Action",
		Developer: "Sonic Team",
		Players:   "1 Player",
		Rating:    "Everyone",
		Plot:      "Dr. Robotnik has kidnapped the animals.",
	}, md)
}

func TestFetchMetadata_BadID(t *testing.T) {
	_, err := newClient("http://127.0.0.1:1").FetchMetadata(context.Background(), "180")
	assert.Error(t, err)
}

func TestFetchMetadata_MissingGameIsNotFound(t *testing.T) {
	srv := newServer(t, map[string]string{})
	_, err := newClient(srv.URL).FetchMetadata(context.Background(), "1/2")
	assert.ErrorIs(t, err, scraper.ErrNotFound)
}

func TestFetchAssetIndex(t *testing.T) {
	srv := newServer(t, map[string]string{
		"/v1/games/180/platforms/16/covers":      coversBody,
		"/v1/games/180/platforms/16/screenshots": screenshotsBody,
	})

	recs, err := newClient(srv.URL).FetchAssetIndex(context.Background(), "180/16")
	require.NoError(t, err)

	var kinds []scraper.AssetKind
	for _, r := range recs {
		kinds = append(kinds, r.Kind)
	}
	assert.Equal(t, []scraper.AssetKind{
		scraper.AssetBoxFront, scraper.AssetBoxBack, scraper.AssetCartridge,
		scraper.AssetTitle, scraper.AssetSnap,
	}, kinds)
	assert.Equal(t, "Front Cover United States", recs[0].DisplayName)
	assert.Equal(t, "https://cdn.mobygames.com/shots/1.png", recs[3].URL)
}

func TestSearch_UnknownPlatformExactTitleRanksFirst(t *testing.T) {
	games := []string{`{"game_id":2,"title":"Sonic the Hedgehog 2","platforms":[{"platform_id":16,"platform_name":"Genesis"}]}`}
	for i := 0; i < 59; i++ {
		games = append(games, fmt.Sprintf(`{"game_id":%d,"title":"Sonic Compilation %d","platforms":[{"platform_id":16,"platform_name":"Genesis"}]}`, 100+i, i))
	}
	games = append(games, `{"game_id":1,"title":"Sonic the Hedgehog","platforms":[{"platform_id":16,"platform_name":"Genesis"}]}`)
	srv := newServer(t, map[string]string{"/v1/games": `{"games":[` + strings.Join(games, ",") + `]}`})

	cands, err := newClient(srv.URL).Search(context.Background(), "Sonic the Hedgehog", "", platform.Unknown())
	require.NoError(t, err)
	require.Len(t, cands, 61)

	ranked := scraper.Rank(cands, "Sonic the Hedgehog", platform.Unknown())
	assert.Equal(t, "1/16", ranked[0].ID)
	assert.Equal(t, "Sonic the Hedgehog (Genesis)", ranked[0].DisplayName)
	assert.Equal(t, "2/16", ranked[1].ID)
}
