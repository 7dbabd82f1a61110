package igdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanm101/romscraper/internal/logging"
	"github.com/ryanm101/romscraper/internal/netfetch"
	"github.com/ryanm101/romscraper/internal/platform"
	"github.com/ryanm101/romscraper/internal/scraper"
	"github.com/ryanm101/romscraper/internal/sources/sourceutil"
)

type fakeCatalog struct {
	games      map[int]gameRow
	searches   int
	lastFilter string
	searchErr  error
	companies  map[int]string
	calls      []time.Time
}

func (f *fakeCatalog) called() { f.calls = append(f.calls, time.Now()) }

func (f *fakeCatalog) searchGames(term, platformID string, _ int) ([]gameRow, error) {
	f.called()
	f.searches++
	f.lastFilter = platformID
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	var out []gameRow
	for _, id := range []int{1, 2} {
		if g, ok := f.games[id]; ok {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeCatalog) game(id int) (*gameRow, error) {
	f.called()
	g, ok := f.games[id]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (f *fakeCatalog) coverImageID(int) (string, error) { return "co1abc", nil }

func (f *fakeCatalog) screenshotImageIDs(ids []int) ([]string, error) {
	return []string{"sc1", "sc2"}[:len(ids)], nil
}

func (f *fakeCatalog) artworkImageIDs([]int) ([]string, error) { return []string{"ar1"}, nil }

func (f *fakeCatalog) genreNames([]int) ([]string, error) {
	f.called()
	return []string{"Platform", "Adventure"}, nil
}

// developerCompanies credits a publisher first so resolution has to skip
// the company with no name.
func (f *fakeCatalog) developerCompanies([]int) ([]int, error) {
	f.called()
	return []int{400, 500}, nil
}

func (f *fakeCatalog) companyName(id int) (string, error) {
	f.called()
	return f.companies[id], nil
}

func newGate() *sourceutil.Gate {
	return sourceutil.NewGate(sourceutil.Options{
		Provider: ID,
		Fetcher:  netfetch.New(netfetch.WithLogger(logging.Discard())),
		Logger:   logging.Discard(),
	})
}

func marioCatalog() *fakeCatalog {
	release := time.Date(1990, 11, 21, 0, 0, 0, 0, time.UTC).Unix()
	return &fakeCatalog{games: map[int]gameRow{
		1: {ID: 1, Name: "Super Mario World", Summary: "Dinosaur Land.", ReleaseUnix: release, Rating: 91.25,
			Cover: 77, Screenshots: []int{5, 6}, Artworks: []int{9}, Genres: []int{8, 31}, Involved: []int{100}, Platforms: []int{19}},
		2: {ID: 2, Name: "Super Mario World 2: Yoshi's Island", Platforms: []int{19}},
	}, companies: map[int]string{500: "Nintendo EAD"}}
}

func TestSearch(t *testing.T) {
	cat := marioCatalog()
	c := newWithCatalog(newGate(), cat)

	cands, err := c.Search(context.Background(), "Super Mario World", "", platform.Known("19"))
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.Equal(t, "19", cat.lastFilter)
	assert.Equal(t, "1", cands[0].ID)
	assert.Equal(t, "19", cands[0].Platform)
	assert.Greater(t, cands[0].RankScore, cands[1].RankScore)

	_, err = c.Search(context.Background(), "super mario world", "", platform.Known("19"))
	require.NoError(t, err)
	assert.Equal(t, 1, cat.searches, "second search is served from the response cache")
}

func TestSearch_UnknownPlatformDropsFilter(t *testing.T) {
	cat := marioCatalog()
	cands, err := newWithCatalog(newGate(), cat).Search(context.Background(), "Super Mario World", "", platform.Unknown())
	require.NoError(t, err)
	assert.Empty(t, cat.lastFilter)
	assert.Empty(t, cands[0].Platform)
}

func TestSearch_Error(t *testing.T) {
	cat := &fakeCatalog{searchErr: errors.New("502")}
	_, err := newWithCatalog(newGate(), cat).Search(context.Background(), "x", "", platform.Unknown())
	assert.Error(t, err)
}

func TestFetchMetadata(t *testing.T) {
	md, err := newWithCatalog(newGate(), marioCatalog()).FetchMetadata(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, scraper.GameMetadata{
		Title:     "Super Mario World",
		Year:      "1990",
		Genre:     "Platform / Adventure",
		Developer: "Nintendo EAD",
		Rating:    "9.1",
		Plot:      "Dinosaur Land.",
	}, md)
}

func TestFetchMetadata_NotFoundAndBadID(t *testing.T) {
	c := newWithCatalog(newGate(), marioCatalog())
	_, err := c.FetchMetadata(context.Background(), "404")
	assert.ErrorIs(t, err, scraper.ErrNotFound)

	_, err = c.FetchMetadata(context.Background(), "abc")
	assert.Error(t, err)
}

func TestFetchAssetIndex(t *testing.T) {
	recs, err := newWithCatalog(newGate(), marioCatalog()).FetchAssetIndex(context.Background(), "1")
	require.NoError(t, err)
	require.Len(t, recs, 4)

	assert.Equal(t, scraper.AssetBoxFront, recs[0].Kind)
	assert.Equal(t, "https://images.igdb.com/igdb/image/upload/t_cover_big/co1abc.jpg", recs[0].URL)
	assert.Equal(t, scraper.AssetSnap, recs[1].Kind)
	assert.Equal(t, scraper.AssetSnap, recs[2].Kind)
	assert.Equal(t, scraper.AssetFanart, recs[3].Kind)
	assert.Equal(t, "https://images.igdb.com/igdb/image/upload/t_1080p/ar1.jpg", recs[3].URL)
}

func TestFetchToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("client_id") != "id" || r.PostForm.Get("client_secret") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		_, _ = w.Write([]byte(`{"access_token":"tok","expires_in":5000}`))
	}))
	defer srv.Close()

	c := New("id", "secret", newGate(), nil)
	c.tokenURL = srv.URL
	token, err := c.fetchToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok", token)

	bad := New("id", "wrong", newGate(), nil)
	bad.tokenURL = srv.URL
	_, err = bad.Search(context.Background(), "x", "", platform.Unknown())
	assert.ErrorContains(t, err, "authenticate")
}

func TestNew_DoesNoNetwork(t *testing.T) {
	c := New("id", "secret", newGate(), nil)
	assert.Equal(t, ID, c.ID())
	assert.Nil(t, c.catalog)
}

func TestFetchMetadata_EveryCatalogCallWaitsForTheBudget(t *testing.T) {
	gate := sourceutil.NewGate(sourceutil.Options{
		Provider:          ID,
		RequestsPerSecond: 20,
		Fetcher:           netfetch.New(netfetch.WithLogger(logging.Discard())),
		Logger:            logging.Discard(),
	})
	cat := marioCatalog()

	md, err := newWithCatalog(gate, cat).FetchMetadata(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "Nintendo EAD", md.Developer)

	// game, genres, developer companies, then two company lookups
	require.Len(t, cat.calls, 5)
	for i := 1; i < len(cat.calls); i++ {
		assert.GreaterOrEqual(t, cat.calls[i].Sub(cat.calls[i-1]), 40*time.Millisecond, "call %d", i)
	}
}

func TestFetchMetadata_DeveloperLookupsAreCached(t *testing.T) {
	cat := marioCatalog()
	c := newWithCatalog(newGate(), cat)

	_, err := c.FetchMetadata(context.Background(), "1")
	require.NoError(t, err)
	first := len(cat.calls)

	md, err := c.FetchMetadata(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "Nintendo EAD", md.Developer)
	// the nameless company is not cached, so only its lookup repeats
	assert.Equal(t, first+1, len(cat.calls))
}

func TestSearch_StalledServerTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token" {
			_, _ = w.Write([]byte(`{"access_token":"tok","expires_in":5000}`))
			return
		}
		<-r.Context().Done()
	}))
	defer srv.Close()
	target, err := url.Parse(srv.URL)
	require.NoError(t, err)

	gate := sourceutil.NewGate(sourceutil.Options{
		Provider: ID,
		Fetcher:  netfetch.New(netfetch.WithLogger(logging.Discard())),
		Timeout:  200 * time.Millisecond,
		Logger:   logging.Discard(),
	})
	c := New("id", "secret", gate, &http.Client{Transport: redirectTransport{target: target}})
	c.tokenURL = srv.URL + "/token"

	start := time.Now()
	_, err = c.Search(context.Background(), "Super Mario World", "", platform.Unknown())
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestBoundedClient(t *testing.T) {
	assert.Equal(t, time.Second, boundedClient(nil, time.Second).Timeout)
	assert.Equal(t, time.Second, boundedClient(&http.Client{Timeout: time.Minute}, time.Second).Timeout)
	assert.Equal(t, time.Millisecond, boundedClient(&http.Client{Timeout: time.Millisecond}, time.Second).Timeout)
}

// redirectTransport sends every request to target, whatever host the SDK
// addressed.
type redirectTransport struct {
	target *url.URL
}

func (r redirectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = r.target.Scheme
	req.URL.Host = r.target.Host
	req.Host = r.target.Host
	return http.DefaultTransport.RoundTrip(req)
}
