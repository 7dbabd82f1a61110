package sourceutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanm101/romscraper/internal/logging"
	"github.com/ryanm101/romscraper/internal/netfetch"
	"github.com/ryanm101/romscraper/internal/respcache"
)

func newGate(t *testing.T, rps float64, cache respcache.Store) *Gate {
	t.Helper()
	return NewGate(Options{
		Provider:          "test",
		RequestsPerSecond: rps,
		Fetcher:           netfetch.New(netfetch.WithLogger(logging.Discard())),
		Cache:             cache,
		Logger:            logging.Discard(),
	})
}

func TestGate_CachesSuccessfulResponses(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(`{"name":"Sonic"}`))
	}))
	defer srv.Close()

	g := newGate(t, 0, nil)
	var out struct{ Name string }
	for i := 0; i < 3; i++ {
		found, err := g.GetJSON(context.Background(), "sonic", srv.URL, nil, &out)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "Sonic", out.Name)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestGate_NotFoundIsEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	g := newGate(t, 0, nil)
	body, found, err := g.Get(context.Background(), "k", srv.URL, nil)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, body)
}

func TestGate_MalformedIsEmptyAndNotCached(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(`<html>oops`))
	}))
	defer srv.Close()

	cache := respcache.NewMemory(0)
	g := newGate(t, 0, cache)
	var out map[string]any
	found, err := g.GetJSON(context.Background(), "k", srv.URL, nil, &out)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 0, cache.Len())

	_, _ = g.GetJSON(context.Background(), "k", srv.URL, nil, &out)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestGate_ServerErrorIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	g := newGate(t, 0, nil)
	_, found, err := g.Get(context.Background(), "k", srv.URL, nil)
	assert.False(t, found)
	var netErr *netfetch.Error
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, http.StatusBadGateway, netErr.Status)
}

func TestGate_RateLimitSpacesRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`ok`))
	}))
	defer srv.Close()

	g := newGate(t, 10, nil)
	start := time.Now()
	for i := 0; i < 3; i++ {
		_, _, err := g.Get(context.Background(), "", srv.URL, nil)
		require.NoError(t, err)
	}
	// burst of one, then 100ms per request
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestGate_WaitHonoursCancellation(t *testing.T) {
	g := newGate(t, 0.001, nil)
	require.NoError(t, g.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, g.Wait(ctx))
}

func TestGate_Remember(t *testing.T) {
	g := newGate(t, 0, nil)
	calls := 0
	fetch := func() ([]byte, error) {
		calls++
		return []byte("v"), nil
	}

	for i := 0; i < 2; i++ {
		v, err := g.Remember(context.Background(), "key", fetch)
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), v)
	}
	assert.Equal(t, 1, calls)

	v, err := g.Remember(context.Background(), "none", func() ([]byte, error) { return nil, nil })
	require.NoError(t, err)
	assert.Nil(t, v)
}
