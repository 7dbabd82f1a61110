// Package sourceutil holds the request plumbing shared by provider clients:
// a provider-wide rate limit, the response cache and uniform handling of
// not-found and malformed payloads.
package sourceutil

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/ryanm101/romscraper/internal/logging"
	"github.com/ryanm101/romscraper/internal/metrics"
	"github.com/ryanm101/romscraper/internal/netfetch"
	"github.com/ryanm101/romscraper/internal/respcache"
)

// DefaultRequestTimeout bounds API and page requests.
const DefaultRequestTimeout = 30 * time.Second

// Options configures a Gate.
type Options struct {
	Provider          string
	RequestsPerSecond float64
	Fetcher           netfetch.Fetcher
	Cache             respcache.Store
	Timeout           time.Duration
	Logger            *slog.Logger
}

// Gate serializes one provider's requests through a token bucket and caches
// successful payloads. A Gate is safe for concurrent use and is meant to be
// shared by every worker talking to the same provider.
type Gate struct {
	provider string
	limiter  *rate.Limiter
	fetcher  netfetch.Fetcher
	cache    respcache.Store
	timeout  time.Duration
	logger   *slog.Logger
}

// NewGate builds a gate. A non-positive rate disables limiting; a nil cache
// uses a private in-memory store.
func NewGate(opts Options) *Gate {
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	cache := opts.Cache
	if cache == nil {
		cache = respcache.NewMemory(0)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Gate{
		provider: opts.Provider,
		limiter:  rate.NewLimiter(limit, 1),
		fetcher:  opts.Fetcher,
		cache:    respcache.WithNamespace(cache, opts.Provider),
		timeout:  timeout,
		logger:   logging.OrDefault(opts.Logger).With("provider", opts.Provider),
	}
}

// Provider returns the provider id the gate was built for.
func (g *Gate) Provider() string { return g.provider }

// Logger returns the provider-scoped logger.
func (g *Gate) Logger() *slog.Logger { return g.logger }

// Timeout returns the per-request deadline.
func (g *Gate) Timeout() time.Duration { return g.timeout }

// Fetcher returns the underlying network collaborator.
func (g *Gate) Fetcher() netfetch.Fetcher { return g.fetcher }

// Wait blocks until the provider's budget allows another request.
func (g *Gate) Wait(ctx context.Context) error {
	return g.limiter.Wait(ctx)
}

// Get returns the body at url, from the cache when key was seen before.
// found is false for a 404. Other non-2xx statuses are errors.
func (g *Gate) Get(ctx context.Context, key, url string, headers map[string]string) (body []byte, found bool, err error) {
	body, found, cached, err := g.get(ctx, key, url, headers)
	if found && !cached {
		g.Store(ctx, key, body)
	}
	return body, found, err
}

// GetJSON fetches url and decodes it into out. found is false when the
// provider answered 404 or the payload could not be decoded; the latter is
// logged as a malformed response and never cached.
func (g *Gate) GetJSON(ctx context.Context, key, url string, headers map[string]string, out any) (found bool, err error) {
	body, found, cached, err := g.get(ctx, key, url, headers)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(body, out); err != nil {
		g.Malformed(ctx, key, err)
		return false, nil
	}
	if !cached {
		g.Store(ctx, key, body)
	}
	return true, nil
}

func (g *Gate) get(ctx context.Context, key, url string, headers map[string]string) (body []byte, found, cached bool, err error) {
	if key != "" {
		if hit, ok, err := g.cache.Get(ctx, key); err != nil {
			g.logger.Warn("response cache read failed", "error", err)
		} else if ok {
			metrics.ProviderRequests.WithLabelValues(g.provider, "cached").Inc()
			return hit, true, true, nil
		}
	}

	if err := g.Wait(ctx); err != nil {
		return nil, false, false, err
	}

	resp, err := g.fetcher.Get(ctx, url, headers, g.timeout)
	if err != nil {
		metrics.ProviderRequests.WithLabelValues(g.provider, "error").Inc()
		return nil, false, false, fmt.Errorf("%s request: %w", g.provider, err)
	}
	switch {
	case resp.Status == http.StatusNotFound:
		metrics.ProviderRequests.WithLabelValues(g.provider, "not_found").Inc()
		return nil, false, false, nil
	case !resp.OK():
		metrics.ProviderRequests.WithLabelValues(g.provider, "error").Inc()
		return nil, false, false, &netfetch.Error{Op: "get", URL: url, Status: resp.Status}
	}

	metrics.ProviderRequests.WithLabelValues(g.provider, "ok").Inc()
	return resp.Body, true, false, nil
}

// Remember returns the cached value for key or calls fetch after waiting for
// the rate limit and caches its result. fetch returning nil data means "no
// result" and is not cached.
func (g *Gate) Remember(ctx context.Context, key string, fetch func() ([]byte, error)) ([]byte, error) {
	if cached, ok, err := g.cache.Get(ctx, key); err == nil && ok {
		metrics.ProviderRequests.WithLabelValues(g.provider, "cached").Inc()
		return cached, nil
	}
	if err := g.Wait(ctx); err != nil {
		return nil, err
	}
	data, err := fetch()
	if err != nil {
		metrics.ProviderRequests.WithLabelValues(g.provider, "error").Inc()
		return nil, err
	}
	if data == nil {
		metrics.ProviderRequests.WithLabelValues(g.provider, "not_found").Inc()
		return nil, nil
	}
	metrics.ProviderRequests.WithLabelValues(g.provider, "ok").Inc()
	g.Store(ctx, key, data)
	return data, nil
}

// Store writes a payload to the response cache. Failures only log.
func (g *Gate) Store(ctx context.Context, key string, body []byte) {
	if key == "" {
		return
	}
	if err := g.cache.Set(ctx, key, body); err != nil {
		g.logger.Warn("response cache write failed", "error", err)
	}
}

// Malformed records an undecodable payload.
func (g *Gate) Malformed(_ context.Context, key string, err error) {
	metrics.ProviderRequests.WithLabelValues(g.provider, "malformed").Inc()
	g.logger.Warn("malformed provider response", "key", key, "error", err)
}
