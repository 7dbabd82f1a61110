// Package sources wires provider clients into the scraper from
// configuration.
package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/ryanm101/romscraper/internal/config"
	"github.com/ryanm101/romscraper/internal/logging"
	"github.com/ryanm101/romscraper/internal/netfetch"
	"github.com/ryanm101/romscraper/internal/respcache"
	"github.com/ryanm101/romscraper/internal/scraper"
	"github.com/ryanm101/romscraper/internal/sources/gamefaqs"
	"github.com/ryanm101/romscraper/internal/sources/igdb"
	"github.com/ryanm101/romscraper/internal/sources/mobygames"
	"github.com/ryanm101/romscraper/internal/sources/sourceutil"
	"github.com/ryanm101/romscraper/internal/sources/thegamesdb"
)

// Deps are the shared collaborators every provider client is built on.
type Deps struct {
	Fetcher    netfetch.Fetcher
	HTTPClient *http.Client
	Cache      respcache.Store
	Logger     *slog.Logger
}

type spec struct {
	id         string
	defaultRPS float64
	required   func(config.ProviderConfig) []string
	build      func(config.ProviderConfig, *sourceutil.Gate, Deps) scraper.SourceClient
}

var specs = []spec{
	{
		id:         thegamesdb.ID,
		defaultRPS: thegamesdb.DefaultRequestsPerSecond,
		required:   needAPIKey,
		build: func(p config.ProviderConfig, g *sourceutil.Gate, _ Deps) scraper.SourceClient {
			return thegamesdb.New(p.BaseURL, p.APIKey, g)
		},
	},
	{
		id:         mobygames.ID,
		defaultRPS: mobygames.DefaultRequestsPerSecond,
		required:   needAPIKey,
		build: func(p config.ProviderConfig, g *sourceutil.Gate, _ Deps) scraper.SourceClient {
			return mobygames.New(p.BaseURL, p.APIKey, g)
		},
	},
	{
		id:         gamefaqs.ID,
		defaultRPS: gamefaqs.DefaultRequestsPerSecond,
		required:   func(config.ProviderConfig) []string { return nil },
		build: func(p config.ProviderConfig, g *sourceutil.Gate, _ Deps) scraper.SourceClient {
			return gamefaqs.New(p.BaseURL, g)
		},
	},
	{
		id:         igdb.ID,
		defaultRPS: igdb.DefaultRequestsPerSecond,
		required: func(p config.ProviderConfig) []string {
			var missing []string
			if p.ClientID == "" {
				missing = append(missing, "client_id")
			}
			if p.ClientSecret == "" {
				missing = append(missing, "client_secret")
			}
			return missing
		},
		build: func(p config.ProviderConfig, g *sourceutil.Gate, d Deps) scraper.SourceClient {
			return igdb.New(p.ClientID, p.ClientSecret, g, d.HTTPClient)
		},
	},
}

func needAPIKey(p config.ProviderConfig) []string {
	if strings.TrimSpace(p.APIKey) == "" {
		return []string{"api_key"}
	}
	return nil
}

// IDs lists the known provider ids in sorted order.
func IDs() []string {
	ids := make([]string, 0, len(specs))
	for _, s := range specs {
		ids = append(ids, s.id)
	}
	sort.Strings(ids)
	return ids
}

// provider builds its client once so that every chain using the same
// provider shares one rate limit.
type provider struct {
	spec spec
	cfg  config.ProviderConfig
	deps Deps

	once   sync.Once
	client scraper.SourceClient
}

func (p *provider) ID() string { return p.spec.id }

func (p *provider) MissingCredentials() []string { return p.spec.required(p.cfg) }

func (p *provider) Client() (scraper.SourceClient, error) {
	p.once.Do(func() {
		rps := p.cfg.RequestsPerSecond
		if rps <= 0 {
			rps = p.spec.defaultRPS
		}
		gate := sourceutil.NewGate(sourceutil.Options{
			Provider:          p.spec.id,
			RequestsPerSecond: rps,
			Fetcher:           p.deps.Fetcher,
			Cache:             p.deps.Cache,
			Logger:            p.deps.Logger,
		})
		p.client = p.spec.build(p.cfg, gate, p.deps)
	})
	return p.client, nil
}

// Providers returns a scraper.Provider for every known source, configured
// from providers. Nothing is contacted until a chain scrapes.
func Providers(providers map[string]config.ProviderConfig, deps Deps) []scraper.Provider {
	if deps.Fetcher == nil {
		deps.Fetcher = netfetch.New(netfetch.WithLogger(deps.Logger))
	}
	deps.Logger = logging.OrDefault(deps.Logger)

	out := make([]scraper.Provider, 0, len(specs))
	for _, s := range specs {
		out = append(out, &provider{spec: s, cfg: providers[s.id], deps: deps})
	}
	return out
}

// NewCache builds the response cache backend named in cfg. The returned
// close function is never nil.
func NewCache(ctx context.Context, cfg config.CacheConfig) (respcache.Store, func() error, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "memory":
		return respcache.NewMemory(0), func() error { return nil }, nil
	case "redis":
		r, err := respcache.NewRedis(ctx, cfg.RedisURL, cfg.TTL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect response cache: %w", err)
		}
		return r, r.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
