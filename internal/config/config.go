package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ryanm101/romscraper/internal/logging"
	"github.com/ryanm101/romscraper/internal/tracing"
)

// Config holds application configuration.
type Config struct {
	DBPath        string                    `yaml:"db_path"`
	PlatformsFile string                    `yaml:"platforms_file,omitempty"`
	Logging       logging.Config            `yaml:"logging"`
	Tracing       tracing.Config            `yaml:"tracing"`
	Server        ServerConfig              `yaml:"server"`
	Scraper       ScraperConfig             `yaml:"scraper"`
	Assets        map[string]string         `yaml:"assets"`
	Providers     map[string]ProviderConfig `yaml:"providers"`
	Cache         CacheConfig               `yaml:"cache"`
}

// ServerConfig configures the HTTP status surface.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// ScraperConfig selects chain composition and batch behaviour.
type ScraperConfig struct {
	MetadataPolicy  string        `yaml:"metadata_policy"` // clean_title_only, nfo_only, nfo_then_source, source_only
	AssetPolicy     string        `yaml:"asset_policy"`    // local_only, local_then_source, source_only
	MetadataSource  string        `yaml:"metadata_source"`
	AssetSource     string        `yaml:"asset_source"`
	Mode            string        `yaml:"mode"` // automatic, interactive
	CleanTags       bool          `yaml:"clean_tags"`
	Naming          string        `yaml:"naming"` // dir, suffix
	Workers         int           `yaml:"workers"`
	DownloadTimeout time.Duration `yaml:"download_timeout"`
	AssetKinds      []string      `yaml:"asset_kinds"`
}

// ProviderConfig holds credentials and request budget for one provider.
type ProviderConfig struct {
	APIKey            string  `yaml:"api_key,omitempty"`
	ClientID          string  `yaml:"client_id,omitempty"`
	ClientSecret      string  `yaml:"client_secret,omitempty"`
	BaseURL           string  `yaml:"base_url,omitempty"`
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"`
}

// CacheConfig selects the response cache backend shared by provider clients.
type CacheConfig struct {
	Backend  string        `yaml:"backend"` // memory, redis
	RedisURL string        `yaml:"redis_url,omitempty"`
	TTL      time.Duration `yaml:"ttl"`
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		DBPath:  "romscraper.db",
		Logging: logging.DefaultConfig(),
		Tracing: tracing.DefaultConfig(),
		Server:  ServerConfig{Addr: ":8080"},
		Scraper: ScraperConfig{
			MetadataPolicy:  "source_only",
			AssetPolicy:     "local_then_source",
			MetadataSource:  "thegamesdb",
			AssetSource:     "thegamesdb",
			Mode:            "automatic",
			CleanTags:       true,
			Naming:          "dir",
			Workers:         4,
			DownloadTimeout: 120 * time.Second,
		},
		Assets:    map[string]string{},
		Providers: map[string]ProviderConfig{},
		Cache: CacheConfig{
			Backend: "memory",
			TTL:     24 * time.Hour,
		},
	}
}

// configPaths returns the list of paths to search for config file.
func configPaths() []string {
	paths := []string{
		".romscraper.yaml",
		".romscraper.yml",
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "romscraper", "config.yaml"),
			filepath.Join(home, ".config", "romscraper", "config.yml"),
			filepath.Join(home, ".romscraper.yaml"),
		)
	}

	return paths
}

// Load loads configuration from file or returns defaults.
// Priority: env ROMSCRAPER_CONFIG > search paths > defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if envPath := os.Getenv("ROMSCRAPER_CONFIG"); envPath != "" {
		if err := cfg.loadFromFile(envPath); err != nil {
			return nil, err
		}
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	for _, path := range configPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := cfg.loadFromFile(path); err != nil {
				return nil, err
			}
			break
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// LoadFile loads configuration from an explicit path on top of the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.loadFromFile(path); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // user supplied config path
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return err
	}
	if c.Assets == nil {
		c.Assets = map[string]string{}
	}
	if c.Providers == nil {
		c.Providers = map[string]ProviderConfig{}
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if dbPath := os.Getenv("ROMSCRAPER_DB"); dbPath != "" {
		c.DBPath = dbPath
	}
	if redisURL := os.Getenv("ROMSCRAPER_REDIS_URL"); redisURL != "" {
		c.Cache.RedisURL = redisURL
	}
	c.overrideProvider("thegamesdb", func(p *ProviderConfig) {
		if v := os.Getenv("TGDB_API_KEY"); v != "" {
			p.APIKey = v
		}
	})
	c.overrideProvider("mobygames", func(p *ProviderConfig) {
		if v := os.Getenv("MOBYGAMES_API_KEY"); v != "" {
			p.APIKey = v
		}
	})
	c.overrideProvider("igdb", func(p *ProviderConfig) {
		if v := os.Getenv("IGDB_CLIENT_ID"); v != "" {
			p.ClientID = v
		}
		if v := os.Getenv("IGDB_CLIENT_SECRET"); v != "" {
			p.ClientSecret = v
		}
	})
}

func (c *Config) overrideProvider(name string, apply func(*ProviderConfig)) {
	if c.Providers == nil {
		c.Providers = map[string]ProviderConfig{}
	}
	p := c.Providers[name]
	apply(&p)
	if p != (ProviderConfig{}) {
		c.Providers[name] = p
	}
}

// GetDBPath returns the database path, applying defaults.
func (c *Config) GetDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return "romscraper.db"
}

// Provider returns the settings for the named provider.
func (c *Config) Provider(name string) ProviderConfig {
	return c.Providers[strings.ToLower(name)]
}

// Masked returns a copy with credentials replaced, for display.
func (c *Config) Masked() *Config {
	out := *c
	out.Providers = make(map[string]ProviderConfig, len(c.Providers))
	for name, p := range c.Providers {
		p.APIKey = mask(p.APIKey)
		p.ClientSecret = mask(p.ClientSecret)
		out.Providers[name] = p
	}
	if out.Cache.RedisURL != "" {
		out.Cache.RedisURL = "redis://***"
	}
	return &out
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Example returns an annotated starting configuration.
func Example() *Config {
	cfg := DefaultConfig()
	cfg.Assets = map[string]string{
		"title":    "~/roms/media/titles",
		"snap":     "~/roms/media/snaps",
		"boxfront": "~/roms/media/boxfront",
	}
	cfg.Scraper.AssetKinds = []string{"title", "snap", "boxfront"}
	cfg.Providers = map[string]ProviderConfig{
		"thegamesdb": {APIKey: "", RequestsPerSecond: 2},
		"mobygames":  {APIKey: "", RequestsPerSecond: 1},
		"gamefaqs":   {RequestsPerSecond: 1},
		"igdb":       {ClientID: "", ClientSecret: "", RequestsPerSecond: 4},
	}
	return cfg
}
