package scraper

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ryanm101/romscraper/internal/logging"
)

// MetadataPolicy selects the metadata chain shape.
type MetadataPolicy int

const (
	MetadataCleanTitleOnly MetadataPolicy = iota
	MetadataNFOOnly
	MetadataNFOThenSource
	MetadataSourceOnly
)

var metadataPolicyNames = map[MetadataPolicy]string{
	MetadataCleanTitleOnly: "clean_title_only",
	MetadataNFOOnly:        "nfo_only",
	MetadataNFOThenSource:  "nfo_then_source",
	MetadataSourceOnly:     "source_only",
}

func (p MetadataPolicy) String() string { return metadataPolicyNames[p] }

func (p MetadataPolicy) usesSource() bool {
	return p == MetadataNFOThenSource || p == MetadataSourceOnly
}

// ParseMetadataPolicy accepts the names used in configuration.
func ParseMetadataPolicy(s string) (MetadataPolicy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for p, name := range metadataPolicyNames {
		if name == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown metadata policy %q", s)
}

// AssetPolicy selects the asset chain shape.
type AssetPolicy int

const (
	AssetLocalOnly AssetPolicy = iota
	AssetLocalThenSource
	AssetSourceOnly
)

var assetPolicyNames = map[AssetPolicy]string{
	AssetLocalOnly:       "local_only",
	AssetLocalThenSource: "local_then_source",
	AssetSourceOnly:      "source_only",
}

func (p AssetPolicy) String() string { return assetPolicyNames[p] }

func (p AssetPolicy) usesSource() bool {
	return p == AssetLocalThenSource || p == AssetSourceOnly
}

// ParseAssetPolicy accepts the names used in configuration.
func ParseAssetPolicy(s string) (AssetPolicy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for p, name := range assetPolicyNames {
		if name == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown asset policy %q", s)
}

// Mode is automatic or interactive disambiguation.
type Mode int

const (
	ModeAutomatic Mode = iota
	ModeInteractive
)

func (m Mode) String() string {
	if m == ModeInteractive {
		return "interactive"
	}
	return "automatic"
}

// ParseMode accepts "automatic" and "interactive".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "automatic", "auto":
		return ModeAutomatic, nil
	case "interactive":
		return ModeInteractive, nil
	}
	return ModeAutomatic, fmt.Errorf("unknown mode %q", s)
}

// Settings is everything the builder needs to shape the chains.
type Settings struct {
	MetadataPolicy  MetadataPolicy
	AssetPolicy     AssetPolicy
	MetadataSource  string
	AssetSource     string
	Mode            Mode
	CleanTags       bool
	Naming          NamingScheme
	AssetDirs       AssetDirs
	AssetKinds      []AssetKind
	DownloadTimeout time.Duration
	SkipMetadata    bool
}

// ChainBuilder validates Settings and wires providers into chains.
type ChainBuilder struct {
	providers  map[string]Provider
	resolver   PlatformResolver
	downloader Downloader
	selector   Selector
	logger     *slog.Logger
}

// NewChainBuilder registers providers by their lower-cased ID.
func NewChainBuilder(resolver PlatformResolver, downloader Downloader, selector Selector, logger *slog.Logger, providers ...Provider) *ChainBuilder {
	b := &ChainBuilder{
		providers:  make(map[string]Provider, len(providers)),
		resolver:   resolver,
		downloader: downloader,
		selector:   selector,
		logger:     logging.OrDefault(logger),
	}
	for _, p := range providers {
		b.providers[strings.ToLower(p.ID())] = p
	}
	return b
}

// Validate reports every configuration problem at once. It performs no I/O
// beyond inspecting the settings themselves.
func (b *ChainBuilder) Validate(s Settings) error {
	cfgErr := &ConfigError{}

	if !s.SkipMetadata && s.MetadataPolicy.usesSource() {
		b.checkProvider(cfgErr, "scraper.metadata_source", s.MetadataSource)
	}

	if len(s.AssetKinds) > 0 {
		if s.AssetPolicy.usesSource() {
			b.checkProvider(cfgErr, "scraper.asset_source", s.AssetSource)
		}
		for _, kind := range s.AssetKinds {
			if !kind.Valid() {
				cfgErr.add("scraper.asset_kinds", "unknown asset kind %d", int(kind))
				continue
			}
			if strings.TrimSpace(s.AssetDirs[kind]) == "" {
				cfgErr.add("assets."+kind.String(), "no directory configured")
			}
		}
		if s.Naming == NamingDir {
			checkDuplicateDirs(cfgErr, s)
		}
	}

	return cfgErr.orNil()
}

func (b *ChainBuilder) checkProvider(cfgErr *ConfigError, item, id string) {
	if strings.TrimSpace(id) == "" {
		cfgErr.add(item, "no source selected")
		return
	}
	p, ok := b.providers[strings.ToLower(id)]
	if !ok {
		cfgErr.add(item, "unknown source %q", id)
		return
	}
	for _, cred := range p.MissingCredentials() {
		cfgErr.add(fmt.Sprintf("providers.%s.%s", p.ID(), cred), "missing")
	}
}

// checkDuplicateDirs flags enabled kinds that share a directory under the
// DIR scheme, where they would overwrite each other's files.
func checkDuplicateDirs(cfgErr *ConfigError, s Settings) {
	byDir := make(map[string][]string)
	for _, kind := range s.AssetKinds {
		dir := strings.TrimSpace(s.AssetDirs[kind])
		if dir == "" {
			continue
		}
		key := filepath.Clean(dir)
		if abs, err := filepath.Abs(key); err == nil {
			key = abs
		}
		byDir[key] = append(byDir[key], kind.String())
	}

	dirs := make([]string, 0, len(byDir))
	for dir := range byDir {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	for _, dir := range dirs {
		kinds := byDir[dir]
		if len(kinds) < 2 {
			continue
		}
		items := make([]string, len(kinds))
		for i, k := range kinds {
			items[i] = "assets." + k
		}
		cfgErr.add(strings.Join(items, ", "), "share directory %s", dir)
	}
}

// Create validates s and instantiates the selected sources. No network
// traffic happens until a Session scrapes.
func (b *ChainBuilder) Create(s Settings) (*Chains, error) {
	if err := b.Validate(s); err != nil {
		return nil, err
	}
	if s.DownloadTimeout <= 0 {
		s.DownloadTimeout = DefaultDownloadTimeout
	}

	c := &Chains{settings: s, builder: b}
	var err error
	if !s.SkipMetadata && s.MetadataPolicy.usesSource() {
		if c.metadataSource, err = b.client(s.MetadataSource); err != nil {
			return nil, err
		}
	}
	if len(s.AssetKinds) > 0 && s.AssetPolicy.usesSource() {
		if c.assetSource, err = b.client(s.AssetSource); err != nil {
			return nil, err
		}
	}

	b.logger.Debug("scraper chains created",
		"metadata_policy", s.MetadataPolicy.String(),
		"asset_policy", s.AssetPolicy.String(),
		"mode", s.Mode.String(),
		"naming", s.Naming.String(),
		"asset_kinds", len(s.AssetKinds))
	return c, nil
}

func (b *ChainBuilder) client(id string) (SourceClient, error) {
	p := b.providers[strings.ToLower(id)]
	client, err := p.Client()
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", p.ID(), err)
	}
	return client, nil
}

// Chains holds the instantiated sources. Each Session gets its own
// CandidateCache while sharing the source clients.
type Chains struct {
	settings       Settings
	builder        *ChainBuilder
	metadataSource SourceClient
	assetSource    SourceClient
}

// Settings returns the validated settings.
func (c *Chains) Settings() Settings { return c.settings }

// NewSession builds fresh chains for one worker.
func (c *Chains) NewSession() *Session {
	s := c.settings
	b := c.builder
	cache := NewCandidateCache()
	interactive := s.Mode == ModeInteractive

	sess := &Session{kinds: s.AssetKinds, cache: cache, logger: b.logger}

	if !s.SkipMetadata {
		var nodes []MetadataSource
		switch s.MetadataPolicy {
		case MetadataNFOOnly:
			nodes = append(nodes, NFOScraper{})
		case MetadataNFOThenSource:
			nodes = append(nodes, NFOScraper{},
				NewOnlineMetadataScraper(c.metadataSource, b.resolver, cache, b.selector, interactive, b.logger))
		case MetadataSourceOnly:
			nodes = append(nodes,
				NewOnlineMetadataScraper(c.metadataSource, b.resolver, cache, b.selector, interactive, b.logger))
		}
		nodes = append(nodes, CleanTitleScraper{StripTags: s.CleanTags})
		sess.Metadata = NewMetadataChain(b.logger, s.CleanTags, nodes...)
	}

	if len(s.AssetKinds) > 0 {
		local := LocalAssetScraper{Dirs: s.AssetDirs, Naming: s.Naming}
		pipeline := &AssetPipeline{
			Downloader:  b.downloader,
			Selector:    b.selector,
			Interactive: interactive,
			Naming:      s.Naming,
			Dirs:        s.AssetDirs,
			Timeout:     s.DownloadTimeout,
			Logger:      b.logger,
		}
		var nodes []AssetSource
		switch s.AssetPolicy {
		case AssetLocalOnly:
			nodes = append(nodes, local)
		case AssetLocalThenSource:
			nodes = append(nodes, local,
				NewOnlineAssetScraper(c.assetSource, b.resolver, cache, pipeline, b.logger))
		case AssetSourceOnly:
			nodes = append(nodes,
				NewOnlineAssetScraper(c.assetSource, b.resolver, cache, pipeline, b.logger))
		}
		sess.Assets = NewAssetChain(b.logger, nodes...)
	}

	return sess
}
