package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/ryanm101/romscraper/internal/config"
	"github.com/ryanm101/romscraper/internal/logging"
	"github.com/ryanm101/romscraper/internal/netfetch"
	"github.com/ryanm101/romscraper/internal/platform"
	"github.com/ryanm101/romscraper/internal/romstore"
	"github.com/ryanm101/romscraper/internal/scraper"
	"github.com/ryanm101/romscraper/internal/sources"
	"github.com/ryanm101/romscraper/internal/ui"
)

type scrapeOptions struct {
	overrides   scrapeOverrides
	platform    string
	workers     int
	interactive bool
}

func newScrapeCommand(cc *commandContext) *cobra.Command {
	var opts scrapeOptions

	cmd := &cobra.Command{
		Use:   "scrape <path>...",
		Short: "Scrape metadata and artwork for ROM files or directories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.interactive {
				opts.overrides.Mode = scraper.ModeInteractive.String()
			}
			return runScrape(cmd.Context(), cc, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.platform, "platform", "p", "", "Platform for all given ROMs (default: detect from directory)")
	f.IntVarP(&opts.workers, "workers", "w", 0, "Concurrent ROMs (default: scraper.workers)")
	f.StringVar(&opts.overrides.MetadataPolicy, "metadata-policy", "", "clean_title_only, nfo_only, nfo_then_source or source_only")
	f.StringVar(&opts.overrides.AssetPolicy, "asset-policy", "", "local_only, local_then_source or source_only")
	f.StringVar(&opts.overrides.MetadataSource, "metadata-source", "", "Source for metadata ("+joinIDs()+")")
	f.StringVar(&opts.overrides.AssetSource, "asset-source", "", "Source for artwork ("+joinIDs()+")")
	f.StringVar(&opts.overrides.Mode, "mode", "", "automatic or interactive")
	f.BoolVarP(&opts.interactive, "interactive", "i", false, "Shorthand for --mode interactive")
	f.StringVar(&opts.overrides.Naming, "naming", "", "Asset file naming: dir or suffix")
	f.StringSliceVar(&opts.overrides.Kinds, "kinds", nil, "Asset kinds to resolve (default: scraper.asset_kinds)")
	f.BoolVar(&opts.overrides.SkipMetadata, "skip-metadata", false, "Only resolve assets")

	return cmd
}

func runScrape(ctx context.Context, cc *commandContext, opts scrapeOptions, paths []string) error {
	cfg, err := cc.ensureConfig()
	if err != nil {
		return err
	}
	resolver, err := cc.ensurePlatforms()
	if err != nil {
		return err
	}
	logger := logging.Get()

	settings, err := buildSettings(opts.overrides.apply(cfg.Scraper), cfg.Assets, opts.overrides.SkipMetadata)
	if err != nil {
		return err
	}

	var selector scraper.Selector = scraper.FirstOption{}
	if settings.Mode == scraper.ModeInteractive {
		if !isTerminal(os.Stdin) {
			logger.Warn("stdin is not a terminal, falling back to automatic mode")
			settings.Mode = scraper.ModeAutomatic
		} else {
			selector = ui.NewPrompt(os.Stdin, os.Stderr)
		}
	}

	cache, closeCache, err := sources.NewCache(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer func() { _ = closeCache() }()

	fetcher := netfetch.New(netfetch.WithLogger(logger), netfetch.WithUserAgent("romscraper/"+appVersion))
	providers := sources.Providers(cfg.Providers, sources.Deps{
		Fetcher:    fetcher,
		HTTPClient: fetcher.HTTPClient(),
		Cache:      cache,
		Logger:     logger,
	})

	builder := scraper.NewChainBuilder(resolver, fetcher, selector, logger, providers...)
	chains, err := builder.Create(settings)
	if err != nil {
		return err
	}

	platformName, err := resolvePlatformFlag(resolver, opts.platform)
	if err != nil {
		return err
	}
	skipDirs := make([]string, 0, len(settings.AssetDirs))
	for _, d := range settings.AssetDirs {
		skipDirs = append(skipDirs, d)
	}
	roms, err := collectRoms(paths, resolver, platformName, skipDirs)
	if err != nil {
		return err
	}
	if len(roms) == 0 {
		PrintInfo("No ROMs found.\n")
		return nil
	}

	store, unlock, err := openLockedStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer unlock()

	records := make([]*scraper.Record, 0, len(roms))
	for _, rom := range roms {
		rec, err := store.Ensure(ctx, rom.Path, rom.Platform)
		if err != nil {
			return err
		}
		records = append(records, rec)
	}

	workers := opts.workers
	if workers == 0 {
		workers = cfg.Scraper.Workers
	}

	PrintInfo("Scraping %d ROMs (%s)\n", len(records), describeSettings(settings))
	saveCtx := context.WithoutCancel(ctx)
	done := 0
	summary := scraper.NewRunner(chains, workers, logger).Run(ctx, records, func(res scraper.RomResult) {
		done++
		if err := store.Save(saveCtx, res.Record); err != nil {
			logger.Error("failed to save record", "path", res.Record.Path, "error", err)
		}
		PrintProgress("[%d/%d] %s %s\n", done, len(records), resultMark(res), filepath.Base(res.Record.Path))
	})

	if err := store.RefreshMetrics(saveCtx); err != nil {
		logger.Warn("failed to refresh store metrics", "error", err)
	}

	printSummary(summary)
	if summary.Cancelled > 0 {
		return fmt.Errorf("%w: %d of %d ROMs cancelled", errIncomplete, summary.Cancelled, summary.Total)
	}
	return nil
}

// openLockedStore opens the ROM store and holds an exclusive lock next to it
// so two scrapes never write the same database.
func openLockedStore(ctx context.Context, cfg *config.Config) (*romstore.Store, func(), error) {
	dbPath := cfg.GetDBPath()
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // data dir
			return nil, nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	lock := flock.New(dbPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, nil, fmt.Errorf("lock database: %w", err)
	}
	if !locked {
		return nil, nil, fmt.Errorf("database %s is in use by another scrape", dbPath)
	}

	store, err := romstore.Open(ctx, dbPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, nil, err
	}
	return store, func() {
		_ = store.Close()
		_ = lock.Unlock()
	}, nil
}

func resolvePlatformFlag(resolver *platform.Resolver, name string) (string, error) {
	if name == "" {
		return "", nil
	}
	if canonical, ok := resolver.Lookup(name); ok {
		return canonical, nil
	}
	// Accept directory aliases such as "snes".
	if detected := resolver.Detect(filepath.Join(name, "rom")); detected != "" {
		return detected, nil
	}
	return "", fmt.Errorf("unknown platform %q; see `romscraper platforms list`", name)
}

func resultMark(res scraper.RomResult) string {
	switch {
	case res.Cancelled:
		return "-"
	case res.Metadata != nil && !res.Metadata.Applied, len(res.FailedKinds()) > 0:
		return "!"
	default:
		return "✓"
	}
}

func printSummary(s *scraper.Summary) {
	if outputCfg.JSON {
		printJSON(summaryView(s))
		return
	}
	if outputCfg.Quiet {
		return
	}
	PrintTable(
		[]string{"Run", "ROMs", "Metadata", "Metadata failed", "Assets", "Assets failed", "Cancelled", "Duration"},
		[][]string{{
			s.RunID[:8],
			strconv.Itoa(s.Total),
			strconv.Itoa(s.MetadataApplied),
			strconv.Itoa(s.MetadataFailed),
			strconv.Itoa(s.AssetsApplied),
			strconv.Itoa(s.AssetsFailed),
			strconv.Itoa(s.Cancelled),
			s.Duration.Round(time.Millisecond).String(),
		}},
		alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight,
	)
}

type romSummary struct {
	Path           string            `json:"path"`
	Title          string            `json:"title,omitempty"`
	MetadataSource string            `json:"metadataSource,omitempty"`
	Assets         map[string]string `json:"assets,omitempty"`
	FailedKinds    []string          `json:"failedKinds,omitempty"`
	Cancelled      bool              `json:"cancelled,omitempty"`
}

type runSummary struct {
	RunID           string       `json:"runId"`
	Total           int          `json:"total"`
	MetadataApplied int          `json:"metadataApplied"`
	MetadataFailed  int          `json:"metadataFailed"`
	AssetsApplied   int          `json:"assetsApplied"`
	AssetsFailed    int          `json:"assetsFailed"`
	Cancelled       int          `json:"cancelled"`
	DurationMillis  int64        `json:"durationMs"`
	Roms            []romSummary `json:"roms"`
}

func summaryView(s *scraper.Summary) runSummary {
	out := runSummary{
		RunID:           s.RunID,
		Total:           s.Total,
		MetadataApplied: s.MetadataApplied,
		MetadataFailed:  s.MetadataFailed,
		AssetsApplied:   s.AssetsApplied,
		AssetsFailed:    s.AssetsFailed,
		Cancelled:       s.Cancelled,
		DurationMillis:  s.Duration.Milliseconds(),
	}
	for _, res := range s.Results {
		if res.Record == nil {
			continue
		}
		rs := romSummary{
			Path:           res.Record.Path,
			Title:          res.Record.Metadata.Title,
			MetadataSource: res.Record.MetadataSource,
			Cancelled:      res.Cancelled,
		}
		if len(res.Record.Assets) > 0 {
			rs.Assets = make(map[string]string, len(res.Record.Assets))
			for k, p := range res.Record.Assets {
				rs.Assets[k.String()] = p
			}
		}
		for _, k := range res.FailedKinds() {
			rs.FailedKinds = append(rs.FailedKinds, k.String())
		}
		out.Roms = append(out.Roms, rs)
	}
	return out
}
