package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ryanm101/romscraper/internal/config"
	"github.com/ryanm101/romscraper/internal/scraper"
)

// scrapeOverrides are command line values that replace configuration.
type scrapeOverrides struct {
	MetadataPolicy string
	AssetPolicy    string
	MetadataSource string
	AssetSource    string
	Mode           string
	Naming         string
	Kinds          []string
	SkipMetadata   bool
}

func (o scrapeOverrides) apply(sc config.ScraperConfig) config.ScraperConfig {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&sc.MetadataPolicy, o.MetadataPolicy)
	set(&sc.AssetPolicy, o.AssetPolicy)
	set(&sc.MetadataSource, o.MetadataSource)
	set(&sc.AssetSource, o.AssetSource)
	set(&sc.Mode, o.Mode)
	set(&sc.Naming, o.Naming)
	if len(o.Kinds) > 0 {
		sc.AssetKinds = o.Kinds
	}
	return sc
}

// buildSettings converts configuration into scraper settings. Parse failures
// are collected into one ConfigError.
func buildSettings(sc config.ScraperConfig, assets map[string]string, skipMetadata bool) (scraper.Settings, error) {
	cfgErr := &scraper.ConfigError{}
	problem := func(item, reason string) {
		cfgErr.Problems = append(cfgErr.Problems, scraper.ConfigProblem{Item: item, Reason: reason})
	}

	s := scraper.Settings{
		MetadataSource:  strings.ToLower(strings.TrimSpace(sc.MetadataSource)),
		AssetSource:     strings.ToLower(strings.TrimSpace(sc.AssetSource)),
		CleanTags:       sc.CleanTags,
		DownloadTimeout: sc.DownloadTimeout,
		SkipMetadata:    skipMetadata,
		AssetDirs:       scraper.AssetDirs{},
	}

	var err error
	if s.MetadataPolicy, err = scraper.ParseMetadataPolicy(sc.MetadataPolicy); err != nil {
		problem("scraper.metadata_policy", err.Error())
	}
	if s.AssetPolicy, err = scraper.ParseAssetPolicy(sc.AssetPolicy); err != nil {
		problem("scraper.asset_policy", err.Error())
	}
	if s.Mode, err = scraper.ParseMode(sc.Mode); err != nil {
		problem("scraper.mode", err.Error())
	}
	if s.Naming, err = scraper.ParseNamingScheme(sc.Naming); err != nil {
		problem("scraper.naming", err.Error())
	}

	names := make([]string, 0, len(assets))
	for name := range assets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		kind, err := scraper.ParseAssetKind(name)
		if err != nil {
			problem("assets."+name, err.Error())
			continue
		}
		if dir := strings.TrimSpace(assets[name]); dir != "" {
			s.AssetDirs[kind] = expandHome(dir)
		}
	}

	for _, name := range sc.AssetKinds {
		kind, err := scraper.ParseAssetKind(name)
		if err != nil {
			problem("scraper.asset_kinds", err.Error())
			continue
		}
		s.AssetKinds = append(s.AssetKinds, kind)
	}
	if len(sc.AssetKinds) == 0 {
		// Default to every kind that has a directory configured.
		for _, kind := range scraper.AllAssetKinds() {
			if _, ok := s.AssetDirs[kind]; ok {
				s.AssetKinds = append(s.AssetKinds, kind)
			}
		}
	}

	if len(cfgErr.Problems) > 0 {
		return s, cfgErr
	}
	return s, nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

func describeSettings(s scraper.Settings) string {
	kinds := make([]string, len(s.AssetKinds))
	for i, k := range s.AssetKinds {
		kinds[i] = k.String()
	}
	return fmt.Sprintf("metadata=%s(%s) assets=%s(%s) mode=%s naming=%s kinds=[%s]",
		s.MetadataPolicy, s.MetadataSource, s.AssetPolicy, s.AssetSource,
		s.Mode, s.Naming, strings.Join(kinds, ","))
}
