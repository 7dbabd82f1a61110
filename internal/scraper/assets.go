package scraper

import (
	"context"
	"log/slog"

	"github.com/ryanm101/romscraper/internal/logging"
)

// AssetSource is one node of an asset chain.
type AssetSource interface {
	Name() string
	FetchAsset(ctx context.Context, rom RomIdentity, kind AssetKind) (string, error)
}

// LocalAssetScraper finds assets already present in the asset directories.
type LocalAssetScraper struct {
	Dirs   AssetDirs
	Naming NamingScheme
}

func (s LocalAssetScraper) Name() string { return "local" }

func (s LocalAssetScraper) FetchAsset(_ context.Context, rom RomIdentity, kind AssetKind) (string, error) {
	dir := s.Dirs[kind]
	if dir == "" {
		return "", ErrNotFound
	}
	return FindLocalAsset(dir, AssetStem(s.Naming, kind, rom), kind)
}

// OnlineAssetScraper resolves assets through a source and the asset pipeline.
type OnlineAssetScraper struct {
	finder   *candidateFinder
	pipeline *AssetPipeline
}

// NewOnlineAssetScraper wires a source into an asset node.
func NewOnlineAssetScraper(src SourceClient, resolver PlatformResolver, cache *CandidateCache, pipeline *AssetPipeline, logger *slog.Logger) *OnlineAssetScraper {
	logger = logging.OrDefault(logger)
	return &OnlineAssetScraper{
		finder:   newCandidateFinder(src, resolver, cache, pipeline.Selector, pipeline.Interactive, logger),
		pipeline: pipeline,
	}
}

func (s *OnlineAssetScraper) Name() string { return "online:" + s.finder.source.ID() }

func (s *OnlineAssetScraper) FetchAsset(ctx context.Context, rom RomIdentity, kind AssetKind) (string, error) {
	cand, err := s.finder.candidate(ctx, rom)
	if err != nil {
		return "", err
	}
	s.finder.transition(rom, stateFetching)
	path, err := s.pipeline.Resolve(ctx, s.finder.source, cand, rom, kind)
	if err != nil {
		s.finder.transition(rom, stateFromError(err))
		return "", err
	}
	s.finder.transition(rom, stateApplied)
	return path, nil
}

func stateFromError(err error) nodeState {
	if classify(err) == StatusNotFound {
		return stateNotFound
	}
	return stateFailed
}
