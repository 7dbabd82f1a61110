package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ryanm101/romscraper/internal/logging"
	"github.com/ryanm101/romscraper/internal/nfo"
	"github.com/ryanm101/romscraper/internal/romname"
)

// MetadataSource is one node of a metadata chain.
type MetadataSource interface {
	Name() string
	FetchMetadata(ctx context.Context, rom RomIdentity) (GameMetadata, error)
}

// CleanTitleScraper derives a title from the ROM file name. It never fails.
type CleanTitleScraper struct {
	StripTags bool
}

func (s CleanTitleScraper) Name() string { return "clean_title" }

func (s CleanTitleScraper) FetchMetadata(_ context.Context, rom RomIdentity) (GameMetadata, error) {
	title := romname.CleanTitle(rom.BaseName, s.StripTags)
	if title == "" {
		title = rom.BaseName
	}
	return GameMetadata{Title: title}, nil
}

// NFOScraper reads the XML-like sidecar stored next to the ROM.
type NFOScraper struct{}

func (NFOScraper) Name() string { return "nfo" }

func (NFOScraper) FetchMetadata(_ context.Context, rom RomIdentity) (GameMetadata, error) {
	fields, err := nfo.ReadFor(rom.Path)
	if errors.Is(err, nfo.ErrNoSidecar) {
		return GameMetadata{}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if err != nil {
		return GameMetadata{}, fmt.Errorf("read nfo: %w", err)
	}

	md := GameMetadata{
		Title:     fields["title"],
		Year:      fields["year"],
		Genre:     fields["genre"],
		Developer: first(fields["developer"], fields["publisher"], fields["studio"]),
		Players:   first(fields["nplayers"], fields["players"]),
		Rating:    first(fields["rating"], fields["esrb"]),
		Plot:      first(fields["plot"], fields["description"]),
	}
	if md.IsEmpty() {
		return GameMetadata{}, fmt.Errorf("nfo for %s has no fields: %w", rom.BaseName, ErrNotFound)
	}
	return md, nil
}

// OnlineMetadataScraper fetches metadata for the candidate a source picks.
type OnlineMetadataScraper struct {
	finder *candidateFinder
	logger *slog.Logger
}

// NewOnlineMetadataScraper wires a source into a metadata node.
func NewOnlineMetadataScraper(src SourceClient, resolver PlatformResolver, cache *CandidateCache, sel Selector, interactive bool, logger *slog.Logger) *OnlineMetadataScraper {
	logger = logging.OrDefault(logger)
	return &OnlineMetadataScraper{
		finder: newCandidateFinder(src, resolver, cache, sel, interactive, logger),
		logger: logger,
	}
}

func (s *OnlineMetadataScraper) Name() string { return "online:" + s.finder.source.ID() }

func (s *OnlineMetadataScraper) FetchMetadata(ctx context.Context, rom RomIdentity) (GameMetadata, error) {
	cand, err := s.finder.candidate(ctx, rom)
	if err != nil {
		return GameMetadata{}, err
	}

	s.finder.transition(rom, stateFetching)
	md, err := s.finder.source.FetchMetadata(ctx, cand.ID)
	if err != nil {
		s.finder.transition(rom, stateFailed)
		return GameMetadata{}, fmt.Errorf("fetch metadata %s/%s: %w", s.finder.source.ID(), cand.ID, err)
	}
	if md.IsEmpty() {
		s.finder.transition(rom, stateNotFound)
		return GameMetadata{}, fmt.Errorf("%s returned empty metadata for %s: %w", s.finder.source.ID(), cand.ID, ErrNotFound)
	}
	if md.Title == "" {
		md.Title = cand.DisplayName
	}
	s.finder.transition(rom, stateApplied)
	return md, nil
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
