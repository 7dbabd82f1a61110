package scraper

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ryanm101/romscraper/internal/logging"
	"github.com/ryanm101/romscraper/internal/platform"
	"github.com/ryanm101/romscraper/internal/romname"
	"github.com/ryanm101/romscraper/internal/tracing"
)

// nodeState tracks an online node through one scrape.
type nodeState string

const (
	stateIdle           nodeState = "idle"
	stateSearching      nodeState = "searching"
	stateDisambiguating nodeState = "disambiguating"
	stateCandidateReady nodeState = "candidate_ready"
	stateFetching       nodeState = "fetching"
	stateApplied        nodeState = "applied"
	stateNotFound       nodeState = "not_found"
	stateFailed         nodeState = "failed"
)

// candidateFinder searches one source for a ROM and remembers the pick.
type candidateFinder struct {
	source      SourceClient
	resolver    PlatformResolver
	cache       *CandidateCache
	selector    Selector
	interactive bool
	logger      *slog.Logger
}

func (f *candidateFinder) transition(rom RomIdentity, s nodeState) {
	f.logger.Debug("scraper node state", "source", f.source.ID(), "rom", rom.BaseName, "state", string(s))
}

// candidate returns the chosen candidate for rom, searching only on a cache
// miss. Zero search results yield ErrNotFound.
func (f *candidateFinder) candidate(ctx context.Context, rom RomIdentity) (Candidate, error) {
	code := f.resolver.Resolve(rom.Platform, f.source.ID())
	key := CacheKey{SourceID: f.source.ID(), BaseName: rom.BaseName, Platform: code}
	if cand, ok := f.cache.Get(key); ok {
		f.transition(rom, stateCandidateReady)
		return cand, nil
	}

	if err := ctx.Err(); err != nil {
		return Candidate{}, err
	}

	f.transition(rom, stateSearching)
	term := romname.SearchTerm(rom.BaseName)
	results, err := f.search(ctx, term, rom.BaseName, code)
	if err != nil {
		f.transition(rom, stateFailed)
		return Candidate{}, fmt.Errorf("search %s for %q: %w", f.source.ID(), term, err)
	}
	if len(results) == 0 {
		f.transition(rom, stateNotFound)
		return Candidate{}, fmt.Errorf("%s: no candidates for %q: %w", f.source.ID(), term, ErrNotFound)
	}

	ranked := Rank(results, term, code)
	chosen := ranked[0]
	if len(ranked) > 1 {
		f.transition(rom, stateDisambiguating)
		chosen = f.disambiguate(ctx, rom, ranked)
	}

	f.cache.Put(key, chosen)
	f.transition(rom, stateCandidateReady)
	return chosen, nil
}

func (f *candidateFinder) search(ctx context.Context, term, baseName string, code platform.Code) ([]Candidate, error) {
	ctx, span := tracing.StartSpan(ctx, "source.search",
		tracing.WithAttributes(
			attribute.String("source", f.source.ID()),
			attribute.String("term", term),
			attribute.String("platform_code", code.String()),
		))
	defer span.End()

	results, err := f.source.Search(ctx, term, baseName, code)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("results", len(results)))
	tracing.SetSpanOK(span)
	return results, nil
}

func (f *candidateFinder) disambiguate(ctx context.Context, rom RomIdentity, ranked []Candidate) Candidate {
	if !f.interactive || f.selector == nil {
		f.logger.Debug("ambiguous search result resolved by ranking",
			"source", f.source.ID(), "rom", rom.BaseName,
			"candidates", len(ranked), "chosen", ranked[0].DisplayName)
		return ranked[0]
	}

	options := make([]string, len(ranked))
	for i, c := range ranked {
		options[i] = c.DisplayName
	}
	title := fmt.Sprintf("Select game for %q (%s)", rom.BaseName, f.source.ID())
	idx, ok := f.selector.SelectOne(ctx, title, options)
	if !ok || idx < 0 || idx >= len(ranked) {
		return ranked[0]
	}
	return ranked[idx]
}

func newCandidateFinder(src SourceClient, resolver PlatformResolver, cache *CandidateCache, sel Selector, interactive bool, logger *slog.Logger) *candidateFinder {
	return &candidateFinder{
		source:      src,
		resolver:    resolver,
		cache:       cache,
		selector:    sel,
		interactive: interactive,
		logger:      logging.OrDefault(logger),
	}
}
