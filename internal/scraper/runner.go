package scraper

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ryanm101/romscraper/internal/logging"
	"github.com/ryanm101/romscraper/internal/metrics"
	"github.com/ryanm101/romscraper/internal/tracing"
)

// Session scrapes ROMs one at a time with its own CandidateCache.
type Session struct {
	Metadata *MetadataChain
	Assets   *AssetChain
	kinds    []AssetKind
	cache    *CandidateCache
	logger   *slog.Logger
}

// RomResult is the outcome of scraping one ROM.
type RomResult struct {
	Record    *Record
	Metadata  *Outcome
	Assets    map[AssetKind]Outcome
	Cancelled bool
}

// FailedKinds lists the asset kinds whose chain was exhausted.
func (r RomResult) FailedKinds() []AssetKind {
	var out []AssetKind
	for _, kind := range AllAssetKinds() {
		if o, ok := r.Assets[kind]; ok && o.Exhausted() {
			out = append(out, kind)
		}
	}
	return out
}

// Scrape runs the metadata chain and then every configured asset chain for
// rec. Cancellation is checked between steps; one failing kind never stops
// the others.
func (s *Session) Scrape(ctx context.Context, rec *Record) RomResult {
	start := time.Now()
	defer metrics.RecordRomDuration(rec.Platform, start)

	ctx, span := tracing.StartSpan(ctx, "scraper.rom",
		tracing.WithAttributes(attribute.String("path", rec.Path), attribute.String("platform", rec.Platform)))
	defer span.End()

	res := RomResult{Record: rec, Assets: make(map[AssetKind]Outcome, len(s.kinds))}

	if s.Metadata != nil {
		out := s.Metadata.Scrape(ctx, rec)
		res.Metadata = &out
		if out.Cancelled() {
			res.Cancelled = true
			return res
		}
	}

	if s.Assets != nil {
		for _, kind := range s.kinds {
			if ctx.Err() != nil {
				res.Cancelled = true
				return res
			}
			out := s.Assets.Scrape(ctx, rec, kind)
			res.Assets[kind] = out
			if out.Cancelled() {
				res.Cancelled = true
				return res
			}
			if out.Exhausted() {
				s.logger.Info("asset not resolved", "rom", rec.Path, "kind", kind.String(), "error", out.Err)
			}
		}
	}

	tracing.AddSpanAttributes(span, attribute.Int("assets_failed", len(res.FailedKinds())))
	return res
}

// Summary reports a batch run.
type Summary struct {
	RunID           string
	Total           int
	MetadataApplied int
	MetadataFailed  int
	AssetsApplied   int
	AssetsFailed    int
	Cancelled       int
	Duration        time.Duration
	Results         []RomResult
}

// Runner scrapes many records with a pool of workers. Each worker owns a
// Session; source clients and their rate limits are shared.
type Runner struct {
	chains  *Chains
	workers int
	logger  *slog.Logger
}

// NewRunner creates a runner. Interactive mode always uses one worker.
func NewRunner(chains *Chains, workers int, logger *slog.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	if chains.Settings().Mode == ModeInteractive {
		workers = 1
	}
	return &Runner{chains: chains, workers: workers, logger: logging.OrDefault(logger)}
}

type scrapeJob struct {
	index  int
	record *Record
}

// Run scrapes records and returns results in input order. onResult, when
// set, is called from a single goroutine as each ROM finishes.
func (r *Runner) Run(ctx context.Context, records []*Record, onResult func(RomResult)) *Summary {
	runID := uuid.NewString()
	start := time.Now()
	logger := r.logger.With("run_id", runID)
	logger.Info("scrape started", "roms", len(records), "workers", r.workers)

	ctx, span := tracing.StartSpan(ctx, "scraper.run",
		tracing.WithAttributes(attribute.String("run_id", runID), attribute.Int("roms", len(records))))
	defer span.End()

	jobs := make(chan scrapeJob, r.workers*2)
	results := make(chan scrapeJob, r.workers*2)
	out := make([]RomResult, len(records))

	var cancelled int64
	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session := r.chains.NewSession()
			for job := range jobs {
				if ctx.Err() != nil {
					atomic.AddInt64(&cancelled, 1)
					out[job.index] = RomResult{Record: job.record, Cancelled: true}
					continue
				}
				out[job.index] = session.Scrape(ctx, job.record)
				results <- job
			}
		}()
	}

	var collectorWg sync.WaitGroup
	collectorWg.Add(1)
	go func() {
		defer collectorWg.Done()
		for job := range results {
			if onResult != nil {
				onResult(out[job.index])
			}
		}
	}()

	for i, rec := range records {
		jobs <- scrapeJob{index: i, record: rec}
	}
	close(jobs)
	wg.Wait()
	close(results)
	collectorWg.Wait()

	sum := &Summary{RunID: runID, Total: len(records), Results: out, Duration: time.Since(start)}
	for _, res := range out {
		if res.Cancelled {
			sum.Cancelled++
		}
		if res.Metadata != nil {
			if res.Metadata.Applied {
				sum.MetadataApplied++
			} else if res.Metadata.Exhausted() {
				sum.MetadataFailed++
			}
		}
		for _, o := range res.Assets {
			if o.Applied {
				sum.AssetsApplied++
			} else if o.Exhausted() {
				sum.AssetsFailed++
			}
		}
	}

	logger.Info("scrape finished",
		"roms", sum.Total,
		"metadata_applied", sum.MetadataApplied,
		"assets_applied", sum.AssetsApplied,
		"assets_failed", sum.AssetsFailed,
		"cancelled", sum.Cancelled,
		"skipped_after_cancel", atomic.LoadInt64(&cancelled),
		"duration", sum.Duration)
	return sum
}
