package metrics

import (
	"context"
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Store Gauges
	RomsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "romscraper_roms_total",
		Help: "Total number of ROM records in the store.",
	})
	AssetsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "romscraper_assets_total",
		Help: "Total number of asset paths recorded in the store.",
	})

	// Scraper chain behaviour
	NodeOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "romscraper_node_outcomes_total",
		Help: "Scraper node results by chain, node and status.",
	}, []string{"chain", "node", "status"}) // status: applied, not_found, failed

	CandidateCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "romscraper_candidate_cache_total",
		Help: "Candidate cache lookups per source.",
	}, []string{"source", "result"}) // result: hit, miss

	ProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "romscraper_provider_requests_total",
		Help: "Requests issued to external providers.",
	}, []string{"provider", "result"}) // result: ok, cached, not_found, malformed, error

	AssetDownloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "romscraper_asset_downloads_total",
		Help: "Asset resolution results per asset kind.",
	}, []string{"kind", "status"}) // status: downloaded, local, not_found, failed

	RomDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "romscraper_rom_duration_seconds",
		Help:    "Time spent scraping a single ROM.",
		Buckets: prometheus.DefBuckets,
	}, []string{"platform"})
)

// UpdateStoreMetrics refreshes gauges that reflect the current state of the ROM store.
func UpdateStoreMetrics(ctx context.Context, db *sql.DB) error {
	var roms, assets int

	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM roms").Scan(&roms); err != nil {
		return err
	}
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM rom_assets").Scan(&assets); err != nil {
		return err
	}

	RomsTotal.Set(float64(roms))
	AssetsTotal.Set(float64(assets))

	return nil
}

// RecordRomDuration records the time taken to scrape one ROM.
func RecordRomDuration(platform string, start time.Time) {
	RomDuration.WithLabelValues(platform).Observe(time.Since(start).Seconds())
}
