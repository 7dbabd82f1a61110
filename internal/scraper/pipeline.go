package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ryanm101/romscraper/internal/logging"
	"github.com/ryanm101/romscraper/internal/metrics"
)

// DefaultDownloadTimeout bounds a single asset download.
const DefaultDownloadTimeout = 120 * time.Second

// AssetPipeline turns a chosen candidate into a local asset file.
type AssetPipeline struct {
	Downloader  Downloader
	Selector    Selector
	Interactive bool
	Naming      NamingScheme
	Dirs        AssetDirs
	Timeout     time.Duration
	Logger      *slog.Logger
}

func (p *AssetPipeline) timeout() time.Duration {
	if p.Timeout <= 0 {
		return DefaultDownloadTimeout
	}
	return p.Timeout
}

// Resolve fetches the candidate's asset index, picks an asset of kind,
// downloads it and returns the stored path.
func (p *AssetPipeline) Resolve(ctx context.Context, src SourceClient, cand Candidate, rom RomIdentity, kind AssetKind) (string, error) {
	logger := logging.OrDefault(p.Logger)

	dir := p.Dirs[kind]
	if dir == "" {
		return "", fmt.Errorf("no directory configured for %s: %w", kind, ErrNotFound)
	}

	index, err := src.FetchAssetIndex(ctx, cand.ID)
	if err != nil {
		p.count(kind, "failed")
		return "", fmt.Errorf("asset index %s/%s: %w", src.ID(), cand.ID, err)
	}
	var records []AssetRecord
	for _, rec := range index {
		if rec.Kind == kind {
			records = append(records, rec)
		}
	}
	if len(records) == 0 {
		p.count(kind, "not_found")
		return "", fmt.Errorf("%s has no %s for %s: %w", src.ID(), kind, cand.DisplayName, ErrNotFound)
	}

	chosen, local := p.choose(ctx, rom, kind, records)
	if local != "" {
		p.count(kind, "local")
		return local, nil
	}

	assetURL := chosen.URL
	if chosen.IsOnPage {
		resolver, ok := src.(AssetURLResolver)
		if !ok {
			p.count(kind, "failed")
			return "", fmt.Errorf("%s returned an on-page asset but cannot resolve it", src.ID())
		}
		if assetURL, err = resolver.ResolveAssetURL(ctx, cand.ID, chosen); err != nil {
			p.count(kind, "failed")
			return "", fmt.Errorf("resolve %s url: %w", kind, err)
		}
	}
	if assetURL == "" {
		p.count(kind, "not_found")
		return "", fmt.Errorf("%s %s has no url: %w", src.ID(), kind, ErrNotFound)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.Downloader == nil {
		p.count(kind, "failed")
		return "", errors.New("asset pipeline has no downloader")
	}

	dest := AssetPath(p.Naming, dir, kind, rom, ExtensionFromURL(assetURL))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		p.count(kind, "failed")
		return "", fmt.Errorf("create asset dir: %w", err)
	}
	if err := p.Downloader.Download(ctx, assetURL, dest, p.timeout()); err != nil {
		p.count(kind, "failed")
		return "", fmt.Errorf("download %s: %w", kind, err)
	}

	logger.Debug("asset downloaded", "rom", rom.BaseName, "kind", kind.String(), "source", src.ID(), "path", dest)
	p.count(kind, "downloaded")
	return dest, nil
}

// choose returns the asset record to download, or a local path when the
// user kept the file already on disk.
func (p *AssetPipeline) choose(ctx context.Context, rom RomIdentity, kind AssetKind, records []AssetRecord) (AssetRecord, string) {
	if !p.Interactive || p.Selector == nil {
		return records[0], ""
	}

	var options []string
	local, err := FindLocalAsset(p.Dirs[kind], AssetStem(p.Naming, kind, rom), kind)
	if err == nil {
		options = append(options, "Keep current "+filepath.Base(local))
	} else {
		local = ""
	}
	for _, rec := range records {
		name := rec.DisplayName
		if name == "" {
			name = kind.String()
		}
		options = append(options, name)
	}

	idx, ok := p.Selector.SelectOne(ctx, fmt.Sprintf("Select %s for %q", kind, rom.BaseName), options)
	if !ok || idx < 0 || idx >= len(options) {
		idx = 0
	}
	if local != "" {
		if idx == 0 {
			return AssetRecord{}, local
		}
		idx--
	}
	return records[idx], ""
}

func (p *AssetPipeline) count(kind AssetKind, status string) {
	metrics.AssetDownloads.WithLabelValues(kind.String(), status).Inc()
}
