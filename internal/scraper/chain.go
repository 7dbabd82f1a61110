package scraper

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/ryanm101/romscraper/internal/logging"
	"github.com/ryanm101/romscraper/internal/metrics"
	"github.com/ryanm101/romscraper/internal/romname"
	"github.com/ryanm101/romscraper/internal/tracing"
)

// MetadataChain tries metadata nodes in order until one applies.
type MetadataChain struct {
	nodes     []MetadataSource
	stripTags bool
	logger    *slog.Logger
}

// NewMetadataChain builds a chain over nodes.
func NewMetadataChain(logger *slog.Logger, stripTags bool, nodes ...MetadataSource) *MetadataChain {
	return &MetadataChain{nodes: nodes, stripTags: stripTags, logger: logging.OrDefault(logger)}
}

// Nodes returns the node sequence.
func (c *MetadataChain) Nodes() []MetadataSource { return c.nodes }

// Scrape runs the chain for rec and applies the first success to it.
func (c *MetadataChain) Scrape(ctx context.Context, rec *Record) Outcome {
	rom := rec.Identity()
	ctx, span := tracing.StartSpan(ctx, "scraper.metadata",
		tracing.WithAttributes(attribute.String("rom", rom.BaseName), attribute.String("platform", rom.Platform)))
	defer span.End()

	var out Outcome
	for _, node := range c.nodes {
		if err := ctx.Err(); err != nil {
			out.Attempts = append(out.Attempts, Attempt{Node: node.Name(), Status: StatusCancelled, Err: err})
			out.Err = err
			return out
		}

		md, err := node.FetchMetadata(ctx, rom)
		if err == nil && md.IsEmpty() {
			err = ErrNotFound
		}
		status := classify(err)
		out.Attempts = append(out.Attempts, Attempt{Node: node.Name(), Status: status, Err: err})
		metrics.NodeOutcomes.WithLabelValues("metadata", node.Name(), status.String()).Inc()

		switch status {
		case StatusApplied:
			rec.ApplyMetadata(md, node.Name())
			if rec.Metadata.Title == "" {
				rec.Metadata.Title = romname.CleanTitle(rom.BaseName, c.stripTags)
			}
			out.Applied = true
			out.Node = node.Name()
			tracing.SetSpanOK(span)
			c.logger.Debug("metadata applied", "rom", rom.BaseName, "node", node.Name())
			return out
		case StatusCancelled:
			out.Err = err
			return out
		case StatusFailed:
			c.logger.Warn("metadata node failed", "rom", rom.BaseName, "node", node.Name(), "error", err)
		}
		out.Err = err
	}

	tracing.RecordError(span, out.Err)
	return out
}

// AssetChain tries asset nodes in order until one yields a file.
type AssetChain struct {
	nodes  []AssetSource
	logger *slog.Logger
}

// NewAssetChain builds a chain over nodes.
func NewAssetChain(logger *slog.Logger, nodes ...AssetSource) *AssetChain {
	return &AssetChain{nodes: nodes, logger: logging.OrDefault(logger)}
}

// Nodes returns the node sequence.
func (c *AssetChain) Nodes() []AssetSource { return c.nodes }

// Scrape resolves one asset kind for rec and records the path on success.
func (c *AssetChain) Scrape(ctx context.Context, rec *Record, kind AssetKind) Outcome {
	rom := rec.Identity()
	ctx, span := tracing.StartSpan(ctx, "scraper.asset",
		tracing.WithAttributes(attribute.String("rom", rom.BaseName), attribute.String("kind", kind.String())))
	defer span.End()

	var out Outcome
	for _, node := range c.nodes {
		if err := ctx.Err(); err != nil {
			out.Attempts = append(out.Attempts, Attempt{Node: node.Name(), Status: StatusCancelled, Err: err})
			out.Err = err
			return out
		}

		path, err := node.FetchAsset(ctx, rom, kind)
		if err == nil && path == "" {
			err = ErrNotFound
		}
		status := classify(err)
		out.Attempts = append(out.Attempts, Attempt{Node: node.Name(), Status: status, Err: err})
		metrics.NodeOutcomes.WithLabelValues("asset", node.Name(), status.String()).Inc()

		switch status {
		case StatusApplied:
			rec.SetAsset(kind, path)
			out.Applied = true
			out.Node = node.Name()
			out.Path = path
			tracing.SetSpanOK(span)
			return out
		case StatusCancelled:
			out.Err = err
			return out
		case StatusFailed:
			c.logger.Warn("asset node failed", "rom", rom.BaseName, "kind", kind.String(), "node", node.Name(), "error", err)
		}
		out.Err = err
	}

	tracing.RecordError(span, out.Err)
	return out
}
