package scraper

import (
	"context"
	"time"

	"github.com/ryanm101/romscraper/internal/platform"
)

// SourceClient is the adapter to one external metadata/asset provider.
//
// Implementations map "no results" to an empty slice (or ErrNotFound for the
// fetch calls), transport failures to an error, and undecodable payloads to
// an empty result plus a warning.
type SourceClient interface {
	ID() string
	Search(ctx context.Context, term, romBaseName string, code platform.Code) ([]Candidate, error)
	FetchMetadata(ctx context.Context, candidateID string) (GameMetadata, error)
	FetchAssetIndex(ctx context.Context, candidateID string) ([]AssetRecord, error)
}

// AssetURLResolver is implemented by sources whose asset index points at
// pages rather than files.
type AssetURLResolver interface {
	ResolveAssetURL(ctx context.Context, candidateID string, rec AssetRecord) (string, error)
}

// Selector asks a human to pick one option. ok is false when the prompt was
// cancelled, in which case callers fall back to the first option.
type Selector interface {
	SelectOne(ctx context.Context, title string, options []string) (index int, ok bool)
}

// PlatformResolver maps a canonical platform to a provider code.
type PlatformResolver interface {
	Resolve(canonicalPlatform, provider string) platform.Code
}

// Downloader stores the content at url into dest.
type Downloader interface {
	Download(ctx context.Context, url, dest string, timeout time.Duration) error
}

// Provider describes a source the ChainBuilder can wire in. Client must not
// perform network I/O.
type Provider interface {
	ID() string
	MissingCredentials() []string
	Client() (SourceClient, error)
}

// FirstOption is a Selector that always takes the top-ranked option.
type FirstOption struct{}

func (FirstOption) SelectOne(context.Context, string, []string) (int, bool) {
	return 0, true
}
