package scraper

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/ryanm101/romscraper/internal/platform"
)

type MockSource struct {
	mock.Mock
	id string
}

func newMockSource(id string) *MockSource {
	return &MockSource{id: id}
}

func (m *MockSource) ID() string { return m.id }

func (m *MockSource) Search(ctx context.Context, term, romBaseName string, code platform.Code) ([]Candidate, error) {
	args := m.Called(ctx, term, romBaseName, code)
	return args.Get(0).([]Candidate), args.Error(1)
}

func (m *MockSource) FetchMetadata(ctx context.Context, candidateID string) (GameMetadata, error) {
	args := m.Called(ctx, candidateID)
	return args.Get(0).(GameMetadata), args.Error(1)
}

func (m *MockSource) FetchAssetIndex(ctx context.Context, candidateID string) ([]AssetRecord, error) {
	args := m.Called(ctx, candidateID)
	return args.Get(0).([]AssetRecord), args.Error(1)
}

// onPageSource adds page resolution to MockSource.
type onPageSource struct {
	*MockSource
}

func (s onPageSource) ResolveAssetURL(ctx context.Context, candidateID string, rec AssetRecord) (string, error) {
	args := s.Called(ctx, candidateID, rec)
	return args.String(0), args.Error(1)
}

type MockDownloader struct {
	mock.Mock
}

func (m *MockDownloader) Download(ctx context.Context, url, dest string, timeout time.Duration) error {
	args := m.Called(ctx, url, dest, timeout)
	return args.Error(0)
}

// writesFile makes a Download expectation create dest.
func writesFile(args mock.Arguments) {
	_ = os.WriteFile(args.String(2), []byte("img"), 0o644)
}

type fakeResolver struct{}

func (fakeResolver) Resolve(canonical, provider string) platform.Code {
	if canonical == "" {
		return platform.Unknown()
	}
	return platform.Known(provider + ":" + canonical)
}

type scriptedSelector struct {
	mu      sync.Mutex
	index   int
	ok      bool
	prompts [][]string
}

func (s *scriptedSelector) SelectOne(_ context.Context, _ string, options []string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, options)
	return s.index, s.ok
}

type fakeProvider struct {
	id      string
	missing []string
	source  SourceClient
	created int
}

func (p *fakeProvider) ID() string                   { return p.id }
func (p *fakeProvider) MissingCredentials() []string { return p.missing }

func (p *fakeProvider) Client() (SourceClient, error) {
	p.created++
	return p.source, nil
}
