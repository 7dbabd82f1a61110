package netfetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ryanm101/romscraper/internal/logging"
)

// DefaultDownloadTimeout bounds a single asset download.
const DefaultDownloadTimeout = 120 * time.Second

const defaultUserAgent = "romscraper/1.0"

// maxBodySize caps API and page responses held in memory.
const maxBodySize = 32 << 20

// Response is a fully read HTTP response.
type Response struct {
	Status int
	Body   []byte
	Header http.Header
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Fetcher is the network collaborator interface.
type Fetcher interface {
	Get(ctx context.Context, url string, headers map[string]string, timeout time.Duration) (*Response, error)
	Post(ctx context.Context, url string, body []byte, headers map[string]string, timeout time.Duration) (*Response, error)
	Download(ctx context.Context, url, dest string, timeout time.Duration) error
}

// Client implements Fetcher over net/http.
type Client struct {
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
}

var _ Fetcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrDefault(c.logger)
	return c
}

// HTTPClient exposes the underlying client for SDKs that need one.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// Get performs a GET and returns the body whatever the status.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string, timeout time.Duration) (*Response, error) {
	return c.do(ctx, "get", http.MethodGet, url, nil, headers, timeout)
}

// Post performs a POST and returns the body whatever the status.
func (c *Client) Post(ctx context.Context, url string, body []byte, headers map[string]string, timeout time.Duration) (*Response, error) {
	return c.do(ctx, "post", http.MethodPost, url, body, headers, timeout)
}

func (c *Client) do(ctx context.Context, op, method, url string, body []byte, headers map[string]string, timeout time.Duration) (*Response, error) {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, &Error{Op: op, URL: url, Err: fmt.Errorf("build request: %w", err)}
	}
	c.setHeaders(req, headers)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, wrap(op, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, wrap(op, url, fmt.Errorf("read body: %w", err))
	}
	c.logger.Debug("http request",
		slog.String("method", method),
		slog.String("url", url),
		slog.Int("status", resp.StatusCode),
		slog.Duration("latency", time.Since(start)),
	)
	return &Response{Status: resp.StatusCode, Body: data, Header: resp.Header}, nil
}

// Download streams url into dest, creating parent directories. The file is
// written to a temporary name first so a failed download never leaves a
// partial file at dest.
func (c *Client) Download(ctx context.Context, url, dest string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultDownloadTimeout
	}
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &Error{Op: "download", URL: url, Err: fmt.Errorf("build request: %w", err)}
	}
	c.setHeaders(req, nil)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return wrap("download", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return &Error{Op: "download", URL: url, Status: resp.StatusCode}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil { //nolint:gosec // media dirs are shared
		return fmt.Errorf("create asset dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return wrap("download", url, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request, headers map[string]string) {
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
