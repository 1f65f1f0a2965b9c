package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

// ErrStatus is returned when the remote side answers with a non-2xx status
var ErrStatus = errors.New("unexpected status")

// ErrTooLarge is returned when a body exceeds maxBodySize
var ErrTooLarge = errors.New("body too large")

const maxBodySize = 16 << 20

// HTTPFetcher fetches pages over HTTP and decodes them to UTF-8
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	log       *zap.Logger
}

// Option configures an HTTPFetcher
type Option func(*HTTPFetcher)

// withClient replaces the underlying HTTP client
func withClient(c *http.Client) Option {
	return func(f *HTTPFetcher) { f.client = c }
}

// WithLogger sets the logger used for request diagnostics
func WithLogger(l *zap.Logger) Option {
	return func(f *HTTPFetcher) { f.log = l }
}

// NewHTTPFetcher creates a new HTTP fetcher
func NewHTTPFetcher(userAgent string, timeout time.Duration, opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch performs a GET request and returns the body decoded according to
// the response charset
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request for '%s' with %w", url, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch '%s' with %w", url, err)
	}
	defer resp.Body.Close()

	f.log.Debug("fetched",
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("'%s' answered %d: %w", url, resp.StatusCode, ErrStatus)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read body of '%s' with %w", url, err)
	}
	if len(raw) > maxBodySize {
		return "", fmt.Errorf("'%s' is over %d bytes: %w", url, maxBodySize, ErrTooLarge)
	}

	body, err := charset.NewReader(bytes.NewReader(raw), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("failed to detect charset of '%s' with %w", url, err)
	}
	text, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to decode body of '%s' with %w", url, err)
	}

	return string(text), nil
}
