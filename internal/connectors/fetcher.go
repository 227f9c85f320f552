package connectors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBytes caps response bodies at 10 MiB.
	DefaultMaxBytes = 10 << 20

	// DefaultRate is the proactive per-fetcher request rate.
	DefaultRate = 2.0

	// userAgent identifies the client to origin servers.
	userAgent = "inquest/1.0 (+https://github.com/custodia-labs/inquest-cli)"
)

// Fetcher is a rate-limited HTTP fetcher shared by source adapters.
// Failures map to the domain error taxonomy so callers can decide
// between skipping a source and aborting the session.
type Fetcher struct {
	client   *http.Client
	limiter  *rate.Limiter
	maxBytes int64
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d > 0 {
			f.client.Timeout = d
		}
	}
}

// WithMaxBytes caps the response body size.
func WithMaxBytes(n int64) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// WithRate sets the proactive request rate in requests per second.
func WithRate(rps float64) FetcherOption {
	return func(f *Fetcher) {
		if rps > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client. Used in tests.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// NewFetcher creates a fetcher with default limits.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:   &http.Client{Timeout: DefaultTimeout},
		limiter:  rate.NewLimiter(rate.Limit(DefaultRate), 1),
		maxBytes: DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Get fetches a URL and returns the body and the media type from the
// Content-Type header (parameters stripped, e.g. "text/html").
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s", domain.ErrInvalidInput, url)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("%w: %s: %v", domain.ErrSourceUnavailable, url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, "", fmt.Errorf("%w: %s returned %d", domain.ErrSourceEmpty, url, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, "", fmt.Errorf("%w: %s returned %d", domain.ErrSourceUnavailable, url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, "", fmt.Errorf("%w: read %s: %v", domain.ErrSourceUnavailable, url, err)
	}
	if len(body) == 0 {
		return nil, "", fmt.Errorf("%w: %s returned no content", domain.ErrSourceEmpty, url)
	}

	mediaType := "application/octet-stream"
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if parsed, _, err := mime.ParseMediaType(ct); err == nil {
			mediaType = parsed
		}
	}

	return body, mediaType, nil
}
