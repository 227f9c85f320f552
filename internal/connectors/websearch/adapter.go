// Package websearch adapts the Google Programmable Search Engine API
// into a source adapter producing search result payloads.
package websearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	customsearch "google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driven"
)

// Ensure Adapter implements the interface.
var _ driven.SourceAdapter = (*Adapter)(nil)

// DefaultMaxResults bounds how many hits one search yields.
const DefaultMaxResults = 5

// Adapter searches the web through a configured Programmable Search
// Engine. Each hit becomes one payload carrying the result snippet;
// fetching the full page is the web page adapter's job.
type Adapter struct {
	svc        *customsearch.Service
	engineID   string
	maxResults int64
}

// Option configures the adapter.
type Option func(*Adapter)

// WithMaxResults caps the number of results per search.
func WithMaxResults(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.maxResults = int64(n)
		}
	}
}

// New creates a search adapter. engineID is the Programmable Search
// Engine identifier (cx); extra client options are passed through to
// the API client, which tests use to point at a fake server.
func New(ctx context.Context, apiKey, engineID string, opts []Option, clientOpts ...option.ClientOption) (*Adapter, error) {
	if apiKey == "" || engineID == "" {
		return nil, fmt.Errorf("%w: search requires api key and engine id", domain.ErrInvalidInput)
	}

	svc, err := customsearch.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, clientOpts...)...)
	if err != nil {
		return nil, fmt.Errorf("create search service: %w", err)
	}

	a := &Adapter{
		svc:        svc,
		engineID:   engineID,
		maxResults: DefaultMaxResults,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Kind returns the source kind this adapter produces.
func (a *Adapter) Kind() domain.SourceKind {
	return domain.KindSearchResult
}

// Fetch runs a web search and returns one payload per hit.
func (a *Adapter) Fetch(ctx context.Context, query string) ([]driven.RawPayload, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", domain.ErrInvalidInput)
	}

	resp, err := a.svc.Cse.List().
		Q(query).
		Cx(a.engineID).
		Num(a.maxResults).
		Context(ctx).
		Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code >= 400 && apiErr.Code < 500 {
			return nil, fmt.Errorf("%w: search rejected: %v", domain.ErrSourceUnavailable, apiErr.Message)
		}
		return nil, fmt.Errorf("%w: search: %v", domain.ErrSourceUnavailable, err)
	}

	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("%w: no results for %q", domain.ErrSourceEmpty, query)
	}

	now := time.Now().UTC()
	payloads := make([]driven.RawPayload, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Link == "" {
			continue
		}
		payloads = append(payloads, driven.RawPayload{
			Source: domain.Source{
				ID:        uuid.New().String(),
				Kind:      domain.KindSearchResult,
				OriginURL: item.Link,
				Title:     item.Title,
				FetchedAt: now,
			},
			MIMEType: "text/plain",
			Content:  []byte(snippetContent(item)),
		})
	}

	if len(payloads) == 0 {
		return nil, fmt.Errorf("%w: no usable results for %q", domain.ErrSourceEmpty, query)
	}
	return payloads, nil
}

// snippetContent renders a hit as a small text document.
func snippetContent(item *customsearch.Result) string {
	if item.Snippet == "" {
		return item.Title
	}
	return item.Title + "\n\n" + item.Snippet
}
