// Package webpage fetches individual web pages for normalisation.
package webpage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/inquest-cli/internal/connectors"
	"github.com/custodia-labs/inquest-cli/internal/core/domain"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driven"
)

// Ensure Adapter implements the interface.
var _ driven.SourceAdapter = (*Adapter)(nil)

// Adapter fetches one web page per call. The served Content-Type wins
// over the URL extension, so a link ending in .html that serves a PDF
// still yields an application/pdf payload.
type Adapter struct {
	fetcher *connectors.Fetcher
}

// New creates a web page adapter.
func New(fetcher *connectors.Fetcher) *Adapter {
	return &Adapter{fetcher: fetcher}
}

// Kind returns the source kind this adapter produces.
func (a *Adapter) Kind() domain.SourceKind {
	return domain.KindWebPage
}

// Fetch retrieves the page at target and returns a single payload.
func (a *Adapter) Fetch(ctx context.Context, target string) ([]driven.RawPayload, error) {
	parsed, err := url.Parse(target)
	if err != nil || !strings.HasPrefix(parsed.Scheme, "http") {
		return nil, fmt.Errorf("%w: not a fetchable url: %s", domain.ErrInvalidInput, target)
	}

	body, mediaType, err := a.fetcher.Get(ctx, target)
	if err != nil {
		return nil, err
	}

	return []driven.RawPayload{{
		Source: domain.Source{
			ID:        uuid.New().String(),
			Kind:      domain.KindWebPage,
			OriginURL: target,
			FetchedAt: time.Now().UTC(),
		},
		MIMEType: mediaType,
		Content:  body,
	}}, nil
}
