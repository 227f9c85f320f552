// Package pdffile downloads PDF documents given directly by URL.
package pdffile

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/inquest-cli/internal/connectors"
	"github.com/custodia-labs/inquest-cli/internal/core/domain"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driven"
)

// Ensure Adapter implements the interface.
var _ driven.SourceAdapter = (*Adapter)(nil)

// pdfMagic is the required signature at the start of a PDF file.
var pdfMagic = []byte("%PDF-")

// Adapter downloads a PDF and verifies it actually is one before
// handing it to normalisation. Servers routinely mislabel PDFs, so the
// magic bytes are checked rather than the Content-Type header.
type Adapter struct {
	fetcher *connectors.Fetcher
}

// New creates a PDF adapter.
func New(fetcher *connectors.Fetcher) *Adapter {
	return &Adapter{fetcher: fetcher}
}

// Kind returns the source kind this adapter produces.
func (a *Adapter) Kind() domain.SourceKind {
	return domain.KindPDF
}

// Fetch downloads the document at target and returns a single payload.
func (a *Adapter) Fetch(ctx context.Context, target string) ([]driven.RawPayload, error) {
	if target == "" {
		return nil, fmt.Errorf("%w: empty pdf url", domain.ErrInvalidInput)
	}

	body, _, err := a.fetcher.Get(ctx, target)
	if err != nil {
		return nil, err
	}

	if !bytes.HasPrefix(body, pdfMagic) {
		return nil, fmt.Errorf("%w: %s is not a pdf", domain.ErrSourceFormat, target)
	}

	return []driven.RawPayload{{
		Source: domain.Source{
			ID:        uuid.New().String(),
			Kind:      domain.KindPDF,
			OriginURL: target,
			FetchedAt: time.Now().UTC(),
		},
		MIMEType: "application/pdf",
		Content:  body,
	}}, nil
}
