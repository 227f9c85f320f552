// Package plaintext is the fallback normaliser for text payloads.
package plaintext

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/inquest-cli/internal/normalisers/truncate"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents.
type Normaliser struct {
	maxChars int
}

// Option configures the plain text normaliser.
type Option func(*Normaliser)

// WithMaxChars bounds document length; longer payloads keep head and
// tail and drop the middle.
func WithMaxChars(n int) Option {
	return func(p *Normaliser) {
		p.maxChars = n
	}
}

// New creates a new plain text normaliser.
func New(opts ...Option) *Normaliser {
	n := &Normaliser{}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/markdown",
		"text/csv",
		"application/json",
	}
}

// SupportedSourceKinds returns source kinds for specialised handling.
func (n *Normaliser) SupportedSourceKinds() []domain.SourceKind {
	return nil // All kinds
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Normalise converts a raw payload to a document. The content passes
// through with line endings unified and trailing whitespace removed.
func (n *Normaliser) Normalise(_ context.Context, raw *driven.RawPayload) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content := cleanText(string(raw.Content))
	if content == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrNormalization, raw.Source.OriginURL)
	}

	content, truncated := truncate.Middle(content, n.maxChars)

	doc := domain.Document{
		ID:        uuid.New().String(),
		SourceID:  raw.Source.ID,
		Title:     raw.Source.DisplayName(),
		Content:   content,
		Language:  raw.Language,
		Truncated: truncated,
		CreatedAt: time.Now().UTC(),
	}

	return &driven.NormaliseResult{Document: doc}, nil
}

// cleanText unifies line endings and trims trailing whitespace per line.
func cleanText(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
