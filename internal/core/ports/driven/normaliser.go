package driven

import (
	"context"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
)

// Normaliser transforms raw payloads into documents.
// Each normaliser handles specific MIME types (e.g. HTML, PDF text).
// Normalisation is a pure function of its input: the same payload always
// yields the same document text.
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// SupportedSourceKinds returns source kinds for specialised handling.
	// Empty slice means all kinds.
	SupportedSourceKinds() []domain.SourceKind

	// Priority returns the selection priority (higher = preferred).
	// Kind-specific normalisers should return 90-100.
	// Generic MIME normalisers should return 50-89.
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise transforms a raw payload into a document. Returns
	// domain.ErrNormalization when cleaning leaves no text; callers
	// treat that as a non-fatal skip of the source.
	Normalise(ctx context.Context, raw *RawPayload) (*NormaliseResult, error)
}

// NormaliseResult contains the output of normalisation.
// Chunking is handled by the PostProcessor pipeline, not here.
type NormaliseResult struct {
	// Document is the normalised document with Content populated.
	Document domain.Document
}
