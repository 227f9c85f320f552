// Package transcript normalises timed video transcripts into prose.
package transcript

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

// paragraphGapSeconds starts a new paragraph when consecutive segments
// are further apart than this, which usually marks a topic change.
const paragraphGapSeconds = 8.0

// Normaliser joins transcript segments into readable paragraphs.
// Segment timing drives paragraph breaks; the timestamps themselves are
// dropped because they carry no retrieval value.
type Normaliser struct {
	maxChars int
}

// Option configures the transcript normaliser.
type Option func(*Normaliser)

// WithMaxChars bounds document length; longer payloads keep head and
// tail and drop the middle.
func WithMaxChars(n int) Option {
	return func(t *Normaliser) {
		t.maxChars = n
	}
}

// New creates a new transcript normaliser.
func New(opts ...Option) *Normaliser {
	n := &Normaliser{}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/vtt", "application/x-transcript"}
}

// SupportedSourceKinds returns source kinds for specialised handling.
func (n *Normaliser) SupportedSourceKinds() []domain.SourceKind {
	return []domain.SourceKind{domain.KindTranscript}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 90 // Kind-specific normaliser
}

// Normalise joins the payload's segments into a document.
func (n *Normaliser) Normalise(_ context.Context, raw *driven.RawPayload) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content := joinSegments(raw.Segments)
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

// joinSegments concatenates segment text, starting a new paragraph at
// large timing gaps.
func joinSegments(segments []driven.TranscriptSegment) string {
	var b strings.Builder
	prevEnd := -1.0

	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}

		if b.Len() > 0 {
			if prevEnd >= 0 && seg.StartSeconds-prevEnd > paragraphGapSeconds {
				b.WriteString("\n\n")
			} else {
				b.WriteString(" ")
			}
		}
		b.WriteString(text)
		prevEnd = seg.StartSeconds
	}

	return b.String()
}
