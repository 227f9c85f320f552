// Package chunker provides a sentence-aware text chunking processor.
package chunker

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// DefaultSentenceSlack is how far a chunk end may retreat to land on a
// sentence boundary before giving up and cutting mid-sentence.
const DefaultSentenceSlack = 120

// Processor splits document content into overlapping passages. Each
// window preferentially ends on a sentence boundary so passages read as
// complete thoughts, which embeds and retrieves better than hard cuts.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
	slack     int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// WithSentenceSlack sets how far a chunk end may move back to reach a
// sentence boundary.
func WithSentenceSlack(slack int) Option {
	return func(p *Processor) {
		if slack >= 0 {
			p.slack = slack
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
		slack:     DefaultSentenceSlack,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}
	if p.slack >= p.chunkSize {
		p.slack = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document content into passages. Input passages are
// ignored; this processor creates new passages from document content.
// Start/End record the character span of each passage within the
// document so citations can point back into the original text.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Passage) ([]domain.Passage, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}
	if strings.TrimSpace(doc.Content) == "" {
		// Empty content produces no passages
		return nil, nil
	}

	content := doc.Content
	contentLen := len(content)

	estimated := (contentLen / (p.chunkSize - p.overlap)) + 1
	passages := make([]domain.Passage, 0, estimated)

	position := 0
	start := 0

	for start < contentLen {
		end := start + p.chunkSize
		if end >= contentLen {
			end = contentLen
		} else if boundary := sentenceBoundary(content, start, end, p.slack); boundary > start {
			end = boundary
		} else if floor := runeFloor(content, end); floor > start {
			// A hard cut must not split a multi-byte rune.
			end = floor
		}

		text := strings.TrimSpace(content[start:end])
		if text != "" {
			passages = append(passages, domain.Passage{
				ID:         uuid.New().String(),
				DocumentID: doc.ID,
				SessionID:  doc.SessionID,
				Text:       text,
				Start:      start,
				End:        end,
				Position:   position,
			})
			position++
		}

		if end >= contentLen {
			break
		}

		next := runeFloor(content, end-p.overlap)
		if next <= start {
			// Overlap would stall the window; fall back to a hard step.
			next = end
		}
		start = next
	}

	return passages, nil
}

// runeFloor backs i off to the nearest rune start at or before it.
func runeFloor(s string, i int) int {
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

// sentenceBoundary finds the last sentence end in (end-slack, end],
// returning the index just past the terminator, or 0 when none exists
// within the slack window.
func sentenceBoundary(content string, start, end, slack int) int {
	floor := end - slack
	if floor < start {
		floor = start
	}

	for i := end - 1; i > floor; i-- {
		switch content[i] {
		case '\n':
			return i + 1
		case '.', '!', '?':
			// Terminator must be followed by whitespace to avoid
			// splitting on decimals and abbreviations like "e.g".
			if i+1 < len(content) && (content[i+1] == ' ' || content[i+1] == '\n') {
				return i + 1
			}
		}
	}
	return 0
}
