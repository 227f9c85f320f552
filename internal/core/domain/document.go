package domain

import "time"

// Document is the normalised text produced from one Source.
// It is created by a Normaliser and never mutated afterwards.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// SourceID links to the Source that produced this document.
	SourceID string

	// SessionID links to the owning research session.
	SessionID string

	// Title is the human-readable title.
	Title string

	// Content is the full Markdown/plain text after normalisation,
	// before chunking.
	Content string

	// Language is the BCP 47 language tag of the content, best effort.
	Language string

	// Truncated records whether the payload exceeded the configured
	// maximum and had its middle dropped.
	Truncated bool

	// CreatedAt is when the document was normalised.
	CreatedAt time.Time
}

// Passage is a retrievable unit of text with an embedding vector.
// Passages are owned by the vector store for the lifetime of their
// session and are garbage-collected when the session ends.
type Passage struct {
	// ID is the unique identifier for the passage.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// SessionID scopes the passage to one research session.
	SessionID string

	// Text is the passage content.
	Text string

	// Start and End are the character span within the document content.
	// Spans may overlap across neighbouring passages for continuity.
	Start int
	End   int

	// Position is the ordinal index within the document.
	Position int

	// Embedding is the vector representation. Computed exactly once;
	// a passage with a nil embedding was dropped before indexing.
	Embedding []float32

	// FetchedAt is copied from the originating Source. Used to break
	// score ties in favour of fresher evidence.
	FetchedAt time.Time
}
