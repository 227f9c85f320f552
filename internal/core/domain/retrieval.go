package domain

// RetrievalResult is a single similarity hit against the vector store.
// Results are ephemeral: recomputed per query, never persisted.
type RetrievalResult struct {
	// PassageID is the matched passage.
	PassageID string

	// Score is the cosine similarity in [0, 1], best first.
	Score float64

	// Rank is the position in the result list, starting at 0.
	Rank int
}

// RetrieveOptions configures a retrieval query.
type RetrieveOptions struct {
	// K is the maximum number of passages to return.
	K int

	// DedupBySource caps how many passages may originate from the same
	// source, so one verbose page cannot dominate the context window.
	DedupBySource bool

	// MaxPerSource is the per-source cap applied when DedupBySource is
	// set. Zero means the configured default.
	MaxPerSource int
}

// RetrievedPassage pairs a passage with its retrieval score.
type RetrievedPassage struct {
	// Passage is the matched passage, hydrated from the store.
	Passage Passage

	// SourceID is the source the passage traces back to.
	SourceID string

	// Score is the cosine similarity in [0, 1].
	Score float64
}
