package driven

import (
	"context"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
)

// VectorStore persists passages with their embeddings and answers
// nearest-neighbour queries by cosine similarity.
//
// Queries are always scoped to a session; returning passages from
// another session is a defect, not a feature. Writers are append-only,
// and upserts are atomic: a batch either commits fully or not at all,
// so cancellation never leaves the store inconsistent. Reads are
// snapshot-consistent with respect to concurrent upserts.
type VectorStore interface {
	// Upsert stores a batch of passages atomically.
	Upsert(ctx context.Context, passages []domain.Passage) error

	// Query returns the k nearest passages in the session, best
	// similarity first. Score ties break by most recent FetchedAt.
	Query(ctx context.Context, sessionID string, query []float32, k int) ([]domain.RetrievalResult, error)

	// GetPassage retrieves a passage by ID.
	GetPassage(ctx context.Context, id string) (*domain.Passage, error)

	// CountPassages returns how many passages a session holds.
	CountPassages(ctx context.Context, sessionID string) (int, error)

	// DeleteSession removes every passage belonging to a session.
	DeleteSession(ctx context.Context, sessionID string) error

	// Close releases resources.
	Close() error
}
