package memory

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is an in-memory implementation of driven.VectorStore.
// Queries are a brute-force cosine scan over the session's passages.
type VectorStore struct {
	mu       sync.RWMutex
	passages map[string]domain.Passage
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		passages: make(map[string]domain.Passage),
	}
}

// Upsert stores a batch of passages atomically.
func (s *VectorStore) Upsert(_ context.Context, passages []domain.Passage) error {
	for _, passage := range passages {
		if passage.ID == "" || passage.SessionID == "" {
			return domain.ErrInvalidInput
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, passage := range passages {
		s.passages[passage.ID] = passage
	}
	return nil
}

// Query returns the k nearest passages in the session, best similarity
// first. Score ties break by most recent FetchedAt.
func (s *VectorStore) Query(_ context.Context, sessionID string, query []float32, k int) ([]domain.RetrievalResult, error) {
	if len(query) == 0 {
		return nil, domain.ErrInvalidInput
	}
	if k <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		id        string
		score     float64
		fetchedAt time.Time
	}

	var candidates []scored
	for _, passage := range s.passages {
		if passage.SessionID != sessionID || len(passage.Embedding) != len(query) {
			continue
		}
		candidates = append(candidates, scored{
			id:        passage.ID,
			score:     cosine(query, passage.Embedding),
			fetchedAt: passage.FetchedAt,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].fetchedAt.After(candidates[j].fetchedAt)
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}

	results := make([]domain.RetrievalResult, len(candidates))
	for i, c := range candidates {
		results[i] = domain.RetrievalResult{PassageID: c.id, Score: c.score, Rank: i}
	}
	return results, nil
}

// GetPassage retrieves a passage by ID.
func (s *VectorStore) GetPassage(_ context.Context, id string) (*domain.Passage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	passage, ok := s.passages[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &passage, nil
}

// CountPassages returns how many passages a session holds.
func (s *VectorStore) CountPassages(_ context.Context, sessionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, passage := range s.passages {
		if passage.SessionID == sessionID {
			count++
		}
	}
	return count, nil
}

// DeleteSession removes every passage belonging to a session.
func (s *VectorStore) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, passage := range s.passages {
		if passage.SessionID == sessionID {
			delete(s.passages, id)
		}
	}
	return nil
}

// Close releases resources.
func (s *VectorStore) Close() error {
	return nil
}

// cosine computes cosine similarity clamped to [0, 1].
func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Min(1, math.Max(0, score))
}
