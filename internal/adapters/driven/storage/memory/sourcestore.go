package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driven"
)

// Ensure SourceStore implements the interface.
var _ driven.SourceStore = (*SourceStore)(nil)

// SourceStore is an in-memory implementation of driven.SourceStore.
type SourceStore struct {
	mu        sync.RWMutex
	sources   map[string]domain.Source
	sessions  map[string][]string // session ID -> source IDs in fetch order
	documents map[string]domain.Document
}

// NewSourceStore creates a new in-memory source store.
func NewSourceStore() *SourceStore {
	return &SourceStore{
		sources:   make(map[string]domain.Source),
		sessions:  make(map[string][]string),
		documents: make(map[string]domain.Document),
	}
}

// SaveSource stores a fetched source.
func (s *SourceStore) SaveSource(_ context.Context, sessionID string, source *domain.Source) error {
	if source.ID == "" || sessionID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sources[source.ID]; !exists {
		s.sessions[sessionID] = append(s.sessions[sessionID], source.ID)
	}
	s.sources[source.ID] = *source
	return nil
}

// GetSource retrieves a source by ID.
func (s *SourceStore) GetSource(_ context.Context, id string) (*domain.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	source, ok := s.sources[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &source, nil
}

// ListSources returns a session's sources in fetch order.
func (s *SourceStore) ListSources(_ context.Context, sessionID string) ([]domain.Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.sessions[sessionID]
	sources := make([]domain.Source, 0, len(ids))
	for _, id := range ids {
		if source, ok := s.sources[id]; ok {
			sources = append(sources, source)
		}
	}
	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].FetchedAt.Before(sources[j].FetchedAt)
	})
	return sources, nil
}

// SaveDocument stores a normalised document.
func (s *SourceStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	if doc.ID == "" || doc.SessionID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = *doc
	return nil
}

// GetDocument retrieves a document by ID.
func (s *SourceStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// DeleteSession removes a session's sources and documents.
func (s *SourceStore) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.sessions[sessionID] {
		delete(s.sources, id)
	}
	delete(s.sessions, sessionID)
	for id, doc := range s.documents {
		if doc.SessionID == sessionID {
			delete(s.documents, id)
		}
	}
	return nil
}
