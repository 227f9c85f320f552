// Package memory provides in-memory implementations of the storage
// ports. They are used by tests and as a fallback when no database
// directory is available.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driven"
)

// Ensure SessionStore implements the interface.
var _ driven.SessionStore = (*SessionStore)(nil)

// SessionStore is an in-memory implementation of driven.SessionStore.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
	turns    map[string][]domain.SynthesisTurn
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]domain.Session),
		turns:    make(map[string][]domain.SynthesisTurn),
	}
}

// SaveSession stores or updates a session.
func (s *SessionStore) SaveSession(_ context.Context, session *domain.Session) error {
	if session.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = *session
	return nil
}

// GetSession retrieves a session by ID.
func (s *SessionStore) GetSession(_ context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &session, nil
}

// ListSessions returns all sessions, newest first.
func (s *SessionStore) ListSessions(_ context.Context) ([]domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sessions := make([]domain.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions, nil
}

// AppendTurn appends a synthesis turn to a session's audit trail.
func (s *SessionStore) AppendTurn(_ context.Context, turn *domain.SynthesisTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[turn.SessionID] = append(s.turns[turn.SessionID], *turn)
	return nil
}

// ListTurns returns a session's turns in index order.
func (s *SessionStore) ListTurns(_ context.Context, sessionID string) ([]domain.SynthesisTurn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := make([]domain.SynthesisTurn, len(s.turns[sessionID]))
	copy(turns, s.turns[sessionID])
	sort.Slice(turns, func(i, j int) bool {
		return turns[i].Index < turns[j].Index
	})
	return turns, nil
}

// DeleteSession removes a session and its turns.
func (s *SessionStore) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	delete(s.turns, id)
	return nil
}
