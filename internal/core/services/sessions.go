package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driving"
	"github.com/custodia-labs/inquest-cli/internal/logger"
)

// Ensure SessionManager implements the interface.
var _ driving.SessionService = (*SessionManager)(nil)

// SessionManager exposes stored sessions for inspection and teardown.
type SessionManager struct {
	sessions driven.SessionStore
	sources  driven.SourceStore
	vectors  driven.VectorStore
}

// NewSessionManager creates a session manager.
func NewSessionManager(
	sessions driven.SessionStore,
	sources driven.SourceStore,
	vectors driven.VectorStore,
) *SessionManager {
	return &SessionManager{
		sessions: sessions,
		sources:  sources,
		vectors:  vectors,
	}
}

// Get returns a session by ID.
func (m *SessionManager) Get(ctx context.Context, id string) (*domain.Session, error) {
	return m.sessions.GetSession(ctx, id)
}

// List returns all sessions, newest first.
func (m *SessionManager) List(ctx context.Context) ([]domain.Session, error) {
	return m.sessions.ListSessions(ctx)
}

// Turns returns a session's synthesis turns in order.
func (m *SessionManager) Turns(ctx context.Context, id string) ([]domain.SynthesisTurn, error) {
	if _, err := m.sessions.GetSession(ctx, id); err != nil {
		return nil, err
	}
	return m.sessions.ListTurns(ctx, id)
}

// Delete tears a session down across every store: passages first, then
// sources and documents, then the session and its turns. Order matters
// only for debuggability; each store scopes deletion by session ID.
func (m *SessionManager) Delete(ctx context.Context, id string) error {
	if _, err := m.sessions.GetSession(ctx, id); err != nil {
		return err
	}

	if err := m.vectors.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("deleting passages: %w", err)
	}
	if err := m.sources.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("deleting sources: %w", err)
	}
	if err := m.sessions.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}

	logger.Info("Deleted session %s", id)
	return nil
}
