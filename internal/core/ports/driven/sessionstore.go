package driven

import (
	"context"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
)

// SessionStore persists sessions and their synthesis turns.
type SessionStore interface {
	// SaveSession stores or updates a session.
	SaveSession(ctx context.Context, session *domain.Session) error

	// GetSession retrieves a session by ID.
	GetSession(ctx context.Context, id string) (*domain.Session, error)

	// ListSessions returns all sessions, newest first.
	ListSessions(ctx context.Context) ([]domain.Session, error)

	// AppendTurn appends a synthesis turn to a session's audit trail.
	// Turns are append-only; there is no update or delete.
	AppendTurn(ctx context.Context, turn *domain.SynthesisTurn) error

	// ListTurns returns a session's turns in index order.
	ListTurns(ctx context.Context, sessionID string) ([]domain.SynthesisTurn, error)

	// DeleteSession removes a session and its turns.
	DeleteSession(ctx context.Context, id string) error
}

// SourceStore persists sources and documents for a session.
type SourceStore interface {
	// SaveSource stores a fetched source.
	SaveSource(ctx context.Context, sessionID string, source *domain.Source) error

	// GetSource retrieves a source by ID.
	GetSource(ctx context.Context, id string) (*domain.Source, error)

	// ListSources returns a session's sources in fetch order.
	ListSources(ctx context.Context, sessionID string) ([]domain.Source, error)

	// SaveDocument stores a normalised document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// DeleteSession removes a session's sources and documents.
	DeleteSession(ctx context.Context, sessionID string) error
}
