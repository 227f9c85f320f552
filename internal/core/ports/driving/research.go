package driving

import (
	"context"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
)

// ResearchOptions configures one research run.
type ResearchOptions struct {
	// MaxSources overrides the configured gather cap when positive.
	MaxSources int

	// Recipients receive the rendered report by email when non-empty.
	Recipients []string
}

// ResearchOutcome is the result of a completed research run.
type ResearchOutcome struct {
	// Session is the final session state.
	Session *domain.Session

	// Report is the assembled report; nil when the session failed.
	Report *domain.Report

	// Rendered is the rendered document. When rendering failed this
	// holds the canonical Markdown instead.
	Rendered []byte

	// RenderError records a rendering failure. Rendering failures do
	// not fail the session; the Markdown fallback is used instead.
	RenderError error

	// DeliveryError records a delivery failure. Delivery failures do
	// not fail the session; the report is still retained.
	DeliveryError error
}

// ResearchService runs the end-to-end research pipeline.
type ResearchService interface {
	// Research gathers, indexes, synthesizes and assembles a report for
	// the topic. Returns domain.ErrSessionFailed when every provider is
	// exhausted or no answer is produced within budget.
	Research(ctx context.Context, topic string, opts ResearchOptions) (*ResearchOutcome, error)
}

// RetrieveService exposes session-scoped similarity retrieval.
type RetrieveService interface {
	// Retrieve returns the most relevant passages for a query within a
	// session. Returning fewer than K results is not an error.
	Retrieve(ctx context.Context, sessionID, query string, opts domain.RetrieveOptions) ([]domain.RetrievedPassage, error)
}

// SessionService manages stored sessions.
type SessionService interface {
	// Get returns a session by ID.
	Get(ctx context.Context, id string) (*domain.Session, error)

	// List returns all sessions, newest first.
	List(ctx context.Context) ([]domain.Session, error)

	// Turns returns a session's synthesis turns in order.
	Turns(ctx context.Context, id string) ([]domain.SynthesisTurn, error)

	// Delete tears down a session: its passages, sources, documents and
	// turns are removed.
	Delete(ctx context.Context, id string) error
}
