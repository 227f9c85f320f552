package mcp

import (
	"context"
	"time"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driving"
)

type mockResearchService struct {
	outcome *driving.ResearchOutcome
	err     error
	topic   string
	opts    driving.ResearchOptions
}

var _ driving.ResearchService = (*mockResearchService)(nil)

func (m *mockResearchService) Research(_ context.Context, topic string, opts driving.ResearchOptions) (*driving.ResearchOutcome, error) {
	m.topic = topic
	m.opts = opts
	return m.outcome, m.err
}

type mockRetrieveService struct {
	results []domain.RetrievedPassage
	err     error
	query   string
	opts    domain.RetrieveOptions
}

var _ driving.RetrieveService = (*mockRetrieveService)(nil)

func (m *mockRetrieveService) Retrieve(_ context.Context, _ string, query string, opts domain.RetrieveOptions) ([]domain.RetrievedPassage, error) {
	m.query = query
	m.opts = opts
	return m.results, m.err
}

type mockSessionService struct {
	sessions []domain.Session
	turns    []domain.SynthesisTurn
	err      error
}

var _ driving.SessionService = (*mockSessionService)(nil)

func (m *mockSessionService) Get(_ context.Context, id string) (*domain.Session, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.sessions {
		if m.sessions[i].ID == id {
			return &m.sessions[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockSessionService) List(_ context.Context) ([]domain.Session, error) {
	return m.sessions, m.err
}

func (m *mockSessionService) Turns(_ context.Context, _ string) ([]domain.SynthesisTurn, error) {
	return m.turns, m.err
}

func (m *mockSessionService) Delete(_ context.Context, _ string) error {
	return m.err
}

func testSession(id, topic string) domain.Session {
	now := time.Now().UTC()
	return domain.Session{
		ID: id, Topic: topic, Status: domain.StatusDone,
		CreatedAt: now, UpdatedAt: now,
	}
}
