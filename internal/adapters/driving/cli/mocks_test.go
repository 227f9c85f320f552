package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driving"
)

// execute runs the root command with args and captures output.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)
	rootCmd.SetOut(outBuf)
	rootCmd.SetErr(errBuf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)

		// Flag values persist across Execute calls; reset them so tests
		// stay independent.
		researchMaxSources = 0
		researchEmails = nil
		researchOutFile = ""
		retrieveK = 8
		settingsModel = ""
		settingsAPIKey = ""
		settingsFallback = false
	})

	err = rootCmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

// withServices swaps the injected services for the test's duration.
func withServices(t *testing.T, s Services) {
	t.Helper()
	prevResearch, prevRetrieve := researchService, retrieveService
	prevSessions, prevSettings := sessionService, settingsService
	Configure(s)
	t.Cleanup(func() {
		researchService, retrieveService = prevResearch, prevRetrieve
		sessionService, settingsService = prevSessions, prevSettings
	})
}

type mockResearchService struct {
	outcome *driving.ResearchOutcome
	err     error
	topic   string
	opts    driving.ResearchOptions
}

func (m *mockResearchService) Research(_ context.Context, topic string, opts driving.ResearchOptions) (*driving.ResearchOutcome, error) {
	m.topic = topic
	m.opts = opts
	return m.outcome, m.err
}

type mockRetrieveService struct {
	results []domain.RetrievedPassage
	err     error
}

func (m *mockRetrieveService) Retrieve(_ context.Context, _, _ string, _ domain.RetrieveOptions) ([]domain.RetrievedPassage, error) {
	return m.results, m.err
}

type mockSessionService struct {
	sessions []domain.Session
	turns    []domain.SynthesisTurn
	deleted  string
	err      error
}

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

func (m *mockSessionService) Delete(_ context.Context, id string) error {
	m.deleted = id
	return m.err
}

type mockSettingsService struct {
	settings *domain.Settings
	saved    *domain.Settings
	err      error
}

func (m *mockSettingsService) Get() (*domain.Settings, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.settings == nil {
		defaults := domain.DefaultSettings()
		m.settings = &defaults
	}
	return m.settings, nil
}

func (m *mockSettingsService) Save(settings *domain.Settings) error {
	m.saved = settings
	return m.err
}

func testSession(id, topic string, status domain.SessionStatus) domain.Session {
	now := time.Now().UTC()
	return domain.Session{ID: id, Topic: topic, Status: status, CreatedAt: now, UpdatedAt: now}
}
