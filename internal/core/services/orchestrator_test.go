package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/inquest-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/inquest-cli/internal/core/domain"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driven"
)

// orchestratorHarness wires a full synthesis loop over in-memory
// stores, with a scripted provider driving the turns.
type orchestratorHarness struct {
	orchestrator *Orchestrator
	sessions     *memory.SessionStore
	sources      *memory.SourceStore
	vectors      *memory.VectorStore
	session      *domain.Session
}

func defaultSynthesisSettings() domain.SynthesisSettings {
	return domain.SynthesisSettings{
		MaxTurns:      8,
		TokenBudget:   60000,
		ContextTokens: 8000,
		RetrievalK:    8,
		MaxPerSource:  2,
		Language:      "english",
	}
}

func newOrchestratorHarness(t *testing.T, settings domain.SynthesisSettings, providers ...driven.ModelProvider) *orchestratorHarness {
	t.Helper()

	h := &orchestratorHarness{
		sessions: memory.NewSessionStore(),
		sources:  memory.NewSourceStore(),
		vectors:  memory.NewVectorStore(),
	}

	gather := NewGatherService(
		newMockNormalisers(),
		&mockPipeline{},
		newMockEmbedder(),
		h.sources,
		h.vectors,
		testRetryPolicy(3),
		defaultGatherSettings(),
	)
	gather.RegisterAdapter(&mockAdapter{
		kind: domain.KindSearchResult,
		payloads: []driven.RawPayload{
			textPayload("Scheduler Design", "https://example.com/sched", "Goroutines are multiplexed onto threads."),
		},
	})

	retriever := NewRetrieverService(newMockEmbedder(), h.vectors, h.sources, testRetryPolicy(3), settings)

	chain, err := NewFallbackChain(testRetryPolicy(3), providers...)
	require.NoError(t, err)

	h.orchestrator = NewOrchestrator(chain, gather, retriever, h.sessions, h.sources, settings)

	now := time.Now().UTC()
	h.session = &domain.Session{
		ID:        "sess-1",
		Topic:     "go scheduling",
		Status:    domain.StatusSynthesizing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, h.sessions.SaveSession(context.Background(), h.session))
	return h
}

func TestOrchestrator_SearchThenAnswer(t *testing.T) {
	provider := newMockProvider("gemini",
		toolReply("search", map[string]any{"query": "go scheduler"}, 100),
		answerReply("## Summary\n\nGoroutines are cheap [S1].", 200),
	)
	h := newOrchestratorHarness(t, defaultSynthesisSettings(), provider)

	answer, err := h.orchestrator.Run(context.Background(), h.session)

	require.NoError(t, err)
	assert.Contains(t, answer, "Goroutines are cheap")

	turns, err := h.sessions.ListTurns(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, turns, 2)

	assert.Equal(t, domain.ActionSearch, turns[0].Action.Type)
	assert.Equal(t, "go scheduler", turns[0].Action.Query)
	assert.Contains(t, turns[0].ToolResult, "indexed 1 sources")
	assert.Equal(t, 100, turns[0].TokensUsed)

	assert.Equal(t, domain.ActionAnswer, turns[1].Action.Type)
	assert.Equal(t, 200, turns[1].TokensUsed)
}

func TestOrchestrator_RetrieveCarriesSourceMarkers(t *testing.T) {
	provider := newMockProvider("gemini",
		toolReply("search", map[string]any{"query": "go scheduler"}, 50),
		toolReply("retrieve", map[string]any{"query": "goroutines"}, 50),
		answerReply("## Summary\n\nMultiplexed [S1].", 50),
	)
	h := newOrchestratorHarness(t, defaultSynthesisSettings(), provider)

	_, err := h.orchestrator.Run(context.Background(), h.session)
	require.NoError(t, err)

	turns, err := h.sessions.ListTurns(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Contains(t, turns[1].ToolResult, "[S1]")
	assert.Contains(t, turns[1].ToolResult, "multiplexed onto threads")
}

func TestOrchestrator_PlainTextReplyIsAnswer(t *testing.T) {
	provider := newMockProvider("gemini",
		providerReply{completion: &driven.Completion{Text: "## Summary\n\nDirect answer.", TokensUsed: 80}},
	)
	h := newOrchestratorHarness(t, defaultSynthesisSettings(), provider)

	answer, err := h.orchestrator.Run(context.Background(), h.session)

	require.NoError(t, err)
	assert.Contains(t, answer, "Direct answer")
}

func TestOrchestrator_InvalidActionFedBack(t *testing.T) {
	provider := newMockProvider("gemini",
		toolReply("search", map[string]any{}, 10),
		answerReply("## Summary\n\nRecovered.", 10),
	)
	h := newOrchestratorHarness(t, defaultSynthesisSettings(), provider)

	answer, err := h.orchestrator.Run(context.Background(), h.session)

	require.NoError(t, err)
	assert.Contains(t, answer, "Recovered")

	turns, err := h.sessions.ListTurns(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Contains(t, turns[0].ToolResult, "invalid action")
}

func TestOrchestrator_TurnBudgetExhausted(t *testing.T) {
	settings := defaultSynthesisSettings()
	settings.MaxTurns = 3

	provider := newMockProvider("gemini",
		toolReply("search", map[string]any{"query": "endless"}, 10),
	)
	h := newOrchestratorHarness(t, settings, provider)

	_, err := h.orchestrator.Run(context.Background(), h.session)

	assert.ErrorIs(t, err, domain.ErrSessionFailed)

	turns, listErr := h.sessions.ListTurns(context.Background(), "sess-1")
	require.NoError(t, listErr)
	assert.Len(t, turns, 3)
}

func TestOrchestrator_TokenBudgetExhausted(t *testing.T) {
	settings := defaultSynthesisSettings()
	settings.TokenBudget = 150

	provider := newMockProvider("gemini",
		toolReply("search", map[string]any{"query": "wide"}, 100),
	)
	h := newOrchestratorHarness(t, settings, provider)

	_, err := h.orchestrator.Run(context.Background(), h.session)

	assert.ErrorIs(t, err, domain.ErrSessionFailed)

	// The second turn crosses the budget; the loop stops there.
	turns, listErr := h.sessions.ListTurns(context.Background(), "sess-1")
	require.NoError(t, listErr)
	assert.Len(t, turns, 2)
}

func TestOrchestrator_ProvidersExhausted(t *testing.T) {
	primary := newMockProvider("gemini", errReply(domain.ErrProviderUnavailable))
	fallback := newMockProvider("openai", errReply(domain.ErrProviderRateLimited))
	h := newOrchestratorHarness(t, defaultSynthesisSettings(), primary, fallback)

	_, err := h.orchestrator.Run(context.Background(), h.session)

	assert.ErrorIs(t, err, domain.ErrProvidersExhausted)

	turns, listErr := h.sessions.ListTurns(context.Background(), "sess-1")
	require.NoError(t, listErr)
	assert.Empty(t, turns)
}

func TestOrchestrator_RecordsRetries(t *testing.T) {
	provider := newMockProvider("gemini",
		errReply(domain.ErrProviderRateLimited),
		errReply(domain.ErrProviderRateLimited),
		answerReply("## Summary\n\nEventually.", 40),
	)
	h := newOrchestratorHarness(t, defaultSynthesisSettings(), provider)

	_, err := h.orchestrator.Run(context.Background(), h.session)
	require.NoError(t, err)

	turns, listErr := h.sessions.ListTurns(context.Background(), "sess-1")
	require.NoError(t, listErr)
	require.Len(t, turns, 1)
	assert.Equal(t, 2, turns[0].Retries)
}

func TestOrchestrator_ContextTrimsOldestTurns(t *testing.T) {
	settings := defaultSynthesisSettings()
	settings.ContextTokens = 20 // 80 characters

	orchestrator := &Orchestrator{settings: settings}

	turns := []domain.SynthesisTurn{
		{Action: domain.Action{Type: domain.ActionSearch, Query: "first"}, ToolResult: "old result"},
		{Action: domain.Action{Type: domain.ActionRetrieve, Query: "second"}, ToolResult: "recent result"},
	}

	messages := orchestrator.assembleContext("topic", turns)

	// The opening topic message survives, the oldest exchange is cut
	// before the newest.
	require.NotEmpty(t, messages)
	assert.Equal(t, "Research topic: topic", messages[0].Content)
	last := messages[len(messages)-1]
	assert.Contains(t, last.Content, "recent result")
	for _, msg := range messages {
		assert.NotContains(t, msg.Content, "old result")
	}
}
