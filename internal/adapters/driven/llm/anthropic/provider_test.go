package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driven"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	provider, err := New(Config{APIKey: "sk-ant-test", BaseURL: srv.URL})
	require.NoError(t, err)
	return provider
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestName(t *testing.T) {
	provider, err := New(Config{APIKey: "sk-ant-test"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", provider.Name())
}

func TestComplete_TextReply(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "system prompt", req.System)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"content": [{"type": "text", "text": "the answer"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 12, "output_tokens": 8}
		}`))
	})

	completion, err := provider.Complete(context.Background(), driven.CompletionRequest{
		System:   "system prompt",
		Messages: []driven.ChatMessage{{Role: "user", Content: "question"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "the answer", completion.Text)
	assert.Empty(t, completion.ToolCalls)
	assert.Equal(t, 20, completion.TokensUsed)
}

func TestComplete_ToolCall(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var req messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Tools, 1)
		assert.Equal(t, "search", req.Tools[0].Name)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"content": [
				{"type": "text", "text": "let me look"},
				{"type": "tool_use", "name": "search", "input": {"query": "golang"}}
			],
			"stop_reason": "tool_use",
			"usage": {"input_tokens": 30, "output_tokens": 10}
		}`))
	})

	completion, err := provider.Complete(context.Background(), driven.CompletionRequest{
		Messages: []driven.ChatMessage{{Role: "user", Content: "find docs"}},
		Tools: []driven.ToolDefinition{{
			Name:        "search",
			Description: "web search",
			Parameters:  map[string]any{"type": "object"},
		}},
	})

	require.NoError(t, err)
	assert.Equal(t, "let me look", completion.Text)
	require.Len(t, completion.ToolCalls, 1)
	assert.Equal(t, "search", completion.ToolCalls[0].Name)
	assert.Equal(t, "golang", completion.ToolCalls[0].Arguments["query"])
}

func TestComplete_RateLimited(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"type": "rate_limit_error", "message": "slow down"}}`))
	})

	_, err := provider.Complete(context.Background(), driven.CompletionRequest{
		Messages: []driven.ChatMessage{{Role: "user", Content: "q"}},
	})

	assert.ErrorIs(t, err, domain.ErrProviderRateLimited)
}

func TestComplete_ServerError(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := provider.Complete(context.Background(), driven.CompletionRequest{
		Messages: []driven.ChatMessage{{Role: "user", Content: "q"}},
	})

	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestComplete_DefaultsMaxTokens(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var req messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 1024, req.MaxTokens)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content": [{"type": "text", "text": "ok"}], "usage": {}}`))
	})

	_, err := provider.Complete(context.Background(), driven.CompletionRequest{
		Messages: []driven.ChatMessage{{Role: "user", Content: "q"}},
	})
	require.NoError(t, err)
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.ModelProvider = (*Provider)(nil)
}
