package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driven"
)

func TestNewFallbackChain_RequiresProviders(t *testing.T) {
	_, err := NewFallbackChain(testRetryPolicy(3))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFallbackChain_PrimarySucceeds(t *testing.T) {
	primary := newMockProvider("gemini",
		providerReply{completion: &driven.Completion{Text: "hello", TokensUsed: 10}})
	fallback := newMockProvider("openai")

	chain, err := NewFallbackChain(testRetryPolicy(3), primary, fallback)
	require.NoError(t, err)

	completion, result, err := chain.Complete(context.Background(), driven.CompletionRequest{})

	require.NoError(t, err)
	assert.Equal(t, "hello", completion.Text)
	assert.Equal(t, "gemini", result.Provider)
	assert.Equal(t, 0, result.Retries)
	assert.Equal(t, 0, fallback.callCount())
}

func TestFallbackChain_RetriesRateLimitWithoutFallback(t *testing.T) {
	// Rate-limited twice, then a success: the retries are recorded and
	// the fallback provider is never consulted.
	primary := newMockProvider("gemini",
		errReply(domain.ErrProviderRateLimited),
		errReply(domain.ErrProviderRateLimited),
		providerReply{completion: &driven.Completion{Text: "recovered", TokensUsed: 12}},
	)
	fallback := newMockProvider("openai",
		providerReply{completion: &driven.Completion{Text: "unwanted"}})

	chain, err := NewFallbackChain(testRetryPolicy(3), primary, fallback)
	require.NoError(t, err)

	completion, result, err := chain.Complete(context.Background(), driven.CompletionRequest{})

	require.NoError(t, err)
	assert.Equal(t, "recovered", completion.Text)
	assert.Equal(t, "gemini", result.Provider)
	assert.Equal(t, 2, result.Retries)
	assert.Equal(t, 3, primary.callCount())
	assert.Equal(t, 0, fallback.callCount())
}

func TestFallbackChain_FallsBackAfterExhaustion(t *testing.T) {
	primary := newMockProvider("gemini", errReply(domain.ErrProviderUnavailable))
	fallback := newMockProvider("openai",
		providerReply{completion: &driven.Completion{Text: "backup", TokensUsed: 8}})

	chain, err := NewFallbackChain(testRetryPolicy(2), primary, fallback)
	require.NoError(t, err)

	completion, result, err := chain.Complete(context.Background(), driven.CompletionRequest{})

	require.NoError(t, err)
	assert.Equal(t, "backup", completion.Text)
	assert.Equal(t, "openai", result.Provider)
	assert.Equal(t, 2, primary.callCount())
}

func TestFallbackChain_AllProvidersExhausted(t *testing.T) {
	primary := newMockProvider("gemini", errReply(domain.ErrProviderRateLimited))
	fallback := newMockProvider("openai", errReply(domain.ErrProviderUnavailable))

	chain, err := NewFallbackChain(testRetryPolicy(2), primary, fallback)
	require.NoError(t, err)

	_, _, err = chain.Complete(context.Background(), driven.CompletionRequest{})

	assert.ErrorIs(t, err, domain.ErrProvidersExhausted)
	assert.Equal(t, 2, primary.callCount())
	assert.Equal(t, 2, fallback.callCount())
}

func TestFallbackChain_NonRetryableSurfacesImmediately(t *testing.T) {
	primary := newMockProvider("gemini", errReply(domain.ErrInvalidInput))
	fallback := newMockProvider("openai")

	chain, err := NewFallbackChain(testRetryPolicy(3), primary, fallback)
	require.NoError(t, err)

	_, _, err = chain.Complete(context.Background(), driven.CompletionRequest{})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.NotErrorIs(t, err, domain.ErrProvidersExhausted)
	assert.Equal(t, 1, primary.callCount())
	assert.Equal(t, 0, fallback.callCount())
}

func TestFallbackChain_Close(t *testing.T) {
	primary := newMockProvider("gemini")
	fallback := newMockProvider("openai")

	chain, err := NewFallbackChain(testRetryPolicy(1), primary, fallback)
	require.NoError(t, err)

	require.NoError(t, chain.Close())
	assert.True(t, primary.closed)
	assert.True(t, fallback.closed)
}
