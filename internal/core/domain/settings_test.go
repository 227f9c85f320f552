package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() Settings {
	s := DefaultSettings()
	s.Providers = []ProviderSettings{
		{Provider: ModelProviderGemini, APIKey: "key"},
		{Provider: ModelProviderOpenAI, APIKey: "key"},
	}
	return s
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, EmbeddingProviderGemini, s.Embedding)
	assert.Positive(t, s.Gather.MaxSources)
	assert.Positive(t, s.Synthesis.MaxTurns)
	assert.Less(t, s.Index.ChunkOverlap, s.Index.ChunkSize)
}

func TestSettings_Validate(t *testing.T) {
	s := validSettings()
	require.NoError(t, s.Validate())
}

func TestSettings_Validate_NoProviders(t *testing.T) {
	s := DefaultSettings()
	assert.ErrorIs(t, s.Validate(), ErrInvalidInput)
}

func TestSettings_Validate_UnknownProvider(t *testing.T) {
	s := validSettings()
	s.Providers = append(s.Providers, ProviderSettings{Provider: "mistral"})
	assert.ErrorIs(t, s.Validate(), ErrUnsupportedType)
}

func TestSettings_Validate_OverlapTooLarge(t *testing.T) {
	s := validSettings()
	s.Index.ChunkOverlap = s.Index.ChunkSize
	assert.ErrorIs(t, s.Validate(), ErrInvalidInput)
}

func TestModelProvider_IsValid(t *testing.T) {
	assert.True(t, ModelProviderGemini.IsValid())
	assert.True(t, ModelProviderOpenAI.IsValid())
	assert.True(t, ModelProviderAnthropic.IsValid())
	assert.False(t, ModelProvider("llama").IsValid())
}

func TestEmbeddingProvider_IsValid(t *testing.T) {
	assert.True(t, EmbeddingProviderGemini.IsValid())
	assert.True(t, EmbeddingProviderOllama.IsValid())
	assert.False(t, EmbeddingProvider("cohere").IsValid())
}
