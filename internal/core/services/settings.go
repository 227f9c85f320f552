package services

import (
	"fmt"
	"os"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyLLMPrimary        = "llm.primary"
	keyLLMPrimaryModel   = "llm.primary_model"
	keyLLMPrimaryAPIKey  = "llm.primary_api_key"
	keyLLMFallback       = "llm.fallback"
	keyLLMFallbackModel  = "llm.fallback_model"
	keyLLMFallbackAPIKey = "llm.fallback_api_key"

	keyEmbedProvider = "embedding.provider"
	keyEmbedModel    = "embedding.model"
	keyEmbedAPIKey   = "embedding.api_key"

	keySearchAPIKey   = "search.api_key"
	keySearchEngineID = "search.engine_id"

	keyEmailFrom   = "email.from"
	keyEmailAPIKey = "email.api_key"

	keyGatherMaxSources   = "gather.max_sources"
	keyGatherMaxResults   = "gather.max_search_results"
	keyGatherConcurrency  = "gather.concurrency"
	keyGatherFetchTimeout = "gather.fetch_timeout_seconds"
	keyGatherMaxDocChars  = "gather.max_document_chars"

	keyIndexChunkSize     = "index.chunk_size"
	keyIndexChunkOverlap  = "index.chunk_overlap"
	keyIndexSentenceSlack = "index.sentence_slack"
	keyIndexEmbedAttempts = "index.embed_max_attempts"

	keySynthMaxTurns      = "synthesis.max_turns"
	keySynthTokenBudget   = "synthesis.token_budget"
	keySynthContextTokens = "synthesis.context_tokens"
	keySynthRetrievalK    = "synthesis.retrieval_k"
	keySynthMaxPerSource  = "synthesis.max_per_source"
	keySynthLanguage      = "synthesis.language"

	keyRetryMaxAttempts = "retry.max_attempts"
	keyRetryBaseDelay   = "retry.base_delay_millis"
	keyRetryMaxDelay    = "retry.max_delay_millis"
)

// Environment variables consulted when no API key is stored.
const (
	envGeminiKey    = "GEMINI_API_KEY"
	envOpenAIKey    = "OPENAI_API_KEY"
	envAnthropicKey = "ANTHROPIC_API_KEY"
	envSearchKey    = "GOOGLE_SEARCH_API_KEY"
	envSearchEngine = "GOOGLE_SEARCH_ENGINE_ID"
	envResendKey    = "RESEND_API_KEY"
)

// SettingsService reads and writes application settings through the
// config store, layering stored values over domain defaults.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves the effective settings. API keys missing from the
// config file fall back to the conventional environment variables.
func (s *SettingsService) Get() (*domain.Settings, error) {
	defaults := domain.DefaultSettings()

	settings := &domain.Settings{
		Providers:       s.getProviders(),
		Embedding:       domain.EmbeddingProvider(s.getString(keyEmbedProvider, defaults.Embedding.String())),
		EmbeddingModel:  s.configStore.GetString(keyEmbedModel),
		EmbeddingAPIKey: s.configStore.GetString(keyEmbedAPIKey),
		SearchAPIKey:    s.getStringEnv(keySearchAPIKey, envSearchKey),
		SearchEngineID:  s.getStringEnv(keySearchEngineID, envSearchEngine),
		EmailFrom:       s.configStore.GetString(keyEmailFrom),
		EmailAPIKey:     s.getStringEnv(keyEmailAPIKey, envResendKey),
		Gather: domain.GatherSettings{
			MaxSources:          s.getInt(keyGatherMaxSources, defaults.Gather.MaxSources),
			MaxSearchResults:    s.getInt(keyGatherMaxResults, defaults.Gather.MaxSearchResults),
			Concurrency:         s.getInt(keyGatherConcurrency, defaults.Gather.Concurrency),
			FetchTimeoutSeconds: s.getInt(keyGatherFetchTimeout, defaults.Gather.FetchTimeoutSeconds),
			MaxDocumentChars:    s.getInt(keyGatherMaxDocChars, defaults.Gather.MaxDocumentChars),
		},
		Index: domain.IndexSettings{
			ChunkSize:        s.getInt(keyIndexChunkSize, defaults.Index.ChunkSize),
			ChunkOverlap:     s.getInt(keyIndexChunkOverlap, defaults.Index.ChunkOverlap),
			SentenceSlack:    s.getInt(keyIndexSentenceSlack, defaults.Index.SentenceSlack),
			EmbedMaxAttempts: s.getInt(keyIndexEmbedAttempts, defaults.Index.EmbedMaxAttempts),
		},
		Synthesis: domain.SynthesisSettings{
			MaxTurns:      s.getInt(keySynthMaxTurns, defaults.Synthesis.MaxTurns),
			TokenBudget:   s.getInt(keySynthTokenBudget, defaults.Synthesis.TokenBudget),
			ContextTokens: s.getInt(keySynthContextTokens, defaults.Synthesis.ContextTokens),
			RetrievalK:    s.getInt(keySynthRetrievalK, defaults.Synthesis.RetrievalK),
			MaxPerSource:  s.getInt(keySynthMaxPerSource, defaults.Synthesis.MaxPerSource),
			Language:      s.getString(keySynthLanguage, defaults.Synthesis.Language),
		},
		Retry: domain.RetrySettings{
			MaxAttempts:     s.getInt(keyRetryMaxAttempts, defaults.Retry.MaxAttempts),
			BaseDelayMillis: s.getInt(keyRetryBaseDelay, defaults.Retry.BaseDelayMillis),
			MaxDelayMillis:  s.getInt(keyRetryMaxDelay, defaults.Retry.MaxDelayMillis),
		},
	}

	if settings.EmbeddingAPIKey == "" {
		settings.EmbeddingAPIKey = envKeyForEmbedding(settings.Embedding)
	}

	return settings, nil
}

// Save persists settings to the config store.
func (s *SettingsService) Save(settings *domain.Settings) error {
	if err := s.saveProviders(settings.Providers); err != nil {
		return err
	}

	values := map[string]any{
		keyEmbedProvider:      settings.Embedding.String(),
		keyEmbedModel:         settings.EmbeddingModel,
		keySearchEngineID:     settings.SearchEngineID,
		keyEmailFrom:          settings.EmailFrom,
		keyGatherMaxSources:   settings.Gather.MaxSources,
		keyGatherMaxResults:   settings.Gather.MaxSearchResults,
		keyGatherConcurrency:  settings.Gather.Concurrency,
		keyGatherFetchTimeout: settings.Gather.FetchTimeoutSeconds,
		keyGatherMaxDocChars:  settings.Gather.MaxDocumentChars,
		keyIndexChunkSize:     settings.Index.ChunkSize,
		keyIndexChunkOverlap:  settings.Index.ChunkOverlap,
		keyIndexSentenceSlack: settings.Index.SentenceSlack,
		keyIndexEmbedAttempts: settings.Index.EmbedMaxAttempts,
		keySynthMaxTurns:      settings.Synthesis.MaxTurns,
		keySynthTokenBudget:   settings.Synthesis.TokenBudget,
		keySynthContextTokens: settings.Synthesis.ContextTokens,
		keySynthRetrievalK:    settings.Synthesis.RetrievalK,
		keySynthMaxPerSource:  settings.Synthesis.MaxPerSource,
		keySynthLanguage:      settings.Synthesis.Language,
		keyRetryMaxAttempts:   settings.Retry.MaxAttempts,
		keyRetryBaseDelay:     settings.Retry.BaseDelayMillis,
		keyRetryMaxDelay:      settings.Retry.MaxDelayMillis,
	}
	for key, value := range values {
		if err := s.configStore.Set(key, value); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}

	// Credentials are only written when present so env-sourced keys do
	// not end up in the config file.
	creds := map[string]string{
		keyEmbedAPIKey:  settings.EmbeddingAPIKey,
		keySearchAPIKey: settings.SearchAPIKey,
		keyEmailAPIKey:  settings.EmailAPIKey,
	}
	for key, value := range creds {
		if value == "" {
			continue
		}
		if err := s.configStore.Set(key, value); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}

	return nil
}

// getProviders builds the fallback chain from the primary and fallback
// config slots.
func (s *SettingsService) getProviders() []domain.ProviderSettings {
	var providers []domain.ProviderSettings

	if primary := s.configStore.GetString(keyLLMPrimary); primary != "" {
		providers = append(providers, domain.ProviderSettings{
			Provider: domain.ModelProvider(primary),
			Model:    s.configStore.GetString(keyLLMPrimaryModel),
			APIKey:   s.providerKey(keyLLMPrimaryAPIKey, domain.ModelProvider(primary)),
		})
	}
	if fallback := s.configStore.GetString(keyLLMFallback); fallback != "" {
		providers = append(providers, domain.ProviderSettings{
			Provider: domain.ModelProvider(fallback),
			Model:    s.configStore.GetString(keyLLMFallbackModel),
			APIKey:   s.providerKey(keyLLMFallbackAPIKey, domain.ModelProvider(fallback)),
		})
	}

	// No configuration at all: assemble a chain from whatever API keys
	// the environment offers, Gemini first.
	if len(providers) == 0 {
		for _, candidate := range []domain.ModelProvider{
			domain.ModelProviderGemini,
			domain.ModelProviderOpenAI,
			domain.ModelProviderAnthropic,
		} {
			if key := envKeyForProvider(candidate); key != "" {
				providers = append(providers, domain.ProviderSettings{
					Provider: candidate,
					APIKey:   key,
				})
			}
		}
	}

	return providers
}

func (s *SettingsService) saveProviders(providers []domain.ProviderSettings) error {
	slots := []struct {
		provider, model, apiKey string
	}{
		{keyLLMPrimary, keyLLMPrimaryModel, keyLLMPrimaryAPIKey},
		{keyLLMFallback, keyLLMFallbackModel, keyLLMFallbackAPIKey},
	}
	for i, slot := range slots {
		if i >= len(providers) {
			break
		}
		if err := s.configStore.Set(slot.provider, providers[i].Provider.String()); err != nil {
			return fmt.Errorf("save provider: %w", err)
		}
		if err := s.configStore.Set(slot.model, providers[i].Model); err != nil {
			return fmt.Errorf("save provider model: %w", err)
		}
		if providers[i].APIKey != "" {
			if err := s.configStore.Set(slot.apiKey, providers[i].APIKey); err != nil {
				return fmt.Errorf("save provider api_key: %w", err)
			}
		}
	}
	return nil
}

func (s *SettingsService) providerKey(configKey string, provider domain.ModelProvider) string {
	if key := s.configStore.GetString(configKey); key != "" {
		return key
	}
	return envKeyForProvider(provider)
}

func (s *SettingsService) getString(key, fallback string) string {
	if value := s.configStore.GetString(key); value != "" {
		return value
	}
	return fallback
}

func (s *SettingsService) getStringEnv(key, envVar string) string {
	if value := s.configStore.GetString(key); value != "" {
		return value
	}
	return os.Getenv(envVar)
}

func (s *SettingsService) getInt(key string, fallback int) int {
	if _, ok := s.configStore.Get(key); ok {
		return s.configStore.GetInt(key)
	}
	return fallback
}

func envKeyForProvider(provider domain.ModelProvider) string {
	switch provider {
	case domain.ModelProviderGemini:
		return os.Getenv(envGeminiKey)
	case domain.ModelProviderOpenAI:
		return os.Getenv(envOpenAIKey)
	case domain.ModelProviderAnthropic:
		return os.Getenv(envAnthropicKey)
	default:
		return ""
	}
}

func envKeyForEmbedding(provider domain.EmbeddingProvider) string {
	switch provider {
	case domain.EmbeddingProviderGemini:
		return os.Getenv(envGeminiKey)
	case domain.EmbeddingProviderOpenAI:
		return os.Getenv(envOpenAIKey)
	default:
		return ""
	}
}
