package domain

import "fmt"

const unknownDescription = "Unknown"

// ModelProvider identifies an LLM backend.
type ModelProvider string

// Available model providers.
const (
	// ModelProviderGemini is the Google Gemini API.
	ModelProviderGemini ModelProvider = "gemini"

	// ModelProviderOpenAI is the OpenAI cloud API.
	ModelProviderOpenAI ModelProvider = "openai"

	// ModelProviderAnthropic is the Anthropic cloud API.
	ModelProviderAnthropic ModelProvider = "anthropic"
)

// IsValid returns true if the provider is recognised.
func (p ModelProvider) IsValid() bool {
	switch p {
	case ModelProviderGemini, ModelProviderOpenAI, ModelProviderAnthropic:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p ModelProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p ModelProvider) Description() string {
	switch p {
	case ModelProviderGemini:
		return "Google Gemini (cloud)"
	case ModelProviderOpenAI:
		return "OpenAI (cloud)"
	case ModelProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingProvider identifies an embedding backend.
type EmbeddingProvider string

// Available embedding providers.
const (
	// EmbeddingProviderGemini is the Google Gemini embedding API.
	EmbeddingProviderGemini EmbeddingProvider = "gemini"

	// EmbeddingProviderOpenAI is the OpenAI embeddings API.
	EmbeddingProviderOpenAI EmbeddingProvider = "openai"

	// EmbeddingProviderOllama is a local Ollama instance.
	EmbeddingProviderOllama EmbeddingProvider = "ollama"
)

// IsValid returns true if the embedding provider is recognised.
func (p EmbeddingProvider) IsValid() bool {
	switch p {
	case EmbeddingProviderGemini, EmbeddingProviderOpenAI, EmbeddingProviderOllama:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p EmbeddingProvider) String() string {
	return string(p)
}

// ProviderSettings configures one model provider in the fallback chain.
type ProviderSettings struct {
	// Provider selects the backend.
	Provider ModelProvider

	// Model is the model identifier, empty for the provider default.
	Model string

	// APIKey authenticates against the provider.
	APIKey string
}

// GatherSettings bounds the gathering phase.
type GatherSettings struct {
	// MaxSources caps how many sources one gather phase may produce.
	MaxSources int

	// MaxSearchResults caps results per search engine call.
	MaxSearchResults int

	// Concurrency bounds the fetch fan-out.
	Concurrency int

	// FetchTimeoutSeconds is the per-call timeout for adapter fetches.
	FetchTimeoutSeconds int

	// MaxDocumentChars truncates normalised documents above this length,
	// keeping head and tail and dropping the middle.
	MaxDocumentChars int
}

// IndexSettings configures chunking and embedding.
type IndexSettings struct {
	// ChunkSize is the passage window in characters.
	ChunkSize int

	// ChunkOverlap is the overlap between neighbouring passages.
	ChunkOverlap int

	// SentenceSlack is how far a chunk boundary may move to land on a
	// sentence end.
	SentenceSlack int

	// EmbedMaxAttempts is the retry ceiling per span before it is dropped.
	EmbedMaxAttempts int
}

// SynthesisSettings bounds the orchestration loop.
type SynthesisSettings struct {
	// MaxTurns caps the planning/acting iterations.
	MaxTurns int

	// TokenBudget caps the total tokens a session may spend.
	TokenBudget int

	// ContextTokens caps the assembled prompt per planning step.
	ContextTokens int

	// RetrievalK is how many passages a retrieve step requests.
	RetrievalK int

	// MaxPerSource caps passages per source after deduplication.
	MaxPerSource int

	// Language is the report output language.
	Language string
}

// RetrySettings configures the provider retry policy.
type RetrySettings struct {
	// MaxAttempts is the per-provider attempt ceiling.
	MaxAttempts int

	// BaseDelayMillis is the initial backoff delay.
	BaseDelayMillis int

	// MaxDelayMillis caps the backoff delay.
	MaxDelayMillis int
}

// Settings is the full application configuration.
type Settings struct {
	// Providers is the model fallback chain, primary first.
	Providers []ProviderSettings

	// Embedding selects the embedding backend.
	Embedding EmbeddingProvider

	// EmbeddingModel is the embedding model, empty for the default.
	EmbeddingModel string

	// EmbeddingAPIKey authenticates the embedding provider.
	EmbeddingAPIKey string

	// SearchAPIKey authenticates the web search engine.
	SearchAPIKey string

	// SearchEngineID is the Programmable Search engine identifier.
	SearchEngineID string

	// EmailFrom is the sender address for report delivery.
	EmailFrom string

	// EmailAPIKey authenticates the delivery provider.
	EmailAPIKey string

	// Gather bounds the gathering phase.
	Gather GatherSettings

	// Index configures chunking and embedding.
	Index IndexSettings

	// Synthesis bounds the orchestration loop.
	Synthesis SynthesisSettings

	// Retry configures provider retries.
	Retry RetrySettings
}

// DefaultSettings returns the settings used when no configuration exists.
func DefaultSettings() Settings {
	return Settings{
		Embedding: EmbeddingProviderGemini,
		Gather: GatherSettings{
			MaxSources:          15,
			MaxSearchResults:    5,
			Concurrency:         4,
			FetchTimeoutSeconds: 30,
			MaxDocumentChars:    60000,
		},
		Index: IndexSettings{
			ChunkSize:        1000,
			ChunkOverlap:     200,
			SentenceSlack:    120,
			EmbedMaxAttempts: 3,
		},
		Synthesis: SynthesisSettings{
			MaxTurns:      8,
			TokenBudget:   60000,
			ContextTokens: 8000,
			RetrievalK:    8,
			MaxPerSource:  2,
			Language:      "english",
		},
		Retry: RetrySettings{
			MaxAttempts:     3,
			BaseDelayMillis: 500,
			MaxDelayMillis:  8000,
		},
	}
}

// Validate checks the settings for fatal misconfiguration.
// A session cannot start without at least one model provider.
func (s *Settings) Validate() error {
	if len(s.Providers) == 0 {
		return fmt.Errorf("%w: no model providers configured", ErrInvalidInput)
	}
	for i := range s.Providers {
		if !s.Providers[i].Provider.IsValid() {
			return fmt.Errorf("%w: model provider %q", ErrUnsupportedType, s.Providers[i].Provider)
		}
	}
	if !s.Embedding.IsValid() {
		return fmt.Errorf("%w: embedding provider %q", ErrUnsupportedType, s.Embedding)
	}
	if s.Gather.MaxSources <= 0 {
		return fmt.Errorf("%w: max sources must be positive", ErrInvalidInput)
	}
	if s.Index.ChunkSize <= 0 || s.Index.ChunkOverlap < 0 {
		return fmt.Errorf("%w: invalid chunking configuration", ErrInvalidInput)
	}
	if s.Index.ChunkOverlap >= s.Index.ChunkSize {
		return fmt.Errorf("%w: overlap must be smaller than chunk size", ErrInvalidInput)
	}
	if s.Synthesis.MaxTurns <= 0 || s.Synthesis.TokenBudget <= 0 {
		return fmt.Errorf("%w: invalid synthesis budget", ErrInvalidInput)
	}
	if s.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("%w: retry attempts must be positive", ErrInvalidInput)
	}
	return nil
}
