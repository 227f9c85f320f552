package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Note: this is separate from VectorStore, which stores and searches
// vectors. EmbeddingService generates vectors; VectorStore keeps them.
//
// Implementations may include:
//   - Google Gemini (gemini-embedding-001)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	// Failures wrap domain.ErrEmbeddingProvider.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	// This is more efficient than calling Embed in a loop for large batches.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g. 768, 1536).
	// This is fixed per model; all passages in a session share it.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
