package driven

import (
	"context"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
)

// PostProcessor processes document content to produce passages.
// PostProcessors are chained in a pipeline (e.g. chunking, filtering).
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process takes a document and returns passages.
	// If the processor creates passages (e.g. the chunker), it receives
	// nil and returns new passages. If it modifies passages, it receives
	// and returns them.
	Process(ctx context.Context, doc *domain.Document, passages []domain.Passage) ([]domain.Passage, error)
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the document through all processors in order.
	// Returns the final passages after all processing.
	Process(ctx context.Context, doc *domain.Document) ([]domain.Passage, error)
}
