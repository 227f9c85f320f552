package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driving"
	"github.com/custodia-labs/inquest-cli/internal/logger"
)

// Ensure RetrieverService implements the interface.
var _ driving.RetrieveService = (*RetrieverService)(nil)

// overfetchFactor widens the vector query when per-source deduplication
// is on, so the cap still leaves K results to choose from.
const overfetchFactor = 4

// RetrieverService answers similarity queries against a session's
// indexed passages. The query text is embedded with the same model the
// passages were indexed with; mixing models gives meaningless scores.
type RetrieverService struct {
	embedder driven.EmbeddingService
	vectors  driven.VectorStore
	sources  driven.SourceStore
	retry    *RetryPolicy
	defaults domain.SynthesisSettings
}

// NewRetrieverService creates a retriever service.
func NewRetrieverService(
	embedder driven.EmbeddingService,
	vectors driven.VectorStore,
	sources driven.SourceStore,
	retry *RetryPolicy,
	defaults domain.SynthesisSettings,
) *RetrieverService {
	return &RetrieverService{
		embedder: embedder,
		vectors:  vectors,
		sources:  sources,
		retry:    retry,
		defaults: defaults,
	}
}

// Retrieve embeds the query and returns the most similar passages in
// the session, hydrated with their source. Fewer than K results is not
// an error; an empty index returns an empty slice.
func (r *RetrieverService) Retrieve(
	ctx context.Context, sessionID, query string, opts domain.RetrieveOptions,
) ([]domain.RetrievedPassage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	k := opts.K
	if k <= 0 {
		k = r.defaults.RetrievalK
	}
	maxPerSource := opts.MaxPerSource
	if maxPerSource <= 0 {
		maxPerSource = r.defaults.MaxPerSource
	}

	var queryVec []float32
	_, err := r.retry.Do(ctx, "embed query", func() error {
		var embedErr error
		queryVec, embedErr = r.embedder.Embed(ctx, query)
		return embedErr
	})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	fetchK := k
	if opts.DedupBySource {
		fetchK = k * overfetchFactor
	}

	results, err := r.vectors.Query(ctx, sessionID, queryVec, fetchK)
	if err != nil {
		return nil, err
	}

	logger.Debug("Retrieve: %d hits for %q in session %s", len(results), query, sessionID)

	perSource := make(map[string]int)
	retrieved := make([]domain.RetrievedPassage, 0, k)
	for _, result := range results {
		if len(retrieved) == k {
			break
		}

		passage, err := r.vectors.GetPassage(ctx, result.PassageID)
		if err != nil {
			return nil, fmt.Errorf("hydrating passage %s: %w", result.PassageID, err)
		}
		doc, err := r.sources.GetDocument(ctx, passage.DocumentID)
		if err != nil {
			return nil, fmt.Errorf("hydrating document %s: %w", passage.DocumentID, err)
		}

		if opts.DedupBySource {
			if perSource[doc.SourceID] >= maxPerSource {
				continue
			}
			perSource[doc.SourceID]++
		}

		retrieved = append(retrieved, domain.RetrievedPassage{
			Passage:  *passage,
			SourceID: doc.SourceID,
			Score:    result.Score,
		})
	}

	return retrieved, nil
}
