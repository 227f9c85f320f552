package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/inquest-cli/internal/logger"
)

// GatherService fetches raw material through source adapters and runs
// it through the indexing pipeline: normalise, chunk, embed, store.
// Per-source failures are logged and skipped; the pipeline degrades
// gracefully with partial evidence rather than aborting wholesale.
type GatherService struct {
	adapters    map[domain.SourceKind]driven.SourceAdapter
	normalisers driven.NormaliserRegistry
	pipeline    driven.PostProcessorPipeline
	embedder    driven.EmbeddingService
	sources     driven.SourceStore
	vectors     driven.VectorStore
	retry       *RetryPolicy
	settings    domain.GatherSettings

	mu   sync.Mutex
	caps map[string]int
}

// NewGatherService creates a gather service. Adapters are registered
// separately so the set of available source kinds is composition-time
// configuration.
func NewGatherService(
	normalisers driven.NormaliserRegistry,
	pipeline driven.PostProcessorPipeline,
	embedder driven.EmbeddingService,
	sources driven.SourceStore,
	vectors driven.VectorStore,
	retry *RetryPolicy,
	settings domain.GatherSettings,
) *GatherService {
	return &GatherService{
		adapters:    make(map[domain.SourceKind]driven.SourceAdapter),
		normalisers: normalisers,
		pipeline:    pipeline,
		embedder:    embedder,
		sources:     sources,
		vectors:     vectors,
		retry:       retry,
		settings:    settings,
		caps:        make(map[string]int),
	}
}

// RegisterAdapter adds a source adapter for its kind.
func (g *GatherService) RegisterAdapter(adapter driven.SourceAdapter) {
	g.adapters[adapter.Kind()] = adapter
}

// SetSessionCap overrides MaxSources for one session. The service is
// shared across requests, so per-request caps must stay session-scoped.
// A limit of zero or less removes the override.
func (g *GatherService) SetSessionCap(sessionID string, limit int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if limit <= 0 {
		delete(g.caps, sessionID)
		return
	}
	g.caps[sessionID] = limit
}

// maxSources returns the effective source cap for a session.
func (g *GatherService) maxSources(sessionID string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if limit, ok := g.caps[sessionID]; ok {
		return limit
	}
	return g.settings.MaxSources
}

// Search runs a web search and indexes the results into the session.
// Returns a compact summary suitable for feeding back to the planner.
func (g *GatherService) Search(ctx context.Context, sessionID, query string) (string, error) {
	adapter, ok := g.adapters[domain.KindSearchResult]
	if !ok {
		return "", fmt.Errorf("%w: no search adapter registered", domain.ErrUnsupportedType)
	}

	logger.Section("Gather: search")
	logger.Debug("Query: %q", query)

	payloads, err := adapter.Fetch(ctx, query)
	if err != nil {
		return "", err
	}

	return g.ingest(ctx, sessionID, payloads)
}

// Fetch retrieves a single URL and indexes it into the session.
// The adapter is chosen from the URL shape: YouTube links go to the
// transcript adapter, .pdf paths to the PDF adapter, everything else
// to the generic web page adapter.
func (g *GatherService) Fetch(ctx context.Context, sessionID, url string) (string, error) {
	kind := kindForURL(url)
	adapter, ok := g.adapters[kind]
	if !ok {
		return "", fmt.Errorf("%w: no adapter registered for %s", domain.ErrUnsupportedType, kind)
	}

	logger.Section("Gather: fetch")
	logger.Debug("URL: %s (kind %s)", url, kind)

	payloads, err := adapter.Fetch(ctx, url)
	if err != nil {
		return "", err
	}

	return g.ingest(ctx, sessionID, payloads)
}

// kindForURL maps a URL onto the adapter kind that should fetch it.
func kindForURL(url string) domain.SourceKind {
	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, "youtube.com/") || strings.Contains(lower, "youtu.be/"):
		return domain.KindTranscript
	case strings.HasSuffix(strings.Split(lower, "?")[0], ".pdf"):
		return domain.KindPDF
	default:
		return domain.KindWebPage
	}
}

// ingest fans the payloads out through the indexing pipeline with
// bounded concurrency, capped at the session's remaining source budget.
func (g *GatherService) ingest(ctx context.Context, sessionID string, payloads []driven.RawPayload) (string, error) {
	existing, err := g.sources.ListSources(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("listing sources: %w", err)
	}
	remaining := g.maxSources(sessionID) - len(existing)
	if remaining <= 0 {
		return "source budget reached, nothing indexed", nil
	}
	if len(payloads) > remaining {
		logger.Info("Source cap: indexing %d of %d payloads", remaining, len(payloads))
		payloads = payloads[:remaining]
	}

	concurrency := g.settings.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	var (
		mu      sync.Mutex
		indexed []string
	)

	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(concurrency)

	for i := range payloads {
		payload := payloads[i]
		grp.Go(func() error {
			title, err := g.ingestOne(grpCtx, sessionID, &payload)
			if err != nil {
				// Skip-and-continue: one bad source never fails the
				// gather phase. Cancellation still propagates.
				if grpCtx.Err() != nil {
					return grpCtx.Err()
				}
				logger.Warn("skipping source %s: %v", payload.Source.DisplayName(), err)
				return nil
			}
			mu.Lock()
			indexed = append(indexed, title)
			mu.Unlock()
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return "", err
	}

	if len(indexed) == 0 {
		return "", fmt.Errorf("%w: nothing could be indexed", domain.ErrSourceEmpty)
	}
	return fmt.Sprintf("indexed %d sources: %s", len(indexed), strings.Join(indexed, "; ")), nil
}

// ingestOne runs a single payload through the pipeline. Nothing is
// persisted until the content has survived normalisation, chunking and
// embedding: a source the pipeline rejects never appears in the
// session's source list, so citation ordinals only count survivors.
func (g *GatherService) ingestOne(ctx context.Context, sessionID string, payload *driven.RawPayload) (string, error) {
	source := payload.Source
	if source.FetchedAt.IsZero() {
		source.FetchedAt = time.Now().UTC()
	}

	result, err := g.normalisers.Normalise(ctx, payload)
	if err != nil {
		return "", err
	}

	doc := result.Document
	doc.SourceID = source.ID
	doc.SessionID = sessionID
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	passages, err := g.pipeline.Process(ctx, &doc)
	if err != nil {
		return "", fmt.Errorf("chunking: %w", err)
	}
	for i := range passages {
		passages[i].FetchedAt = source.FetchedAt
	}

	embedded := g.embedPassages(ctx, passages)
	if len(embedded) == 0 {
		return "", fmt.Errorf("%w: no passages survived embedding", domain.ErrEmbeddingProvider)
	}

	if err := g.sources.SaveSource(ctx, sessionID, &source); err != nil {
		return "", fmt.Errorf("saving source: %w", err)
	}
	if err := g.sources.SaveDocument(ctx, &doc); err != nil {
		return "", fmt.Errorf("saving document: %w", err)
	}
	if err := g.vectors.Upsert(ctx, embedded); err != nil {
		return "", fmt.Errorf("storing passages: %w", err)
	}

	logger.Info("Indexed %q: %d passages", doc.Title, len(embedded))
	return doc.Title, nil
}

// embedPassages computes embeddings, preferring one batch call. When
// the batch fails past the retry ceiling it falls back to per-passage
// embedding so a single bad span only drops itself.
func (g *GatherService) embedPassages(ctx context.Context, passages []domain.Passage) []domain.Passage {
	if len(passages) == 0 {
		return nil
	}

	texts := make([]string, len(passages))
	for i := range passages {
		texts[i] = passages[i].Text
	}

	var vectors [][]float32
	_, err := g.retry.Do(ctx, "embed batch", func() error {
		var embedErr error
		vectors, embedErr = g.embedder.EmbedBatch(ctx, texts)
		return embedErr
	})
	if err == nil && len(vectors) == len(passages) {
		for i := range passages {
			passages[i].Embedding = vectors[i]
		}
		return passages
	}

	logger.Warn("batch embedding failed, falling back to per-passage: %v", err)

	kept := passages[:0]
	for i := range passages {
		passage := passages[i]
		_, err := g.retry.Do(ctx, "embed passage", func() error {
			var embedErr error
			passage.Embedding, embedErr = g.embedder.Embed(ctx, passage.Text)
			return embedErr
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				break
			}
			logger.Warn("dropping passage %d: embedding failed after retries: %v", passage.Position, err)
			continue
		}
		kept = append(kept, passage)
	}
	return kept
}
