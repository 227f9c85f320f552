// Command inquest runs research sessions from the terminal: it gathers
// sources for a topic, indexes them into a session-scoped vector store,
// and drives a model through a plan/act loop to produce a cited report.
//
// Configuration lives in ~/.inquest/config.toml and is managed with the
// settings subcommands; API keys may also come from the environment.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/custodia-labs/inquest-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/inquest-cli/internal/adapters/driven/delivery/resend"
	geminiembed "github.com/custodia-labs/inquest-cli/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/custodia-labs/inquest-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/inquest-cli/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/inquest-cli/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/inquest-cli/internal/adapters/driven/llm/gemini"
	openaillm "github.com/custodia-labs/inquest-cli/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/inquest-cli/internal/adapters/driven/render/markdown"
	"github.com/custodia-labs/inquest-cli/internal/adapters/driven/render/terminal"
	"github.com/custodia-labs/inquest-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/inquest-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/inquest-cli/internal/connectors"
	"github.com/custodia-labs/inquest-cli/internal/connectors/pdffile"
	"github.com/custodia-labs/inquest-cli/internal/connectors/webpage"
	"github.com/custodia-labs/inquest-cli/internal/connectors/websearch"
	"github.com/custodia-labs/inquest-cli/internal/connectors/youtube"
	"github.com/custodia-labs/inquest-cli/internal/core/domain"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/inquest-cli/internal/core/services"
	"github.com/custodia-labs/inquest-cli/internal/logger"
	"github.com/custodia-labs/inquest-cli/internal/normalisers"
	"github.com/custodia-labs/inquest-cli/internal/postprocessors"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)

	store, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	svcs := cli.Services{
		Settings: settingsService,
		Sessions: services.NewSessionManager(
			store.SessionStore(), store.SourceStore(), store.VectorStore()),
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	// An incomplete configuration still gets a working CLI: settings,
	// sessions, and version run without providers. Commands that need
	// the research stack report themselves as unconfigured.
	if err := settings.Validate(); err != nil {
		logger.Warn("Configuration incomplete: %v (run `inquest settings` to fix)", err)
	} else {
		research, retrieve, closeStack, err := buildResearchStack(ctx, store, settings)
		if err != nil {
			logger.Warn("Research stack unavailable: %v", err)
		} else {
			defer closeStack()
			svcs.Research = research
			svcs.Retrieve = retrieve
		}
	}

	cli.Configure(svcs)
	return cli.Execute()
}

// buildResearchStack wires the full pipeline: providers, embedder,
// gather adapters, retriever, orchestrator, assembler, renderer and
// optional mailer. The returned func closes provider and embedder
// connections.
func buildResearchStack(
	ctx context.Context, store *sqlite.Store, settings *domain.Settings,
) (*services.ResearchService, *services.RetrieverService, func(), error) {
	retry := services.NewRetryPolicy(settings.Retry)

	providers := make([]driven.ModelProvider, 0, len(settings.Providers))
	for _, p := range settings.Providers {
		provider, err := buildProvider(p)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("provider %s: %w", p.Provider, err)
		}
		providers = append(providers, provider)
	}
	chain, err := services.NewFallbackChain(retry, providers...)
	if err != nil {
		return nil, nil, nil, err
	}

	embedder, err := buildEmbedder(ctx, settings)
	if err != nil {
		chain.Close()
		return nil, nil, nil, fmt.Errorf("embedding %s: %w", settings.Embedding, err)
	}
	closeStack := func() {
		if err := embedder.Close(); err != nil {
			logger.Debug("Closing embedder: %v", err)
		}
		if err := chain.Close(); err != nil {
			logger.Debug("Closing providers: %v", err)
		}
	}

	registry := normalisers.NewRegistry()
	normalisers.RegisterDefaults(registry, settings.Gather.MaxDocumentChars)

	pipeline, err := buildPipeline(settings.Index)
	if err != nil {
		closeStack()
		return nil, nil, nil, err
	}

	gather := services.NewGatherService(
		registry, pipeline, embedder,
		store.SourceStore(), store.VectorStore(),
		retry, settings.Gather,
	)
	registerAdapters(ctx, gather, settings)

	retriever := services.NewRetrieverService(
		embedder, store.VectorStore(), store.SourceStore(), retry, settings.Synthesis)

	orchestrator := services.NewOrchestrator(
		chain, gather, retriever,
		store.SessionStore(), store.SourceStore(),
		settings.Synthesis,
	)
	if prompts, err := file.NewPromptStore(""); err == nil {
		orchestrator.SetPromptStore(prompts)
	} else {
		logger.Warn("Prompt store unavailable, using built-in prompts: %v", err)
	}

	assembler := services.NewAssembler(store.SourceStore())

	renderer, err := buildRenderer()
	if err != nil {
		closeStack()
		return nil, nil, nil, err
	}

	var mailer driven.Mailer
	if settings.EmailAPIKey != "" {
		m, err := resend.New(resend.Config{
			APIKey: settings.EmailAPIKey,
			From:   settings.EmailFrom,
		})
		if err != nil {
			closeStack()
			return nil, nil, nil, fmt.Errorf("mailer: %w", err)
		}
		mailer = m
	}

	research := services.NewResearchService(
		gather, orchestrator, assembler, store.SessionStore(), renderer, mailer)

	return research, retriever, closeStack, nil
}

// buildProvider constructs one model provider from its settings.
func buildProvider(p domain.ProviderSettings) (driven.ModelProvider, error) {
	switch p.Provider {
	case domain.ModelProviderGemini:
		return geminillm.New(geminillm.Config{APIKey: p.APIKey, Model: p.Model})
	case domain.ModelProviderOpenAI:
		return openaillm.New(openaillm.Config{APIKey: p.APIKey, Model: p.Model})
	case domain.ModelProviderAnthropic:
		return anthropic.New(anthropic.Config{APIKey: p.APIKey, Model: p.Model})
	default:
		return nil, fmt.Errorf("%w: model provider %q", domain.ErrUnsupportedType, p.Provider)
	}
}

// buildEmbedder constructs the embedding service from settings.
func buildEmbedder(ctx context.Context, settings *domain.Settings) (driven.EmbeddingService, error) {
	switch settings.Embedding {
	case domain.EmbeddingProviderGemini:
		return geminiembed.NewEmbeddingService(ctx, geminiembed.Config{
			APIKey: settings.EmbeddingAPIKey,
			Model:  settings.EmbeddingModel,
		})
	case domain.EmbeddingProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey: settings.EmbeddingAPIKey,
			Model:  settings.EmbeddingModel,
		})
	case domain.EmbeddingProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			Model: settings.EmbeddingModel,
		}), nil
	default:
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedType, settings.Embedding)
	}
}

// buildPipeline assembles the post-processing pipeline from the
// processor registry so chunking stays configurable by name.
func buildPipeline(index domain.IndexSettings) (driven.PostProcessorPipeline, error) {
	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)

	chunk, err := registry.Build("chunker", map[string]any{
		"chunk_size":     index.ChunkSize,
		"overlap":        index.ChunkOverlap,
		"sentence_slack": index.SentenceSlack,
	})
	if err != nil {
		return nil, fmt.Errorf("building chunker: %w", err)
	}
	return postprocessors.NewPipeline(chunk), nil
}

// registerAdapters wires source adapters onto the gather service.
// Web page and PDF fetching always work; search and transcripts need
// Google API credentials and are skipped with a warning without them.
func registerAdapters(ctx context.Context, gather *services.GatherService, settings *domain.Settings) {
	fetcher := connectors.NewFetcher(
		connectors.WithTimeout(time.Duration(settings.Gather.FetchTimeoutSeconds) * time.Second),
	)

	gather.RegisterAdapter(webpage.New(fetcher))
	gather.RegisterAdapter(pdffile.New(fetcher))

	if settings.SearchAPIKey == "" || settings.SearchEngineID == "" {
		logger.Warn("Web search not configured; sessions gather from direct URLs only")
	} else {
		search, err := websearch.New(ctx, settings.SearchAPIKey, settings.SearchEngineID,
			[]websearch.Option{websearch.WithMaxResults(settings.Gather.MaxSearchResults)})
		if err != nil {
			logger.Warn("Web search unavailable: %v", err)
		} else {
			gather.RegisterAdapter(search)
		}
	}

	// The Data API accepts the same Google API key as Programmable
	// Search when the key has the YouTube API enabled.
	if settings.SearchAPIKey != "" {
		transcripts, err := youtube.New(ctx, settings.SearchAPIKey, fetcher, nil)
		if err != nil {
			logger.Warn("YouTube transcripts unavailable: %v", err)
		} else {
			gather.RegisterAdapter(transcripts)
		}
	}
}

// buildRenderer picks ANSI output for a terminal and plain Markdown
// when stdout is redirected, so piped or file-bound reports stay clean.
func buildRenderer() (driven.Renderer, error) {
	if info, err := os.Stdout.Stat(); err == nil && info.Mode()&os.ModeCharDevice == 0 {
		return markdown.New(), nil
	}
	return terminal.New()
}
