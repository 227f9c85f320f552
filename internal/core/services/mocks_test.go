package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driven"
)

// ==================== Model provider ====================

// providerReply is one scripted Complete outcome.
type providerReply struct {
	completion *driven.Completion
	err        error
}

// mockProvider replays a script of completions. Once the script is
// exhausted it keeps returning the last reply.
type mockProvider struct {
	mu     sync.Mutex
	name   string
	script []providerReply
	calls  int
	closed bool
}

var _ driven.ModelProvider = (*mockProvider)(nil)

func newMockProvider(name string, script ...providerReply) *mockProvider {
	return &mockProvider{name: name, script: script}
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Complete(_ context.Context, _ driven.CompletionRequest) (*driven.Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.calls
	if idx >= len(m.script) {
		idx = len(m.script) - 1
	}
	m.calls++
	if idx < 0 {
		return nil, fmt.Errorf("%w: empty script", domain.ErrProviderUnavailable)
	}
	reply := m.script[idx]
	return reply.completion, reply.err
}

func (m *mockProvider) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// toolReply builds a completion carrying a single tool call.
func toolReply(name string, args map[string]any, tokens int) providerReply {
	return providerReply{completion: &driven.Completion{
		ToolCalls:  []driven.ToolCall{{Name: name, Arguments: args}},
		TokensUsed: tokens,
	}}
}

// answerReply builds a completion that answers via the answer tool.
func answerReply(answer string, tokens int) providerReply {
	return toolReply("answer", map[string]any{"answer": answer}, tokens)
}

// errReply builds a failed completion.
func errReply(err error) providerReply {
	return providerReply{err: err}
}

// ==================== Embedding service ====================

// mockEmbedder produces deterministic 4-dimensional vectors from the
// text length. failTexts forces per-text failures; failBatch forces
// EmbedBatch to fail so callers exercise the per-passage fallback.
type mockEmbedder struct {
	mu        sync.Mutex
	failBatch bool
	failTexts map[string]bool
	calls     int
}

var _ driven.EmbeddingService = (*mockEmbedder)(nil)

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{failTexts: make(map[string]bool)}
}

func embedText(text string) []float32 {
	n := float32(len(text)%7 + 1)
	return []float32{n, n / 2, 1, float32(len(text) % 3)}
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failTexts[text] {
		return nil, fmt.Errorf("%w: rejected span", domain.ErrEmbeddingProvider)
	}
	return embedText(text), nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	failBatch := m.failBatch
	failTexts := m.failTexts
	m.mu.Unlock()

	if failBatch {
		return nil, fmt.Errorf("%w: batch rejected", domain.ErrEmbeddingProvider)
	}
	for _, text := range texts {
		if failTexts[text] {
			return nil, fmt.Errorf("%w: batch contains rejected span", domain.ErrEmbeddingProvider)
		}
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = embedText(text)
	}
	return vectors, nil
}

func (m *mockEmbedder) Dimensions() int { return 4 }

func (m *mockEmbedder) ModelName() string { return "mock-embed" }

func (m *mockEmbedder) Ping(_ context.Context) error { return nil }

func (m *mockEmbedder) Close() error { return nil }

// ==================== Source adapter ====================

// mockAdapter returns canned payloads for any target.
type mockAdapter struct {
	kind     domain.SourceKind
	payloads []driven.RawPayload
	err      error
}

var _ driven.SourceAdapter = (*mockAdapter)(nil)

func (m *mockAdapter) Kind() domain.SourceKind { return m.kind }

func (m *mockAdapter) Fetch(_ context.Context, _ string) ([]driven.RawPayload, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.payloads, nil
}

// textPayload builds a plain-text payload with a fresh source.
func textPayload(title, url, content string) driven.RawPayload {
	return driven.RawPayload{
		Source: domain.Source{
			ID:        uuid.New().String(),
			Kind:      domain.KindWebPage,
			OriginURL: url,
			Title:     title,
			FetchedAt: time.Now().UTC(),
		},
		MIMEType: "text/plain",
		Content:  []byte(content),
	}
}

// ==================== Normaliser registry ====================

// mockNormalisers passes payload content through as the document body.
// Titles listed in failTitles simulate unusable sources.
type mockNormalisers struct {
	failTitles map[string]bool
}

var _ driven.NormaliserRegistry = (*mockNormalisers)(nil)

func newMockNormalisers(failTitles ...string) *mockNormalisers {
	failing := make(map[string]bool, len(failTitles))
	for _, title := range failTitles {
		failing[title] = true
	}
	return &mockNormalisers{failTitles: failing}
}

func (m *mockNormalisers) Normalise(_ context.Context, raw *driven.RawPayload) (*driven.NormaliseResult, error) {
	if m.failTitles[raw.Source.Title] {
		return nil, fmt.Errorf("%w: unusable payload", domain.ErrNormalization)
	}
	return &driven.NormaliseResult{Document: domain.Document{
		ID:        uuid.New().String(),
		Title:     raw.Source.Title,
		Content:   string(raw.Content),
		Language:  "en",
		CreatedAt: time.Now().UTC(),
	}}, nil
}

func (m *mockNormalisers) Register(_ driven.Normaliser) {}

func (m *mockNormalisers) SupportedMIMETypes() []string { return []string{"text/plain"} }

// ==================== Post-processor pipeline ====================

// mockPipeline produces one passage per paragraph.
type mockPipeline struct{}

var _ driven.PostProcessorPipeline = (*mockPipeline)(nil)

func (m *mockPipeline) Process(_ context.Context, doc *domain.Document) ([]domain.Passage, error) {
	var passages []domain.Passage
	offset := 0
	for i, para := range strings.Split(doc.Content, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		passages = append(passages, domain.Passage{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			SessionID:  doc.SessionID,
			Text:       para,
			Start:      offset,
			End:        offset + len(para),
			Position:   i,
		})
		offset += len(para) + 2
	}
	return passages, nil
}

// ==================== Renderer and mailer ====================

type mockRenderer struct {
	err error
}

var _ driven.Renderer = (*mockRenderer)(nil)

func (m *mockRenderer) Render(report *domain.Report) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []byte("rendered: " + report.Markdown()), nil
}

func (m *mockRenderer) Extension() string { return "md" }

type mockMailer struct {
	mu         sync.Mutex
	err        error
	deliveries int
	recipients []string
}

var _ driven.Mailer = (*mockMailer)(nil)

func (m *mockMailer) Deliver(_ context.Context, _ string, _ []byte, recipients []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.deliveries++
	m.recipients = recipients
	return nil
}

// ==================== Config store ====================

// mockConfigStore is a map-backed ConfigStore.
type mockConfigStore struct {
	values map[string]any
}

var _ driven.ConfigStore = (*mockConfigStore)(nil)

func newMockConfigStore() *mockConfigStore {
	return &mockConfigStore{values: make(map[string]any)}
}

func (m *mockConfigStore) Get(key string) (any, bool) {
	value, ok := m.values[key]
	return value, ok
}

func (m *mockConfigStore) GetString(key string) string {
	if value, ok := m.values[key].(string); ok {
		return value
	}
	return ""
}

func (m *mockConfigStore) GetInt(key string) int {
	switch v := m.values[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

func (m *mockConfigStore) GetBool(key string) bool {
	value, _ := m.values[key].(bool)
	return value
}

func (m *mockConfigStore) GetStringSlice(key string) []string {
	value, _ := m.values[key].([]string)
	return value
}

func (m *mockConfigStore) Set(key string, value any) error {
	m.values[key] = value
	return nil
}

func (m *mockConfigStore) Load() error { return nil }

// ==================== Helpers ====================

// noSleep replaces backoff sleeps in tests.
func noSleep(_ context.Context, _ time.Duration) error { return nil }

// testRetryPolicy returns a fast retry policy with the given ceiling.
func testRetryPolicy(maxAttempts int) *RetryPolicy {
	policy := NewRetryPolicy(domain.RetrySettings{
		MaxAttempts:     maxAttempts,
		BaseDelayMillis: 1,
		MaxDelayMillis:  2,
	})
	policy.sleep = noSleep
	return policy
}
