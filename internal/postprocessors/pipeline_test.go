package postprocessors

import (
	"context"
	"errors"
	"testing"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driven"
)

// fakeProcessor is a configurable test double.
type fakeProcessor struct {
	name string
	fn   func(doc *domain.Document, passages []domain.Passage) ([]domain.Passage, error)
}

func (f *fakeProcessor) Name() string { return f.name }

func (f *fakeProcessor) Process(_ context.Context, doc *domain.Document, passages []domain.Passage) ([]domain.Passage, error) {
	return f.fn(doc, passages)
}

func TestPipeline_NilDocument(t *testing.T) {
	p := NewPipeline()
	_, err := p.Process(context.Background(), nil)
	if err == nil {
		t.Fatal("expected error for nil document")
	}
}

func TestPipeline_EmptyPipeline(t *testing.T) {
	p := NewPipeline()
	passages, err := p.Process(context.Background(), &domain.Document{ID: "doc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if passages != nil {
		t.Errorf("expected nil passages, got %d", len(passages))
	}
}

func TestPipeline_RunsProcessorsInOrder(t *testing.T) {
	creator := &fakeProcessor{
		name: "creator",
		fn: func(doc *domain.Document, _ []domain.Passage) ([]domain.Passage, error) {
			return []domain.Passage{{ID: "p1", DocumentID: doc.ID}}, nil
		},
	}
	tagger := &fakeProcessor{
		name: "tagger",
		fn: func(_ *domain.Document, passages []domain.Passage) ([]domain.Passage, error) {
			for i := range passages {
				passages[i].Position = 42
			}
			return passages, nil
		},
	}

	p := NewPipeline(creator, tagger)
	passages, err := p.Process(context.Background(), &domain.Document{ID: "doc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(passages) != 1 {
		t.Fatalf("expected 1 passage, got %d", len(passages))
	}
	if passages[0].Position != 42 {
		t.Error("expected second processor to see first processor's output")
	}
}

func TestPipeline_ProcessorErrorWrapsName(t *testing.T) {
	failing := &fakeProcessor{
		name: "broken",
		fn: func(_ *domain.Document, _ []domain.Passage) ([]domain.Passage, error) {
			return nil, errors.New("boom")
		},
	}

	p := NewPipeline(failing)
	_, err := p.Process(context.Background(), &domain.Document{ID: "doc"})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); got != "processor broken: boom" {
		t.Errorf("unexpected error message: %s", got)
	}
}

func TestPipeline_AddAndLen(t *testing.T) {
	p := NewPipeline()
	if p.Len() != 0 {
		t.Errorf("expected empty pipeline, got %d", p.Len())
	}

	p.Add(&fakeProcessor{name: "one", fn: func(_ *domain.Document, c []domain.Passage) ([]domain.Passage, error) {
		return c, nil
	}})
	if p.Len() != 1 {
		t.Errorf("expected 1 processor, got %d", p.Len())
	}
}

func TestPipelineInterfaceCompliance(t *testing.T) {
	var _ driven.PostProcessorPipeline = (*Pipeline)(nil)
}
