// Package markdown renders reports as plain Markdown documents.
package markdown

import (
	"fmt"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driven"
)

// Ensure Renderer implements the interface.
var _ driven.Renderer = (*Renderer)(nil)

// Renderer emits the report's canonical Markdown form unchanged.
// Used for file output and email bodies.
type Renderer struct{}

// New creates a Markdown renderer.
func New() *Renderer {
	return &Renderer{}
}

// Render produces the document bytes for a report.
func (r *Renderer) Render(report *domain.Report) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("%w: nil report", domain.ErrRender)
	}
	if err := report.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRender, err)
	}
	return []byte(report.Markdown()), nil
}

// Extension returns "md".
func (r *Renderer) Extension() string {
	return "md"
}
