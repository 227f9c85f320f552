// Package terminal renders reports as styled terminal output using glamour.
package terminal

import (
	"fmt"

	"github.com/charmbracelet/glamour"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driven"
)

// Ensure Renderer implements the interface.
var _ driven.Renderer = (*Renderer)(nil)

// DefaultWordWrap is the column the rendered output wraps at.
const DefaultWordWrap = 100

// Renderer styles the report's Markdown for terminal display.
type Renderer struct {
	term *glamour.TermRenderer
}

// Option configures the renderer.
type Option func(*options)

type options struct {
	wordWrap int
	style    string
}

// WithWordWrap sets the wrap column.
func WithWordWrap(columns int) Option {
	return func(o *options) {
		o.wordWrap = columns
	}
}

// WithStyle forces a named glamour style instead of auto-detection.
func WithStyle(style string) Option {
	return func(o *options) {
		o.style = style
	}
}

// New creates a terminal renderer.
func New(opts ...Option) (*Renderer, error) {
	o := options{wordWrap: DefaultWordWrap}
	for _, opt := range opts {
		opt(&o)
	}

	glamourOpts := []glamour.TermRendererOption{
		glamour.WithWordWrap(o.wordWrap),
	}
	if o.style != "" {
		glamourOpts = append(glamourOpts, glamour.WithStylePath(o.style))
	} else {
		glamourOpts = append(glamourOpts, glamour.WithAutoStyle())
	}

	term, err := glamour.NewTermRenderer(glamourOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: creating terminal renderer: %v", domain.ErrRender, err)
	}

	return &Renderer{term: term}, nil
}

// Render produces the styled document bytes for a report.
func (r *Renderer) Render(report *domain.Report) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("%w: nil report", domain.ErrRender)
	}
	if err := report.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRender, err)
	}

	out, err := r.term.Render(report.Markdown())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRender, err)
	}
	return []byte(out), nil
}

// Extension returns "txt"; the styled output carries ANSI escapes and
// is not valid Markdown.
func (r *Renderer) Extension() string {
	return "txt"
}
