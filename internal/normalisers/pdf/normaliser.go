// Package pdf normalises PDF payloads by extracting text with the
// pdftotext tool from poppler-utils.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/inquest-cli/internal/normalisers/truncate"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// ErrPDFToolNotFound is returned when pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// CommandRunner executes external commands. Injectable for testing.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands via os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Normaliser extracts text from PDF documents via pdftotext.
type Normaliser struct {
	runner   CommandRunner
	maxChars int
}

// Option configures the PDF normaliser.
type Option func(*Normaliser)

// WithMaxChars bounds document length; longer payloads keep head and
// tail and drop the middle.
func WithMaxChars(n int) Option {
	return func(p *Normaliser) {
		p.maxChars = n
	}
}

// New creates a new PDF normaliser using the system pdftotext binary.
func New(opts ...Option) *Normaliser {
	return NewWithRunner(execRunner{}, opts...)
}

// NewWithRunner creates a PDF normaliser with a custom command runner.
func NewWithRunner(runner CommandRunner, opts ...Option) *Normaliser {
	n := &Normaliser{runner: runner}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// CheckAvailable reports whether pdftotext is installed.
func CheckAvailable() error {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns platform-specific install guidance.
func InstallInstructions() string {
	return strings.TrimSpace(`
pdftotext is required for PDF extraction. Install poppler:

  macOS:         brew install poppler
  Debian/Ubuntu: sudo apt install poppler-utils
  Fedora:        sudo dnf install poppler-utils
`)
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// SupportedSourceKinds returns source kinds for specialised handling.
func (n *Normaliser) SupportedSourceKinds() []domain.SourceKind {
	return nil // All kinds
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts text from a PDF payload. The payload bytes are
// written to a temp file because pdftotext reads from disk.
func (n *Normaliser) Normalise(ctx context.Context, raw *driven.RawPayload) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := CheckAvailable(); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp("", "inquest-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp pdf: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw.Content); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp pdf: %w", err)
	}
	tmp.Close()

	// "-" sends extracted text to stdout; -layout keeps column order.
	output, err := n.runner.Run(ctx, "pdftotext", "-layout", "-enc", "UTF-8", tmp.Name(), "-")
	if err != nil {
		return nil, fmt.Errorf("pdftotext failed: %w", err)
	}

	content := strings.TrimSpace(string(output))
	if content == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrNormalization, raw.Source.OriginURL)
	}

	title := extractTitle(content, raw.Source)
	content, truncated := truncate.Middle(content, n.maxChars)

	doc := domain.Document{
		ID:        uuid.New().String(),
		SourceID:  raw.Source.ID,
		Title:     title,
		Content:   content,
		Language:  raw.Language,
		Truncated: truncated,
		CreatedAt: time.Now().UTC(),
	}

	return &driven.NormaliseResult{Document: doc}, nil
}

// extractTitle takes the first short non-empty line as the title,
// falling back to the source title and then the URL's filename.
func extractTitle(content string, source domain.Source) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || len(line) > 200 {
			continue
		}
		return line
	}
	if source.Title != "" {
		return source.Title
	}
	filename := filepath.Base(source.OriginURL)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}
