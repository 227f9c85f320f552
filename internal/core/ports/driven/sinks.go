package driven

import (
	"context"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
)

// Renderer turns an assembled report into a document byte stream.
// Failures wrap domain.ErrRender.
type Renderer interface {
	// Render produces the document bytes for a report.
	Render(report *domain.Report) ([]byte, error)

	// Extension returns the file extension for the rendered format,
	// without the leading dot (e.g. "md", "pdf").
	Extension() string
}

// Mailer delivers a rendered document to recipients.
// Failures wrap domain.ErrDelivery and are reported without rolling
// back an otherwise successful session.
type Mailer interface {
	// Deliver sends the document. Subject is the report title.
	Deliver(ctx context.Context, subject string, document []byte, recipients []string) error
}
