package normalisers

import (
	"github.com/custodia-labs/inquest-cli/internal/normalisers/html"
	"github.com/custodia-labs/inquest-cli/internal/normalisers/pdf"
	"github.com/custodia-labs/inquest-cli/internal/normalisers/plaintext"
	"github.com/custodia-labs/inquest-cli/internal/normalisers/transcript"
)

// RegisterDefaults registers all built-in normalisers with the
// registry. maxChars bounds every document; zero disables truncation.
func RegisterDefaults(r *Registry, maxChars int) {
	r.Register(html.New(html.WithMaxChars(maxChars)))
	r.Register(pdf.New(pdf.WithMaxChars(maxChars)))
	r.Register(transcript.New(transcript.WithMaxChars(maxChars)))
	r.Register(plaintext.New(plaintext.WithMaxChars(maxChars)))
}
