package driven

import "context"

// NormaliserRegistry selects the appropriate normaliser for a payload.
// It maintains a priority-ordered list of normalisers and dispatches
// based on MIME type and source kind.
type NormaliserRegistry interface {
	// Normalise transforms a raw payload using the best matching
	// normaliser. Selection priority: kind-specific > MIME-specific >
	// fallback.
	Normalise(ctx context.Context, raw *RawPayload) (*NormaliseResult, error)

	// Register adds a normaliser to the registry.
	Register(normaliser Normaliser)

	// SupportedMIMETypes returns all MIME types that can be normalised.
	SupportedMIMETypes() []string
}
