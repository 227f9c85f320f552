package driven

import (
	"context"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
)

// SourceAdapter fetches raw research material for one source kind.
// Adapters are stateless and safe to call concurrently; each enforces
// its own per-call timeout and, for search-style sources, a maximum
// result count to bound downstream cost.
//
// Failures map to the domain taxonomy:
//   - domain.ErrSourceUnavailable for network errors and timeouts
//   - domain.ErrSourceEmpty when a source yields nothing
//   - domain.ErrSourceFormat when the payload cannot be parsed
type SourceAdapter interface {
	// Kind returns the source kind this adapter produces.
	Kind() domain.SourceKind

	// Fetch retrieves material for a query (search-style adapters) or a
	// URL (fetch-style adapters). Search adapters may return multiple
	// payloads, one per result, up to their configured cap.
	Fetch(ctx context.Context, target string) ([]RawPayload, error)
}

// TranscriptSegment is one timed piece of a video transcript.
type TranscriptSegment struct {
	// StartSeconds is the segment offset from the start of the video.
	StartSeconds float64

	// Text is the spoken text.
	Text string
}

// RawPayload is an adapter's output before normalisation: the Source
// identity plus the opaque bytes that were fetched.
type RawPayload struct {
	// Source identifies where the payload came from.
	Source domain.Source

	// MIMEType is the content type (e.g. "text/html", "application/pdf").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Language is the BCP 47 language tag of the content when the
	// adapter knows it (e.g. the requested caption language); empty
	// otherwise.
	Language string

	// Segments carries transcript segments for transcript sources;
	// nil for every other kind.
	Segments []TranscriptSegment
}
