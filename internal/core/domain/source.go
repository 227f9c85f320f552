package domain

import "time"

// SourceKind identifies the kind of material a source adapter produces.
type SourceKind string

// Available source kinds.
const (
	// KindSearchResult is a single hit from a web search engine.
	KindSearchResult SourceKind = "search_result"

	// KindWebPage is a directly fetched web page.
	KindWebPage SourceKind = "web_page"

	// KindPDF is a PDF document.
	KindPDF SourceKind = "pdf"

	// KindTranscript is a video transcript.
	KindTranscript SourceKind = "transcript"
)

// IsValid returns true if the source kind is recognised.
func (k SourceKind) IsValid() bool {
	switch k {
	case KindSearchResult, KindWebPage, KindPDF, KindTranscript:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k SourceKind) String() string {
	return string(k)
}

// Source represents one piece of fetched research material.
// A Source is immutable once fetched; re-fetching produces a new Source.
type Source struct {
	// ID is the unique identifier for the source.
	ID string

	// Kind identifies the adapter that produced this source.
	Kind SourceKind

	// OriginURL is the location the material was fetched from.
	OriginURL string

	// Title is the human-readable title, when the source provides one.
	Title string

	// FetchedAt is when the material was retrieved.
	FetchedAt time.Time
}

// DisplayName returns the title, falling back to the origin URL for
// sources that carry no title of their own.
func (s *Source) DisplayName() string {
	if s.Title != "" {
		return s.Title
	}
	return s.OriginURL
}
