package domain

import (
	"fmt"
	"strings"
	"time"
)

// Citation maps report prose back to the source that supports it.
type Citation struct {
	// SourceID is the cited source.
	SourceID string

	// OriginURL is the source location, for rendering.
	OriginURL string

	// Title is the source title, for rendering.
	Title string
}

// Section is one heading-delimited part of a report.
type Section struct {
	// Heading is the section title without Markdown markers.
	Heading string

	// Body is the section prose in Markdown.
	Body string

	// Citations are the sources whose passages contributed to the body.
	// Empty only when Inference is set.
	Citations []Citation

	// Inference marks a section as model inference rather than
	// evidence-grounded prose.
	Inference bool
}

// Report is the assembled output of a research session, handed to the
// rendering and delivery sinks. The assembler guarantees every
// non-inference section traces to at least one surviving source.
type Report struct {
	// SessionID links back to the session that produced this report.
	SessionID string

	// Title is the report title.
	Title string

	// Topic is the researched topic.
	Topic string

	// Sections are the ordered report sections.
	Sections []Section

	// GeneratedAt is when the report was assembled.
	GeneratedAt time.Time
}

// Validate checks the citation invariant: every non-inference section
// must carry at least one citation.
func (r *Report) Validate() error {
	if r.Title == "" {
		return fmt.Errorf("%w: report has no title", ErrInvalidInput)
	}
	for i := range r.Sections {
		s := &r.Sections[i]
		if !s.Inference && len(s.Citations) == 0 {
			return fmt.Errorf("%w: section %q has no citations", ErrInvalidInput, s.Heading)
		}
	}
	return nil
}

// SourceIDs returns the distinct source IDs cited anywhere in the report.
func (r *Report) SourceIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for i := range r.Sections {
		for _, c := range r.Sections[i].Citations {
			if !seen[c.SourceID] {
				seen[c.SourceID] = true
				ids = append(ids, c.SourceID)
			}
		}
	}
	return ids
}

// Markdown renders the report as a Markdown document. Rendering to other
// formats is the renderer sink's concern; this is the canonical text form.
func (r *Report) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", r.Title)
	for i := range r.Sections {
		s := &r.Sections[i]
		fmt.Fprintf(&b, "\n## %s\n\n%s\n", s.Heading, strings.TrimSpace(s.Body))
		if s.Inference {
			b.WriteString("\n*Model inference, not directly sourced.*\n")
		}
	}
	if refs := r.references(); len(refs) > 0 {
		b.WriteString("\n## References\n\n")
		for _, ref := range refs {
			b.WriteString(ref + "\n")
		}
	}
	return b.String()
}

// references builds the deduplicated reference list in citation order.
func (r *Report) references() []string {
	seen := make(map[string]bool)
	var refs []string
	for i := range r.Sections {
		for _, c := range r.Sections[i].Citations {
			if seen[c.SourceID] {
				continue
			}
			seen[c.SourceID] = true
			title := c.Title
			if title == "" {
				title = c.OriginURL
			}
			refs = append(refs, fmt.Sprintf("- [%s](%s)", title, c.OriginURL))
		}
	}
	return refs
}
