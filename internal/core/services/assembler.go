package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/inquest-cli/internal/logger"
)

// sourceMarkerRe matches [S1]-style markers in the answer text.
var sourceMarkerRe = regexp.MustCompile(`\[S(\d+)\]`)

// Assembler turns the model's final answer into a structured report.
// It splits the answer on Markdown headings and resolves [S#] markers
// against the session's sources in fetch order, so a citation of a
// source that never survived gathering simply resolves to nothing.
type Assembler struct {
	sources driven.SourceStore
}

// NewAssembler creates an assembler.
func NewAssembler(sources driven.SourceStore) *Assembler {
	return &Assembler{sources: sources}
}

// Assemble builds and validates a report from the answer text.
func (a *Assembler) Assemble(ctx context.Context, session *domain.Session, answer string) (*domain.Report, error) {
	sources, err := a.sources.ListSources(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}

	report := &domain.Report{
		SessionID:   session.ID,
		Title:       "Research: " + session.Topic,
		Topic:       session.Topic,
		GeneratedAt: time.Now().UTC(),
	}

	for _, raw := range splitSections(answer) {
		// The model's own reference list is dropped: the canonical one
		// is regenerated from the resolved citations on render.
		if strings.EqualFold(raw.heading, "References") {
			continue
		}

		citations := a.resolveCitations(raw.body, sources)
		report.Sections = append(report.Sections, domain.Section{
			Heading:   raw.heading,
			Body:      stripMarkers(raw.body),
			Citations: citations,
			Inference: len(citations) == 0,
		})
	}

	if len(report.Sections) == 0 {
		return nil, fmt.Errorf("%w: answer produced no sections", domain.ErrInvalidInput)
	}
	if err := report.Validate(); err != nil {
		return nil, err
	}

	logger.Info("Assembled report: %d sections, %d cited sources",
		len(report.Sections), len(report.SourceIDs()))
	return report, nil
}

// rawSection is a heading-delimited slice of the answer text.
type rawSection struct {
	heading string
	body    string
}

// splitSections cuts the answer on "## " headings. Text before the
// first heading becomes a Summary section; an answer with no headings
// at all becomes a single Summary.
func splitSections(answer string) []rawSection {
	var (
		sections []rawSection
		current  = rawSection{heading: "Summary"}
		body     strings.Builder
	)

	flush := func() {
		current.body = strings.TrimSpace(body.String())
		if current.body != "" {
			sections = append(sections, current)
		}
		body.Reset()
	}

	for _, line := range strings.Split(answer, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "## ") {
			flush()
			current = rawSection{heading: strings.TrimSpace(strings.TrimPrefix(trimmed, "## "))}
			continue
		}
		// A top-level title line duplicates the report title.
		if strings.HasPrefix(trimmed, "# ") && body.Len() == 0 && len(sections) == 0 {
			continue
		}
		body.WriteString(line)
		body.WriteString("\n")
	}
	flush()

	return sections
}

// resolveCitations maps [S#] markers in the body onto sources by fetch
// order, first marker first. Markers pointing past the source list are
// ignored; the model sometimes invents ordinals.
func (a *Assembler) resolveCitations(body string, sources []domain.Source) []domain.Citation {
	seen := make(map[int]bool)
	var citations []domain.Citation

	for _, match := range sourceMarkerRe.FindAllStringSubmatch(body, -1) {
		ordinal, err := strconv.Atoi(match[1])
		if err != nil || ordinal < 1 || ordinal > len(sources) {
			logger.Debug("dropping citation marker %s: no such source", match[0])
			continue
		}
		if seen[ordinal] {
			continue
		}
		seen[ordinal] = true

		source := sources[ordinal-1]
		citations = append(citations, domain.Citation{
			SourceID:  source.ID,
			OriginURL: source.OriginURL,
			Title:     source.Title,
		})
	}

	return citations
}

// stripMarkers removes [S#] markers from rendered prose.
func stripMarkers(body string) string {
	cleaned := sourceMarkerRe.ReplaceAllString(body, "")
	// Collapse the double spaces markers leave behind.
	cleaned = strings.ReplaceAll(cleaned, "  ", " ")
	return strings.TrimSpace(cleaned)
}
