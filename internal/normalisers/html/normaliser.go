// Package html normalises HTML payloads into Markdown-flavoured text.
package html

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/inquest-cli/internal/normalisers/truncate"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents. Markup and boilerplate are
// stripped; heading structure is preserved as Markdown headings.
type Normaliser struct {
	maxChars int
}

// Option configures the HTML normaliser.
type Option func(*Normaliser)

// WithMaxChars bounds document length; longer payloads keep head and
// tail and drop the middle.
func WithMaxChars(n int) Option {
	return func(h *Normaliser) {
		h.maxChars = n
	}
}

// New creates a new HTML normaliser.
func New(opts ...Option) *Normaliser {
	n := &Normaliser{}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// SupportedSourceKinds returns source kinds for specialised handling.
func (n *Normaliser) SupportedSourceKinds() []domain.SourceKind {
	return nil // All kinds
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser, higher than plaintext
}

// Normalise converts an HTML payload into a Markdown document.
func (n *Normaliser) Normalise(_ context.Context, raw *driven.RawPayload) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	rawContent := string(raw.Content)

	title := extractTitle(rawContent, raw.Source.Title)
	content := toMarkdown(rawContent)
	if content == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrNormalization, raw.Source.OriginURL)
	}

	content, truncated := truncate.Middle(content, n.maxChars)

	doc := domain.Document{
		ID:        uuid.New().String(),
		SourceID:  raw.Source.ID,
		Title:     title,
		Content:   content,
		Language:  extractLanguage(rawContent, raw.Language),
		Truncated: truncated,
		CreatedAt: time.Now().UTC(),
	}

	return &driven.NormaliseResult{Document: doc}, nil
}

// Pre-compiled regular expressions for HTML parsing performance.
var (
	titleTag      = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	htmlLangAttr  = regexp.MustCompile(`(?i)<html[^>]*\slang\s*=\s*["']?([a-zA-Z-]+)`)
	scriptTag     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag      = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptTag   = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	headTag       = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	svgTag        = regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`)
	navTag        = regexp.MustCompile(`(?is)<(nav|footer|aside)[^>]*>.*?</(nav|footer|aside)>`)
	htmlComments  = regexp.MustCompile(`(?s)<!--.*?-->`)
	headingOpen   = regexp.MustCompile(`(?i)<h([1-6])[^>]*>`)
	headingClose  = regexp.MustCompile(`(?i)</h[1-6]>`)
	listItemOpen  = regexp.MustCompile(`(?i)<li[^>]*>`)
	blockClose    = regexp.MustCompile(`(?i)</(p|div|li|tr|blockquote|pre|table|section|article)>`)
	brTags        = regexp.MustCompile(`(?i)<br\s*/?>`)
	allTags       = regexp.MustCompile(`<[^>]+>`)
	multiSpaces   = regexp.MustCompile(`[ \t]+`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// extractTitle extracts a title from the <title> tag, falling back to
// the title the source adapter supplied.
func extractTitle(content, fallback string) string {
	matches := titleTag.FindStringSubmatch(content)
	if len(matches) > 1 {
		title := strings.TrimSpace(html.UnescapeString(matches[1]))
		if title != "" {
			return title
		}
	}
	return fallback
}

// extractLanguage reads the lang attribute off the <html> tag, falling
// back to the language the source adapter supplied. Best effort.
func extractLanguage(content, fallback string) string {
	matches := htmlLangAttr.FindStringSubmatch(content)
	if len(matches) > 1 {
		return strings.ToLower(matches[1])
	}
	return fallback
}

// toMarkdown strips boilerplate markup and keeps heading structure as
// Markdown heading markers.
func toMarkdown(content string) string {
	content = htmlComments.ReplaceAllString(content, "")
	content = headTag.ReplaceAllString(content, "")
	content = scriptTag.ReplaceAllString(content, "")
	content = styleTag.ReplaceAllString(content, "")
	content = noscriptTag.ReplaceAllString(content, "")
	content = svgTag.ReplaceAllString(content, "")
	content = navTag.ReplaceAllString(content, "")

	// Headings become Markdown before the remaining tags are dropped.
	content = headingOpen.ReplaceAllStringFunc(content, func(tag string) string {
		level := headingOpen.FindStringSubmatch(tag)[1]
		depth := int(level[0] - '0')
		return "\n\n" + strings.Repeat("#", depth) + " "
	})
	content = headingClose.ReplaceAllString(content, "\n\n")

	content = listItemOpen.ReplaceAllString(content, "\n- ")
	content = brTags.ReplaceAllString(content, "\n")
	content = blockClose.ReplaceAllString(content, "\n\n")
	content = allTags.ReplaceAllString(content, "")

	content = html.UnescapeString(content)
	content = multiSpaces.ReplaceAllString(content, " ")

	// Trim per-line whitespace before collapsing blank runs.
	lines := strings.Split(content, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	content = strings.Join(lines, "\n")
	content = multiNewlines.ReplaceAllString(content, "\n\n")

	return strings.TrimSpace(content)
}
