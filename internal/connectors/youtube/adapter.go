// Package youtube adapts YouTube videos into transcript payloads.
//
// Video metadata comes from the YouTube Data API; the transcript itself
// comes from the public timedtext endpoint, which serves the same
// caption tracks the player uses without needing channel-owner OAuth.
package youtube

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/custodia-labs/inquest-cli/internal/connectors"
	"github.com/custodia-labs/inquest-cli/internal/core/domain"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driven"
)

// Ensure Adapter implements the interface.
var _ driven.SourceAdapter = (*Adapter)(nil)

// DefaultTimedTextURL is the caption track endpoint.
const DefaultTimedTextURL = "https://video.google.com/timedtext"

// Adapter fetches a video's transcript and title.
type Adapter struct {
	svc          *yt.Service
	fetcher      *connectors.Fetcher
	timedTextURL string
	language     string
}

// Option configures the adapter.
type Option func(*Adapter)

// WithLanguage sets the preferred caption language code (default "en").
func WithLanguage(lang string) Option {
	return func(a *Adapter) {
		if lang != "" {
			a.language = lang
		}
	}
}

// WithTimedTextURL overrides the caption endpoint. Used in tests.
func WithTimedTextURL(u string) Option {
	return func(a *Adapter) {
		if u != "" {
			a.timedTextURL = u
		}
	}
}

// New creates a YouTube adapter. Extra client options are passed to the
// Data API client, which tests use to point at a fake server.
func New(ctx context.Context, apiKey string, fetcher *connectors.Fetcher, opts []Option, clientOpts ...option.ClientOption) (*Adapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: youtube requires an api key", domain.ErrInvalidInput)
	}

	svc, err := yt.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, clientOpts...)...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	a := &Adapter{
		svc:          svc,
		fetcher:      fetcher,
		timedTextURL: DefaultTimedTextURL,
		language:     "en",
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Kind returns the source kind this adapter produces.
func (a *Adapter) Kind() domain.SourceKind {
	return domain.KindTranscript
}

// Fetch retrieves the transcript for the video at target.
func (a *Adapter) Fetch(ctx context.Context, target string) ([]driven.RawPayload, error) {
	videoID, err := ExtractVideoID(target)
	if err != nil {
		return nil, err
	}

	title, err := a.videoTitle(ctx, videoID)
	if err != nil {
		return nil, err
	}

	segments, err := a.transcript(ctx, videoID)
	if err != nil {
		return nil, err
	}

	return []driven.RawPayload{{
		Source: domain.Source{
			ID:        uuid.New().String(),
			Kind:      domain.KindTranscript,
			OriginURL: target,
			Title:     title,
			FetchedAt: time.Now().UTC(),
		},
		MIMEType: "application/x-transcript",
		Language: a.language,
		Segments: segments,
	}}, nil
}

// videoTitle looks up the video's title via the Data API.
func (a *Adapter) videoTitle(ctx context.Context, videoID string) (string, error) {
	resp, err := a.svc.Videos.List([]string{"snippet"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("%w: video lookup: %v", domain.ErrSourceUnavailable, err)
	}
	if len(resp.Items) == 0 {
		return "", fmt.Errorf("%w: video %s not found", domain.ErrSourceEmpty, videoID)
	}
	return resp.Items[0].Snippet.Title, nil
}

// timedText mirrors the caption endpoint's XML schema.
type timedText struct {
	XMLName xml.Name `xml:"transcript"`
	Texts   []struct {
		Start float64 `xml:"start,attr"`
		Dur   float64 `xml:"dur,attr"`
		Body  string  `xml:",chardata"`
	} `xml:"text"`
}

// transcript fetches and parses the caption track.
func (a *Adapter) transcript(ctx context.Context, videoID string) ([]driven.TranscriptSegment, error) {
	captionsURL := fmt.Sprintf("%s?lang=%s&v=%s", a.timedTextURL, url.QueryEscape(a.language), url.QueryEscape(videoID))

	body, _, err := a.fetcher.Get(ctx, captionsURL)
	if err != nil {
		return nil, err
	}

	var parsed timedText
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: caption track for %s: %v", domain.ErrSourceFormat, videoID, err)
	}
	if len(parsed.Texts) == 0 {
		return nil, fmt.Errorf("%w: no captions for %s", domain.ErrSourceEmpty, videoID)
	}

	segments := make([]driven.TranscriptSegment, 0, len(parsed.Texts))
	for _, text := range parsed.Texts {
		// Caption bodies arrive double-escaped (&amp;#39; and friends).
		segments = append(segments, driven.TranscriptSegment{
			StartSeconds: text.Start,
			Text:         html.UnescapeString(text.Body),
		})
	}
	return segments, nil
}

// ExtractVideoID pulls the video identifier out of the URL forms
// YouTube serves: watch, short links, shorts, and embeds.
func ExtractVideoID(target string) (string, error) {
	parsed, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrInvalidInput, target)
	}

	host := strings.TrimPrefix(parsed.Hostname(), "www.")
	switch host {
	case "youtu.be":
		if id := strings.Trim(parsed.Path, "/"); id != "" {
			return id, nil
		}
	case "youtube.com", "m.youtube.com":
		if id := parsed.Query().Get("v"); id != "" {
			return id, nil
		}
		for _, prefix := range []string{"/shorts/", "/embed/", "/live/"} {
			if rest, ok := strings.CutPrefix(parsed.Path, prefix); ok && rest != "" {
				return strings.SplitN(rest, "/", 2)[0], nil
			}
		}
	}

	return "", fmt.Errorf("%w: no video id in %s", domain.ErrInvalidInput, target)
}
