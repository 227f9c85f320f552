package youtube

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/custodia-labs/inquest-cli/internal/connectors"
	"github.com/custodia-labs/inquest-cli/internal/core/domain"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driven"
)

const sampleTimedText = `<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0.5" dur="2.1">Welcome to the channel</text>
  <text start="2.6" dur="3.0">today we talk about Go &amp;#39;generics&amp;#39;</text>
</transcript>`

// newTestAdapter wires both the Data API and timedtext endpoint to
// fake servers.
func newTestAdapter(t *testing.T, apiHandler, captionsHandler http.HandlerFunc) *Adapter {
	t.Helper()

	apiSrv := httptest.NewServer(apiHandler)
	t.Cleanup(apiSrv.Close)
	captionsSrv := httptest.NewServer(captionsHandler)
	t.Cleanup(captionsSrv.Close)

	fetcher := connectors.NewFetcher(connectors.WithRate(1000))
	adapter, err := New(context.Background(), "test-key", fetcher,
		[]Option{WithTimedTextURL(captionsSrv.URL)},
		option.WithEndpoint(apiSrv.URL),
		option.WithHTTPClient(apiSrv.Client()),
	)
	require.NoError(t, err)
	return adapter
}

func videoListResponse(titles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := &yt.VideoListResponse{}
		for _, title := range titles {
			resp.Items = append(resp.Items, &yt.Video{Snippet: &yt.VideoSnippet{Title: title}})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func serveXML(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(body))
	}
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(context.Background(), "", nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestKind(t *testing.T) {
	adapter := newTestAdapter(t, videoListResponse("x"), serveXML(sampleTimedText))
	assert.Equal(t, domain.KindTranscript, adapter.Kind())
}

func TestFetch_Success(t *testing.T) {
	adapter := newTestAdapter(t, videoListResponse("Go Generics Explained"), serveXML(sampleTimedText))

	payloads, err := adapter.Fetch(context.Background(), "https://www.youtube.com/watch?v=abc123")
	require.NoError(t, err)
	require.Len(t, payloads, 1)

	payload := payloads[0]
	assert.Equal(t, domain.KindTranscript, payload.Source.Kind)
	assert.Equal(t, "Go Generics Explained", payload.Source.Title)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", payload.Source.OriginURL)
	assert.Equal(t, "application/x-transcript", payload.MIMEType)
	assert.Equal(t, "en", payload.Language)

	require.Len(t, payload.Segments, 2)
	assert.Equal(t, 0.5, payload.Segments[0].StartSeconds)
	assert.Equal(t, "Welcome to the channel", payload.Segments[0].Text)
	assert.Equal(t, "today we talk about Go 'generics'", payload.Segments[1].Text)
}

func TestFetch_VideoNotFound(t *testing.T) {
	adapter := newTestAdapter(t, videoListResponse(), serveXML(sampleTimedText))

	_, err := adapter.Fetch(context.Background(), "https://youtu.be/gone123")
	assert.ErrorIs(t, err, domain.ErrSourceEmpty)
}

func TestFetch_NoCaptions(t *testing.T) {
	adapter := newTestAdapter(t, videoListResponse("Title"), serveXML(`<transcript></transcript>`))

	_, err := adapter.Fetch(context.Background(), "https://youtu.be/abc123")
	assert.ErrorIs(t, err, domain.ErrSourceEmpty)
}

func TestFetch_MalformedCaptions(t *testing.T) {
	adapter := newTestAdapter(t, videoListResponse("Title"), serveXML(`{"not": "xml"}`))

	_, err := adapter.Fetch(context.Background(), "https://youtu.be/abc123")
	assert.ErrorIs(t, err, domain.ErrSourceFormat)
}

func TestFetch_InvalidURL(t *testing.T) {
	adapter := newTestAdapter(t, videoListResponse("Title"), serveXML(sampleTimedText))

	_, err := adapter.Fetch(context.Background(), "https://example.com/watch?v=abc")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"watch with extra params", "https://youtube.com/watch?v=abc123&t=42s", "abc123", false},
		{"short link", "https://youtu.be/abc123", "abc123", false},
		{"shorts", "https://www.youtube.com/shorts/xyz789", "xyz789", false},
		{"embed", "https://www.youtube.com/embed/xyz789", "xyz789", false},
		{"live", "https://www.youtube.com/live/stream1", "stream1", false},
		{"mobile", "https://m.youtube.com/watch?v=abc123", "abc123", false},
		{"not youtube", "https://vimeo.com/12345", "", true},
		{"watch without id", "https://www.youtube.com/watch", "", true},
		{"bare short link", "https://youtu.be/", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractVideoID(tc.url)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.SourceAdapter = (*Adapter)(nil)
}
