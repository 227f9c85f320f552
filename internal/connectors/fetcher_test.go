package connectors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
)

func TestFetcher_Get_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "inquest")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html>hello</html>"))
	}))
	defer srv.Close()

	f := NewFetcher(WithRate(1000))
	body, mediaType, err := f.Get(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, "text/html", mediaType)
	assert.Equal(t, "<html>hello</html>", string(body))
}

func TestFetcher_Get_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(WithRate(1000))
	_, _, err := f.Get(context.Background(), srv.URL)

	assert.ErrorIs(t, err, domain.ErrSourceEmpty)
}

func TestFetcher_Get_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewFetcher(WithRate(1000))
	_, _, err := f.Get(context.Background(), srv.URL)

	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestFetcher_Get_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	url := srv.URL
	srv.Close()

	f := NewFetcher(WithRate(1000))
	_, _, err := f.Get(context.Background(), url)

	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestFetcher_Get_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := NewFetcher(WithRate(1000))
	_, _, err := f.Get(context.Background(), srv.URL)

	assert.ErrorIs(t, err, domain.ErrSourceEmpty)
}

func TestFetcher_Get_BodyCapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 5000)))
	}))
	defer srv.Close()

	f := NewFetcher(WithRate(1000), WithMaxBytes(1024))
	body, _, err := f.Get(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Len(t, body, 1024)
}

func TestFetcher_Get_InvalidURL(t *testing.T) {
	f := NewFetcher(WithRate(1000))
	_, _, err := f.Get(context.Background(), "http://[::1]:namedport")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFetcher_Get_MissingContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header()["Content-Type"] = nil
		_, _ = w.Write([]byte("raw bytes"))
	}))
	defer srv.Close()

	f := NewFetcher(WithRate(1000))
	_, mediaType, err := f.Get(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", mediaType)
}
