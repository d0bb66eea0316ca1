package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ReviewPipeline/internal/domain"
)

func TestHTTPFetcherSuccess(t *testing.T) {
	t.Parallel()

	var gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer server.Close()

	f := NewHTTPFetcher(nil, "review-test/1.0", nil)
	outcome := f.Fetch(context.Background(), server.URL, time.Second)

	require.Equal(t, domain.FetchSuccess, outcome.Kind)
	require.Contains(t, string(outcome.HTML), "ok")
	require.Equal(t, "review-test/1.0", gotAgent)
}

func TestHTTPFetcherNon2xxIsTransportError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	outcome := NewHTTPFetcher(nil, "", nil).Fetch(context.Background(), server.URL, time.Second)

	require.Equal(t, domain.FetchTransportError, outcome.Kind)
	require.Contains(t, outcome.Detail, "403")
}

func TestHTTPFetcherTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	outcome := NewHTTPFetcher(nil, "", nil).Fetch(context.Background(), server.URL, 50*time.Millisecond)

	require.Equal(t, domain.FetchTimeout, outcome.Kind)
}

func TestHTTPFetcherConnectionRefused(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	outcome := NewHTTPFetcher(nil, "", nil).Fetch(context.Background(), addr, time.Second)

	require.Equal(t, domain.FetchTransportError, outcome.Kind)
	require.NotEmpty(t, outcome.Detail)
}

func TestHTTPFetcherEmptyBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	outcome := NewHTTPFetcher(nil, "", nil).Fetch(context.Background(), server.URL, time.Second)

	require.Equal(t, domain.FetchEmptyOrMalformed, outcome.Kind)
}
