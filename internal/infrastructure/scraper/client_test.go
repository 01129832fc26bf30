package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powersearch/backend/internal/domain"
)

func newTestClient(baseURL string) *Client {
	return NewClient("test-key", baseURL, 5*time.Second, 3, 100, nil)
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient("key", "http://proxy.example.com", 0, 0, 0, nil)

	assert.NotNil(t, client.httpClient)
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
	assert.Equal(t, 3, client.maxRetries)
	assert.NotNil(t, client.rateLimiter)
	assert.NotNil(t, client.logger)
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, 1000 * time.Millisecond},
		{3, 2000 * time.Millisecond},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, backoff(tt.attempt))
	}
}

func TestFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "test-key", q.Get("api_key"))
		assert.Equal(t, "https://www.example.com/search", q.Get("url"))
		assert.Equal(t, "true", q.Get("render"))
		assert.Equal(t, "gb", q.Get("country_code"))

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>results</html>"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	html, err := client.Fetch(context.Background(), "https://www.example.com/search", Options{
		RenderJS:    true,
		CountryCode: "gb",
	})

	require.NoError(t, err)
	assert.Equal(t, "<html>results</html>", html)
}

func TestFetch_RetriesThenSucceeds(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	html, err := client.Fetch(context.Background(), "https://www.example.com", Options{})

	require.NoError(t, err)
	assert.Equal(t, "<html>ok</html>", html)
	assert.Equal(t, 3, attempts)
}

func TestFetch_ExhaustsRetries(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Fetch(context.Background(), "https://www.example.com", Options{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrScraperAPIFailure)
	assert.Equal(t, 3, attempts)
}

func TestFetch_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Fetch(context.Background(), "https://www.example.com", Options{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.ErrorIs(t, err, domain.ErrScraperAPIFailure)
}

func TestFetch_EmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Fetch(context.Background(), "https://www.example.com", Options{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrScraperAPIFailure)
	assert.Contains(t, err.Error(), "empty response body")
}

func TestFetch_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newTestClient(server.URL)
	_, err := client.Fetch(ctx, "https://www.example.com", Options{})

	require.Error(t, err)
}
