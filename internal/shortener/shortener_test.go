package shortener

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marianozunino/dropqr/internal/config"
)

const longURL = "https://host.example/download/1700000000000-42.txt"

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *int32) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestIsGdSuccess(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, longURL, r.URL.Query().Get("url"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{ "shorturl": "https://is.gd/abc123" }`)
	})

	res := NewIsGd(srv.URL, time.Second).Shorten(context.Background(), longURL)

	assert.False(t, res.Degraded)
	assert.Equal(t, "https://is.gd/abc123", res.URL)
	assert.Empty(t, res.Reason)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestIsGdProviderError(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{ "errorcode": 1, "errormessage": "Please specify a valid URL to shorten." }`)
	})

	res := NewIsGd(srv.URL, time.Second).Shorten(context.Background(), longURL)

	assert.True(t, res.Degraded)
	assert.Equal(t, longURL, res.URL)
	assert.Contains(t, res.Reason, "valid URL")
}

func TestTinyURLPlainText(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, longURL, r.URL.Query().Get("url"))
		assert.Empty(t, r.URL.Query().Get("format"))
		fmt.Fprint(w, "https://tinyurl.com/xyz\n")
	})

	res := NewTinyURL(srv.URL, time.Second).Shorten(context.Background(), longURL)

	assert.False(t, res.Degraded)
	assert.Equal(t, "https://tinyurl.com/xyz", res.URL)
}

func TestShortenDegrades(t *testing.T) {
	testCases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "rate limited",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
				fmt.Fprint(w, `{"shorturl":"https://is.gd/ignored"}`)
			},
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"shorturl": `)
			},
		},
		{
			name: "json without url",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"status": "ok"}`)
			},
		},
		{
			name: "html page",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `<html><body>maintenance</body></html>`)
			},
		},
		{
			name: "empty body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			},
		},
		{
			name: "error field",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"error": "quota exceeded", "short_url": "https://s.example/x"}`)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv, calls := newTestServer(t, tc.handler)

			res := NewIsGd(srv.URL, time.Second).Shorten(context.Background(), longURL)

			assert.True(t, res.Degraded)
			assert.Equal(t, longURL, res.URL)
			assert.NotEmpty(t, res.Reason)
			assert.Equal(t, int32(1), atomic.LoadInt32(calls), "must not retry")
		})
	}
}

func TestShortenTimeout(t *testing.T) {
	release := make(chan struct{})
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	start := time.Now()
	res := NewIsGd(srv.URL, 100*time.Millisecond).Shorten(context.Background(), longURL)

	assert.True(t, res.Degraded)
	assert.Equal(t, longURL, res.URL)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestShortenUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	res := NewIsGd(endpoint, time.Second).Shorten(context.Background(), longURL)

	assert.True(t, res.Degraded)
	assert.Equal(t, longURL, res.URL)
	assert.Equal(t, "request failed", res.Reason)
}

func TestShortenCancelledContext(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "https://tinyurl.com/xyz")
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := NewTinyURL(srv.URL, time.Second).Shorten(ctx, longURL)
	assert.True(t, res.Degraded)
}

func TestFromConfig(t *testing.T) {
	s, err := FromConfig(config.ShortenerConfig{Provider: config.ProviderIsGd, Timeout: time.Second})
	require.NoError(t, err)
	isgd, ok := s.(*Client)
	require.True(t, ok)
	assert.Equal(t, IsGdEndpoint, isgd.endpoint)

	s, err = FromConfig(config.ShortenerConfig{Provider: config.ProviderTinyURL, Endpoint: "http://tiny.local", Timeout: time.Second})
	require.NoError(t, err)
	tiny, ok := s.(*Client)
	require.True(t, ok)
	assert.Equal(t, "http://tiny.local", tiny.endpoint)

	s, err = FromConfig(config.ShortenerConfig{Provider: config.ProviderNone})
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = FromConfig(config.ShortenerConfig{})
	require.NoError(t, err)
	assert.Nil(t, s)

	_, err = FromConfig(config.ShortenerConfig{Provider: "bitly"})
	assert.Error(t, err)
}
