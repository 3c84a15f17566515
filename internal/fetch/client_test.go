package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abgdnv/shopfront/pkg/config"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBreakerConfig() config.CircuitBreakerConfig {
	return config.CircuitBreakerConfig{
		ConsecutiveFailures: 2,
		ErrorRatePercent:    100,
		OpenTimeout:         time.Minute,
	}
}

func Test_HTTPClient_Get(t *testing.T) {
	testCases := []struct {
		name        string
		status      int
		body        string
		expected    any
		expectError func(t *testing.T, err error)
	}{
		{
			name:     "Success - JSON object",
			status:   http.StatusOK,
			body:     `{"url":"https://httpbin.org/delay/2?query=abcd","args":{"query":"abcd"}}`,
			expected: map[string]any{"url": "https://httpbin.org/delay/2?query=abcd", "args": map[string]any{"query": "abcd"}},
		},
		{
			name:   "Error - non-2xx status",
			status: http.StatusNotFound,
			body:   `{"error":"missing"}`,
			expectError: func(t *testing.T, err error) {
				var statusErr *HTTPStatusError
				require.ErrorAs(t, err, &statusErr)
				assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
				assert.EqualError(t, err, "HTTP 404")
			},
		},
		{
			name:   "Error - invalid JSON",
			status: http.StatusOK,
			body:   `{"broken"`,
			expectError: func(t *testing.T, err error) {
				var transportErr *TransportError
				assert.ErrorAs(t, err, &transportErr)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "application/json", r.Header.Get("Accept"))
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()
			client := NewHTTPClient("test", testBreakerConfig(), nil)

			// when
			value, err := client.Get(context.Background(), server.URL)

			// then
			if tc.expectError != nil {
				tc.expectError(t, err)
				assert.Nil(t, value)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, value)
		})
	}
}

func Test_HTTPClient_Get_Cancelled(t *testing.T) {
	// given
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)
	client := NewHTTPClient("test", testBreakerConfig(), nil)
	ctx, cancel := context.WithCancel(context.Background())

	// when
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := client.Get(ctx, server.URL)

	// then
	assert.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, context.Canceled)
}

func Test_HTTPClient_CircuitBreaker(t *testing.T) {
	// given
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()
	client := NewHTTPClient("test", testBreakerConfig(), nil)

	// when
	for i := 0; i < 3; i++ {
		_, err := client.Get(context.Background(), server.URL)
		var statusErr *HTTPStatusError
		require.ErrorAs(t, err, &statusErr)
	}
	_, err := client.Get(context.Background(), server.URL)

	// then
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, int32(3), hits.Load(), "open breaker short-circuits the call")
}

func Test_HTTPClient_ClientErrorsDoNotTripBreaker(t *testing.T) {
	// given
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()
	client := NewHTTPClient("test", testBreakerConfig(), nil)

	// when
	for i := 0; i < 5; i++ {
		_, _ = client.Get(context.Background(), server.URL)
	}

	// then
	assert.Equal(t, int32(5), hits.Load())
}

func Test_HTTPClient_FreshAttemptBypassesOpenBreaker(t *testing.T) {
	// given
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()
	client := NewHTTPClient("test", testBreakerConfig(), nil)
	for i := 0; i < 3; i++ {
		_, _ = client.Get(context.Background(), server.URL)
	}
	_, err := client.Get(context.Background(), server.URL)
	require.ErrorIs(t, err, gobreaker.ErrOpenState)

	// when
	_, err = client.Get(withFresh(context.Background()), server.URL)

	// then
	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, int32(4), hits.Load())
}
