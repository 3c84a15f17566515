package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/abgdnv/shopfront/internal/fetch"
	"github.com/abgdnv/shopfront/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient() *fetch.HTTPClient {
	return fetch.NewHTTPClient("feed-test", config.CircuitBreakerConfig{
		ConsecutiveFailures: 5,
		ErrorRatePercent:    100,
		OpenTimeout:         time.Minute,
	}, nil)
}

func Test_HTTPSource_PageURL(t *testing.T) {
	testCases := []struct {
		name     string
		baseURL  string
		expected string
	}{
		{
			name:     "plain collection",
			baseURL:  "https://jsonplaceholder.typicode.com/posts",
			expected: "https://jsonplaceholder.typicode.com/posts?_limit=5&_page=2",
		},
		{
			name:     "existing query is kept",
			baseURL:  "https://example.test/posts?userId=1",
			expected: "https://example.test/posts?_limit=5&_page=2&userId=1",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			source, err := NewHTTPSource(tc.baseURL, testClient())
			require.NoError(t, err)
			// when
			got := source.PageURL(2, 5)
			// then
			assert.Equal(t, tc.expected, got)
		})
	}
}

func Test_HTTPSource_FetchPage(t *testing.T) {
	// given
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/posts", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("_page"))
		assert.Equal(t, "2", r.URL.Query().Get("_limit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"userId":1,"id":5,"title":"a","body":"x"},{"userId":2,"id":6,"title":"b","body":"y"}]`))
	}))
	defer server.Close()
	source, err := NewHTTPSource(server.URL+"/posts", testClient())
	require.NoError(t, err)

	// when
	posts, err := source.FetchPage(context.Background(), 3, 2)

	// then
	require.NoError(t, err)
	assert.Equal(t, []Post{
		{UserID: 1, ID: 5, Title: "a", Body: "x"},
		{UserID: 2, ID: 6, Title: "b", Body: "y"},
	}, posts)
}

func Test_HTTPSource_FetchPage_StatusError(t *testing.T) {
	// given
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()
	source, err := NewHTTPSource(server.URL, testClient())
	require.NoError(t, err)

	// when
	posts, err := source.FetchPage(context.Background(), 1, 5)

	// then
	var statusErr *fetch.HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.Nil(t, posts)
}
