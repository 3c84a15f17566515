package telemetry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
)

func Test_NewMeterProvider_ServesCounters(t *testing.T) {
	// given
	m, err := NewMeterProvider("shopfront-test")
	require.NoError(t, err)
	defer func() { _ = m.Shutdown(context.Background()) }()

	counter, err := m.Provider.Meter("test").Int64Counter("fetch_cache_hits", metric.WithDescription("hits"))
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	// when
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	// then
	require.Equal(t, http.StatusOK, rr.Code)
	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "fetch_cache_hits_total")
	assert.Contains(t, string(body), "go_goroutines")
}
