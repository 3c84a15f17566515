package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/abgdnv/shopfront/pkg/config"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Getter performs a single GET for a resource identifier and returns the decoded body.
type Getter interface {
	Get(ctx context.Context, url string) (any, error)
}

type freshKey struct{}

// withFresh marks ctx as an explicit retry: the attempt always reaches the
// network, even while the circuit breaker is open.
func withFresh(ctx context.Context) context.Context {
	return context.WithValue(ctx, freshKey{}, true)
}

func isFresh(ctx context.Context) bool {
	fresh, _ := ctx.Value(freshKey{}).(bool)
	return fresh
}

// HTTPClient fetches JSON documents over HTTP. It has no overall timeout: an
// attempt lasts until it completes or its context is cancelled.
type HTTPClient struct {
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker[struct{}]
	requests metric.Int64Counter
}

// NewHTTPClient creates an HTTPClient whose calls go through a circuit breaker
// named name. A nil transport means http.DefaultTransport.
func NewHTTPClient(name string, cfg config.CircuitBreakerConfig, transport http.RoundTripper) *HTTPClient {
	if transport == nil {
		transport = http.DefaultTransport
	}
	requests, err := otel.Meter("shopfront/fetch").Int64Counter("fetch_requests", metric.WithDescription("Outbound resource requests"))
	if err != nil {
		panic(fmt.Sprintf("failed to create fetch_requests counter: %v", err))
	}
	return &HTTPClient{
		client:   &http.Client{Transport: otelhttp.NewTransport(transport)},
		breaker:  newCircuitBreaker(name, cfg),
		requests: requests,
	}
}

func newCircuitBreaker(name string, cfg config.CircuitBreakerConfig) *gobreaker.CircuitBreaker[struct{}] {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > cfg.ConsecutiveFailures ||
				(counts.Requests > cfg.ConsecutiveFailures &&
					float64(counts.TotalFailures)/float64(counts.Requests)*100 > float64(cfg.ErrorRatePercent))
		},
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, ErrCancelled) {
				return true
			}
			var statusErr *HTTPStatusError
			if errors.As(err, &statusErr) {
				// only upstream faults count against the breaker
				return statusErr.StatusCode < http.StatusInternalServerError
			}
			return false
		},
	}
	return gobreaker.NewCircuitBreaker[struct{}](st)
}

// Get fetches url and decodes the body into a generic JSON value.
func (c *HTTPClient) Get(ctx context.Context, url string) (any, error) {
	var value any
	if err := c.GetJSON(ctx, url, &value); err != nil {
		return nil, err
	}
	return value, nil
}

// GetJSON fetches url and decodes the body into out.
// Errors are *HTTPStatusError, *TransportError, or wrap ErrCancelled when ctx was cancelled.
// Retries issued by a Handle bypass the breaker.
func (c *HTTPClient) GetJSON(ctx context.Context, url string, out any) error {
	if isFresh(ctx) {
		return c.do(ctx, url, out)
	}
	_, err := c.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, c.do(ctx, url, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &TransportError{URL: url, Err: err}
	}
	return err
}

func (c *HTTPClient) do(ctx context.Context, url string, out any) (err error) {
	defer func() {
		c.requests.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome(err))))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &TransportError{URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return classify(ctx, url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &HTTPStatusError{StatusCode: resp.StatusCode, URL: url}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return classify(ctx, url, fmt.Errorf("decode response body: %w", err))
	}
	return nil
}

// classify turns err into a cancellation when ctx is done, otherwise a TransportError.
func classify(ctx context.Context, url string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, ctxErr)
	}
	return &TransportError{URL: url, Err: err}
}

func outcome(err error) string {
	var statusErr *HTTPStatusError
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	case errors.As(err, &statusErr):
		return "http_status"
	default:
		return "transport"
	}
}
