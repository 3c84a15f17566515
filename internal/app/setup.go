// Package app contains the application setup for shopfront.
package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/shopfront/internal/catalog"
	"github.com/abgdnv/shopfront/internal/config"
	"github.com/abgdnv/shopfront/internal/feed"
	"github.com/abgdnv/shopfront/internal/fetch"
	"github.com/abgdnv/shopfront/internal/service"
	"github.com/abgdnv/shopfront/internal/store"
	grpcImpl "github.com/abgdnv/shopfront/internal/transport/grpc"
	"github.com/abgdnv/shopfront/internal/transport/rest"
	"github.com/abgdnv/shopfront/pkg/messaging"
	"github.com/abgdnv/shopfront/pkg/server"
	"github.com/go-chi/chi/v5"
	"google.golang.org/grpc"
)

const ServiceName = "shopfront"

type Dependencies struct {
	SessionService *service.Service
	Health         *grpcImpl.Health
	Cache          *fetch.Cache
	MetricsHandler http.Handler
	MetricsPath    string
	Logger         *slog.Logger
}

// SetupDependencies builds the session service. The resource cache is created
// here once and shared by every session. metrics may be nil.
func SetupDependencies(cfg *config.Config, publisher messaging.Publisher, metrics http.Handler, logger *slog.Logger) (*Dependencies, error) {
	// separate breakers: feed failures must not short-circuit the resource fetch
	resource := fetch.NewHTTPClient("resource", cfg.Upstream.CircuitBreaker, nil)
	source, err := feed.NewHTTPSource(cfg.Upstream.FeedURL, fetch.NewHTTPClient("feed", cfg.Upstream.CircuitBreaker, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create feed source: %w", err)
	}
	cache := fetch.NewCache()

	svc := service.NewService(
		store.NewInMemoryStore(catalog.MockProducts()),
		cache,
		resource,
		source,
		publisher,
		service.Options{ResourceURL: cfg.Upstream.ResourceURL, PageSize: cfg.Upstream.PageSize},
		logger,
	)

	deps := &Dependencies{
		SessionService: svc,
		Health:         grpcImpl.NewHealth(svc),
		Cache:          cache,
		Logger:         logger,
	}
	if metrics != nil && cfg.Telemetry.Metrics.Enabled {
		deps.MetricsHandler = metrics
		deps.MetricsPath = cfg.Telemetry.Metrics.Path
	}
	return deps, nil
}

// SetupHttpHandler initializes the routes and middleware of the HTTP server.
// Used by tests to exercise the full HTTP stack.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the shopfront application.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	handler := rest.NewHandler(deps.SessionService, deps.Logger)
	handler.RegisterRoutes(mux)
	if deps.MetricsHandler != nil {
		mux.Method(http.MethodGet, deps.MetricsPath, deps.MetricsHandler)
	}
}

// SetupHttpServer creates and configures the HTTP server.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {

	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, ServiceName, mux)
}

// SetupGrpcServer initializes the gRPC server with the health service.
func SetupGrpcServer(deps *Dependencies, reflectionEnabled bool) *grpc.Server {
	return server.NewGRPCServer(deps.Logger, reflectionEnabled, deps.Health.Register)
}
