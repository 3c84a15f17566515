// Package rest exposes the product listing and its sessions over HTTP.
package rest

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/abgdnv/shopfront/internal/catalog"
	shoperrors "github.com/abgdnv/shopfront/internal/errors"
	"github.com/abgdnv/shopfront/internal/feed"
	"github.com/abgdnv/shopfront/internal/service"
	"github.com/abgdnv/shopfront/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const sessionsPath = "/api/v1/sessions"

type Handler struct {
	service  service.SessionService
	validate *validator.Validate
	logger   *slog.Logger
}

// OpenSessionRequest is the optional body of POST /sessions.
type OpenSessionRequest struct {
	Location string `json:"location" validate:"max=2048"`
}

// ProductsResponse is the result of a stateless catalog query.
type ProductsResponse struct {
	Criteria catalog.Criteria  `json:"criteria"`
	Location string            `json:"location"`
	Products []catalog.Product `json:"products"`
}

// NewHandler creates a new Handler with the provided service.
func NewHandler(service service.SessionService, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes of the listing.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", h.FindProducts)
		r.Get("/products/{productID}", h.GetProduct)
		r.Get("/categories", h.Categories)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.OpenSession)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetSession)
				r.Delete("/", h.CloseSession)
				r.Patch("/filters", h.ApplyFilters)
				r.Get("/resource", h.Resource)
				r.Post("/resource/retry", h.RetryResource)
				r.Get("/posts", h.Posts)
				r.Post("/posts/more", h.LoadMorePosts)
				r.Post("/posts/load", h.LoadPostsPage)
			})
		})
	})

	r.Get("/healthz", h.HealthCheck)
	r.Get("/readyz", h.ReadinessCheck)
}

// FindProducts filters the catalog by the query parameters of the request.
func (h *Handler) FindProducts(w http.ResponseWriter, r *http.Request) {
	criteria := catalog.ParseQuery(r.URL.Query())
	h.logger.DebugContext(r.Context(), "Received request to find products", "criteria", criteria)

	products, err := h.service.FindProducts(r.Context(), criteria)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Error filtering products", "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	location := r.URL.Path + "?" + catalog.EncodeQuery(criteria).Encode()
	w.Header().Set("Content-Location", location)
	web.RespondJSON(w, h.logger, http.StatusOK, ProductsResponse{Criteria: criteria, Location: location, Products: products})
}

// GetProduct returns one catalog product.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "productID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		web.RespondError(w, h.logger, http.StatusBadRequest, fmt.Sprintf("Invalid product ID: %s", raw))
		return
	}
	product, err := h.service.FindProduct(r.Context(), id)
	if errors.Is(err, shoperrors.ErrProductNotFound) {
		web.RespondError(w, h.logger, http.StatusNotFound, fmt.Sprintf("Product with ID %d not found", id))
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Error fetching product", "ID", id, "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, "Internal server error")
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, product)
}

// Categories lists the distinct catalog categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Error listing categories", "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, "Failed to fetch categories")
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, categories)
}

// OpenSession creates a session, optionally starting from a location such as "?q=lap".
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	var req OpenSessionRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		h.logger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		web.RespondValidationError(w, r, h.logger, err)
		return
	}

	view, err := h.service.Open(r.Context(), req.Location)
	if err != nil {
		h.respondServiceError(w, r, uuid.Nil, err)
		return
	}
	h.logger.InfoContext(r.Context(), "Session opened successfully", "ID", view.ID)
	w.Header().Set("Location", fmt.Sprintf("%s/%s", sessionsPath, view.ID))
	w.Header().Set("Content-Location", view.Location)
	web.RespondJSON(w, h.logger, http.StatusCreated, view)
}

// GetSession renders a session: criteria, location and matching products.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	view, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, id, err)
		return
	}
	w.Header().Set("Content-Location", view.Location)
	web.RespondJSON(w, h.logger, http.StatusOK, view)
}

// ApplyFilters merges the body into the session's filters.
func (h *Handler) ApplyFilters(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	var override catalog.Override
	if err := web.DecodeJSON(r, &override); err != nil {
		h.logger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(override); err != nil {
		web.RespondValidationError(w, r, h.logger, err)
		return
	}

	h.logger.DebugContext(r.Context(), "Received request to apply filters", "ID", id)
	view, err := h.service.ApplyFilters(r.Context(), id, override)
	if err != nil {
		h.respondServiceError(w, r, id, err)
		return
	}
	w.Header().Set("Content-Location", view.Location)
	web.RespondJSON(w, h.logger, http.StatusOK, view)
}

// Resource returns the session's resource; ?wait=true blocks until it settles.
func (h *Handler) Resource(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	wait, ok := web.ParseBool(r, w, h.logger, "wait")
	if !ok {
		return
	}
	view, err := h.service.Resource(r.Context(), id, wait)
	if err != nil {
		h.respondServiceError(w, r, id, err)
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, view)
}

// RetryResource discards the cached resource and fetches it again.
func (h *Handler) RetryResource(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	view, err := h.service.RetryResource(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, id, err)
		return
	}
	web.RespondJSON(w, h.logger, http.StatusAccepted, view)
}

func (h *Handler) Posts(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	view, err := h.service.Posts(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, id, err)
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, view)
}

func (h *Handler) LoadMorePosts(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	view, err := h.service.LoadMorePosts(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, id, err)
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, view)
}

// LoadPostsPage loads ?page=n and appends it, even if it was loaded before.
func (h *Handler) LoadPostsPage(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	page, ok := web.ParseValidateGte(r, w, h.logger, "page", 1)
	if !ok {
		return
	}
	view, err := h.service.LoadPostsPage(r.Context(), id, page)
	if err != nil {
		h.respondServiceError(w, r, id, err)
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, view)
}

// CloseSession tears a session down.
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.service.Close(r.Context(), id); err != nil {
		h.respondServiceError(w, r, id, err)
		return
	}
	h.logger.InfoContext(r.Context(), "Session closed successfully", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// ReadinessCheck fails once the service stops accepting sessions.
func (h *Handler) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if !h.service.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, id uuid.UUID, err error) {
	switch {
	case errors.Is(err, shoperrors.ErrSessionNotFound):
		h.logger.WarnContext(r.Context(), "Session not found", "ID", id)
		web.RespondError(w, h.logger, http.StatusNotFound, fmt.Sprintf("Session with ID %s not found", id))
	case errors.Is(err, shoperrors.ErrInvalidLocation):
		h.logger.WarnContext(r.Context(), "Invalid location", "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, "Invalid location")
	case errors.Is(err, feed.ErrLoadInProgress):
		web.RespondError(w, h.logger, http.StatusConflict, "A page is already loading")
	case errors.Is(err, feed.ErrInvalidPage):
		web.RespondError(w, h.logger, http.StatusBadRequest, err.Error())
	case errors.Is(err, shoperrors.ErrServiceClosed), errors.Is(err, feed.ErrClosed):
		web.RespondError(w, h.logger, http.StatusServiceUnavailable, "Service is shutting down")
	default:
		h.logger.ErrorContext(r.Context(), "Error handling session request", "ID", id, "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, "Internal server error")
	}
}
