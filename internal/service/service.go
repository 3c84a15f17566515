// Package service binds the catalog, filter state, resource fetch and paged
// feed into sessions, one per consumer.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/abgdnv/shopfront/internal/catalog"
	shoperrors "github.com/abgdnv/shopfront/internal/errors"
	"github.com/abgdnv/shopfront/internal/events"
	"github.com/abgdnv/shopfront/internal/feed"
	"github.com/abgdnv/shopfront/internal/fetch"
	"github.com/abgdnv/shopfront/internal/filterstate"
	"github.com/abgdnv/shopfront/internal/store"
	"github.com/abgdnv/shopfront/pkg/logger"
	"github.com/abgdnv/shopfront/pkg/messaging"
	"github.com/google/uuid"
)

// SessionService defines the operations available to a consumer of the listing.
type SessionService interface {
	// FindProducts filters the catalog without any session state.
	FindProducts(ctx context.Context, criteria catalog.Criteria) ([]catalog.Product, error)

	// Categories returns the distinct catalog categories in catalog order.
	Categories(ctx context.Context) ([]string, error)

	// FindProduct returns a catalog product by id.
	// Returns ErrProductNotFound if no product has that id.
	FindProduct(ctx context.Context, id int) (*catalog.Product, error)

	// Open creates a session whose filters start from the query of location.
	// Returns ErrInvalidLocation if location cannot be parsed.
	Open(ctx context.Context, location string) (*SessionView, error)

	// Get returns the session's criteria, location and matching products.
	// Returns ErrSessionNotFound for unknown or closed sessions.
	Get(ctx context.Context, id uuid.UUID) (*SessionView, error)

	// ApplyFilters merges o into the session's criteria and syncs its location.
	ApplyFilters(ctx context.Context, id uuid.UUID, o catalog.Override) (*SessionView, error)

	// Resource returns the session's resource state, optionally waiting for the
	// in-flight attempt to settle.
	Resource(ctx context.Context, id uuid.UUID, wait bool) (*ResourceView, error)

	// RetryResource drops the cached resource and fetches it again.
	RetryResource(ctx context.Context, id uuid.UUID) (*ResourceView, error)

	// Posts returns the session's accumulated feed.
	Posts(ctx context.Context, id uuid.UUID) (*PostsView, error)

	// LoadMorePosts loads the next feed page and waits for it.
	// Returns feed.ErrLoadInProgress when a page is already loading.
	LoadMorePosts(ctx context.Context, id uuid.UUID) (*PostsView, error)

	// LoadPostsPage loads page n of the feed and appends it.
	LoadPostsPage(ctx context.Context, id uuid.UUID, page int) (*PostsView, error)

	// Close tears the session down.
	Close(ctx context.Context, id uuid.UUID) error

	// Ready reports whether new sessions are accepted.
	Ready() bool
}

// Options configure new sessions.
type Options struct {
	ResourceURL string
	PageSize    int
}

// Service implements SessionService. Every session shares one resource cache.
type Service struct {
	products  store.ProductStore
	cache     *fetch.Cache
	getter    fetch.Getter
	source    feed.Source
	publisher messaging.Publisher
	opts      Options
	logger    *slog.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*session
	closed   bool
}

type session struct {
	id        uuid.UUID
	createdAt time.Time
	location  *filterstate.MemoryLocation
	filters   *filterstate.Manager
	resource  *fetch.Handle
	posts     *feed.Feed
}

// NewService creates a Service. cache is shared by all sessions it opens.
func NewService(products store.ProductStore, cache *fetch.Cache, getter fetch.Getter, source feed.Source,
	publisher messaging.Publisher, opts Options, logger *slog.Logger) *Service {
	return &Service{
		products:  products,
		cache:     cache,
		getter:    getter,
		source:    source,
		publisher: publisher,
		opts:      opts,
		logger:    logger.With("component", "service"),
		sessions:  make(map[uuid.UUID]*session),
	}
}

// FindProducts filters the catalog by criteria.
func (s *Service) FindProducts(ctx context.Context, criteria catalog.Criteria) ([]catalog.Product, error) {
	all, err := s.products.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	return catalog.Filter(all, criteria), nil
}

// Categories returns the distinct categories of the catalog.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	all, err := s.products.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	return catalog.Categories(all), nil
}

func (s *Service) FindProduct(ctx context.Context, id int) (*catalog.Product, error) {
	return s.products.FindByID(ctx, id)
}

func (s *Service) Open(ctx context.Context, rawLocation string) (*SessionView, error) {
	location, err := filterstate.NewMemoryLocation(rawLocation)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shoperrors.ErrInvalidLocation, err)
	}

	sess := &session{
		id:        uuid.New(),
		createdAt: time.Now().UTC(),
		location:  location,
		filters:   filterstate.NewManager(location, s.logger),
		resource:  fetch.NewHandle(s.cache, s.getter, s.logger),
		posts:     feed.New(s.source, s.opts.PageSize, s.logger),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, shoperrors.ErrServiceClosed
	}
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	// mount: normalise the location, start the resource and the first feed page
	sess.filters.Sync()
	sess.resource.Bind(s.opts.ResourceURL)
	sess.posts.Start()

	s.logger.InfoContext(logger.WithSessionID(ctx, sess.id), "Session opened", "location", location.String())
	return s.view(ctx, sess)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*SessionView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, sess)
}

func (s *Service) ApplyFilters(ctx context.Context, id uuid.UUID, o catalog.Override) (*SessionView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	sess.filters.Apply(o)

	view, err := s.view(ctx, sess)
	if err != nil || o.IsEmpty() {
		return view, err
	}
	event := events.FiltersChangedEvent{
		SessionID: sess.id,
		Criteria:  view.Criteria,
		Location:  view.Location,
		Matches:   len(view.Products),
		ChangedAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(logger.WithSessionID(ctx, sess.id), "Failed to publish filters changed event", "error", err)
	}
	return view, nil
}

func (s *Service) Resource(ctx context.Context, id uuid.UUID, wait bool) (*ResourceView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	snap := sess.resource.Snapshot()
	if wait {
		if snap, err = sess.resource.Wait(ctx); err != nil {
			s.logger.DebugContext(logger.WithSessionID(ctx, id), "Stopped waiting for resource", "error", err)
		}
	}
	return newResourceView(sess.resource.ID(), snap), nil
}

func (s *Service) RetryResource(ctx context.Context, id uuid.UUID) (*ResourceView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	snap := sess.resource.Retry()
	s.logger.InfoContext(logger.WithSessionID(ctx, id), "Resource retry requested")
	return newResourceView(sess.resource.ID(), snap), nil
}

func (s *Service) Posts(_ context.Context, id uuid.UUID) (*PostsView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return newPostsView(sess.posts.Snapshot()), nil
}

func (s *Service) LoadMorePosts(ctx context.Context, id uuid.UUID) (*PostsView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if err := sess.posts.LoadMore(ctx); err != nil && (loadRejected(err) || ctx.Err() != nil) {
		return nil, err
	}
	return newPostsView(sess.posts.Snapshot()), nil
}

func (s *Service) LoadPostsPage(ctx context.Context, id uuid.UUID, page int) (*PostsView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if err := sess.posts.LoadPage(ctx, page); err != nil && (loadRejected(err) || ctx.Err() != nil) {
		return nil, err
	}
	return newPostsView(sess.posts.Snapshot()), nil
}

func (s *Service) Close(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return shoperrors.ErrSessionNotFound
	}
	sess.teardown()
	s.logger.InfoContext(logger.WithSessionID(ctx, id), "Session closed")
	return nil
}

// CloseAll tears every session down and rejects new ones.
func (s *Service) CloseAll() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[uuid.UUID]*session)
	s.closed = true
	s.mu.Unlock()
	for _, sess := range sessions {
		sess.teardown()
	}
	s.logger.Info("All sessions closed", "count", len(sessions))
}

func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.closed
}

func (s *Service) lookup(id uuid.UUID) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, shoperrors.ErrSessionNotFound
	}
	return sess, nil
}

func (s *Service) view(ctx context.Context, sess *session) (*SessionView, error) {
	criteria := sess.filters.Criteria()
	products, err := s.FindProducts(ctx, criteria)
	if err != nil {
		return nil, err
	}
	return &SessionView{
		ID:        sess.id.String(),
		Criteria:  criteria,
		Location:  sess.location.String(),
		Products:  products,
		CreatedAt: sess.createdAt,
	}, nil
}

func (sess *session) teardown() {
	sess.resource.Close()
	sess.posts.Close()
}

// loadRejected reports whether the feed refused the load. Upstream failures are
// not rejections: they are recorded in the feed snapshot.
func loadRejected(err error) bool {
	return errors.Is(err, feed.ErrLoadInProgress) || errors.Is(err, feed.ErrClosed) || errors.Is(err, feed.ErrInvalidPage)
}
