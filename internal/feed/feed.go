// Package feed implements the append-only "load more" list of posts.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

const DefaultPageSize = 5

var (
	// ErrLoadInProgress is returned when a page is requested while another load is in flight.
	ErrLoadInProgress = errors.New("a page load is already in progress")
	// ErrClosed is returned by loads on a torn down feed.
	ErrClosed = errors.New("feed is closed")
	// ErrInvalidPage is returned for page numbers below 1.
	ErrInvalidPage = errors.New("invalid page number")
)

// Snapshot is the rendered state of a feed.
type Snapshot struct {
	Page    int
	Items   []Post
	Loading bool
	Err     error
}

// Feed accumulates pages of posts in request order. Items are never removed and
// pages are not de-duplicated: loading a page twice appends it twice.
type Feed struct {
	source   Source
	pageSize int
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	page    int
	items   []Post
	loading bool
	err     error
	alive   bool
}

// New creates a feed on page 1 with nothing loaded yet.
func New(source Source, pageSize int, logger *slog.Logger) *Feed {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Feed{
		source:   source,
		pageSize: pageSize,
		logger:   logger.With("component", "feed"),
		ctx:      ctx,
		cancel:   cancel,
		page:     1,
		items:    make([]Post, 0),
		alive:    true,
	}
}

// Start loads the first page in the background, like a list that fetches on mount.
// The feed is marked loading before Start returns, so a LoadMore issued right
// after it is rejected instead of overtaking page 1.
func (f *Feed) Start() {
	f.mu.Lock()
	if !f.alive || f.loading {
		f.mu.Unlock()
		return
	}
	f.loading = true
	f.err = nil
	f.page = 1
	f.mu.Unlock()

	go func() {
		if err := f.load(f.ctx, 1); err != nil {
			f.logger.Debug("Initial page load ended", "error", err)
		}
	}()
}

// LoadPage fetches page and appends its posts. It blocks until the page is
// loaded, ctx is done or the feed is closed.
func (f *Feed) LoadPage(ctx context.Context, page int) error {
	if page < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPage, page)
	}
	f.mu.Lock()
	if !f.alive {
		f.mu.Unlock()
		return ErrClosed
	}
	if f.loading {
		f.mu.Unlock()
		return ErrLoadInProgress
	}
	f.loading = true
	f.err = nil
	f.page = page
	f.mu.Unlock()

	return f.load(ctx, page)
}

// LoadMore advances to the next page and loads it.
func (f *Feed) LoadMore(ctx context.Context) error {
	f.mu.Lock()
	if !f.alive {
		f.mu.Unlock()
		return ErrClosed
	}
	if f.loading {
		f.mu.Unlock()
		return ErrLoadInProgress
	}
	f.loading = true
	f.err = nil
	f.page++
	page := f.page
	f.mu.Unlock()

	return f.load(ctx, page)
}

func (f *Feed) load(ctx context.Context, page int) error {
	loadCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(f.ctx, cancel)
	defer stop()

	posts, err := f.source.FetchPage(loadCtx, page, f.pageSize)

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.alive {
		return ErrClosed
	}
	f.loading = false
	if err != nil && loadCtx.Err() != nil {
		// the caller gave up; nothing to record
		return err
	}
	if err != nil {
		f.logger.Warn("Page load failed", "page", page, "error", err)
		f.err = err
		return err
	}
	f.items = append(f.items, posts...)
	f.logger.Debug("Page loaded", "page", page, "count", len(posts), "total", len(f.items))
	return nil
}

// Snapshot returns a copy of the current state.
func (f *Feed) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]Post, len(f.items))
	copy(items, f.items)
	return Snapshot{Page: f.page, Items: items, Loading: f.loading, Err: f.err}
}

// Close tears the feed down. A load in flight is cancelled and its result dropped.
func (f *Feed) Close() {
	f.mu.Lock()
	f.alive = false
	f.mu.Unlock()
	f.cancel()
}
