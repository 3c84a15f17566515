package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pageSource serves generated posts and can hold a call until released.
type pageSource struct {
	mu      sync.Mutex
	calls   []int
	hold    chan struct{}
	started chan int
	err     error
}

func newPageSource() *pageSource {
	return &pageSource{started: make(chan int, 16)}
}

func (s *pageSource) FetchPage(ctx context.Context, page, limit int) ([]Post, error) {
	s.mu.Lock()
	s.calls = append(s.calls, page)
	hold, err := s.hold, s.err
	s.mu.Unlock()
	s.started <- page

	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	posts := make([]Post, 0, limit)
	for i := 1; i <= limit; i++ {
		id := (page-1)*limit + i
		posts = append(posts, Post{UserID: 1, ID: id, Title: fmt.Sprintf("post %d", id)})
	}
	return posts, nil
}

func (s *pageSource) awaitStart(t *testing.T, page int) {
	t.Helper()
	select {
	case got := <-s.started:
		require.Equal(t, page, got)
	case <-time.After(2 * time.Second):
		t.Fatalf("page %d was not requested", page)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ids(posts []Post) []int {
	out := make([]int, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}

func Test_Feed_LoadPagesAppendInOrder(t *testing.T) {
	// given
	source := newPageSource()
	f := New(source, 5, discardLogger())
	defer f.Close()

	// when
	require.NoError(t, f.LoadPage(context.Background(), 1))
	require.NoError(t, f.LoadMore(context.Background()))

	// then
	snap := f.Snapshot()
	assert.Equal(t, 2, snap.Page)
	assert.Len(t, snap.Items, 10)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, ids(snap.Items))
	assert.False(t, snap.Loading)
	assert.NoError(t, snap.Err)
}

func Test_Feed_ReloadingAPageAppendsAgain(t *testing.T) {
	// given
	source := newPageSource()
	f := New(source, 2, discardLogger())
	defer f.Close()
	require.NoError(t, f.LoadPage(context.Background(), 1))

	// when
	require.NoError(t, f.LoadPage(context.Background(), 1))

	// then
	assert.Equal(t, []int{1, 2, 1, 2}, ids(f.Snapshot().Items))
}

func Test_Feed_Start(t *testing.T) {
	// given
	source := newPageSource()
	f := New(source, 0, discardLogger())
	defer f.Close()

	// when
	f.Start()

	// then
	source.awaitStart(t, 1)
	assert.Eventually(t, func() bool {
		snap := f.Snapshot()
		return !snap.Loading && len(snap.Items) == DefaultPageSize
	}, 2*time.Second, 10*time.Millisecond)
}

func Test_Feed_LoadMoreRightAfterStartKeepsPageOrder(t *testing.T) {
	for i := 0; i < 50; i++ {
		// given
		source := newPageSource()
		f := New(source, 2, discardLogger())

		// when
		f.Start()
		err := f.LoadMore(context.Background())

		// then
		require.ErrorIs(t, err, ErrLoadInProgress)
		source.awaitStart(t, 1)
		require.Eventually(t, func() bool { return !f.Snapshot().Loading }, 2*time.Second, 5*time.Millisecond)
		require.NoError(t, f.LoadMore(context.Background()))

		source.mu.Lock()
		calls := append([]int(nil), source.calls...)
		source.mu.Unlock()
		assert.Equal(t, []int{1, 2}, calls)
		assert.Equal(t, []int{1, 2, 3, 4}, ids(f.Snapshot().Items))
		f.Close()
	}
}

func Test_Feed_StartOnClosedFeed(t *testing.T) {
	source := newPageSource()
	f := New(source, 2, discardLogger())
	f.Close()

	f.Start()

	assert.False(t, f.Snapshot().Loading)
	source.mu.Lock()
	defer source.mu.Unlock()
	assert.Empty(t, source.calls)
}

func Test_Feed_LoadInProgress(t *testing.T) {
	// given
	source := newPageSource()
	source.hold = make(chan struct{})
	f := New(source, 5, discardLogger())
	defer f.Close()

	done := make(chan error, 1)
	go func() { done <- f.LoadPage(context.Background(), 1) }()
	source.awaitStart(t, 1)

	// when
	err := f.LoadMore(context.Background())

	// then
	assert.ErrorIs(t, err, ErrLoadInProgress)
	snap := f.Snapshot()
	assert.True(t, snap.Loading)
	assert.Equal(t, 1, snap.Page, "rejected load does not advance the page")

	close(source.hold)
	require.NoError(t, <-done)
	assert.Len(t, f.Snapshot().Items, 5)
}

func Test_Feed_FailureKeepsItems(t *testing.T) {
	// given
	source := newPageSource()
	f := New(source, 3, discardLogger())
	defer f.Close()
	require.NoError(t, f.LoadPage(context.Background(), 1))
	source.err = errors.New("HTTP 500")

	// when
	err := f.LoadMore(context.Background())

	// then
	assert.EqualError(t, err, "HTTP 500")
	snap := f.Snapshot()
	assert.EqualError(t, snap.Err, "HTTP 500")
	assert.Equal(t, []int{1, 2, 3}, ids(snap.Items))
	assert.False(t, snap.Loading)
}

func Test_Feed_CloseDropsInFlightPage(t *testing.T) {
	// given
	source := newPageSource()
	source.hold = make(chan struct{})
	f := New(source, 5, discardLogger())
	done := make(chan error, 1)
	go func() { done <- f.LoadPage(context.Background(), 1) }()
	source.awaitStart(t, 1)

	// when
	f.Close()

	// then
	assert.ErrorIs(t, <-done, ErrClosed)
	assert.Empty(t, f.Snapshot().Items)
	assert.ErrorIs(t, f.LoadMore(context.Background()), ErrClosed)
}

func Test_Feed_InvalidPage(t *testing.T) {
	f := New(newPageSource(), 5, discardLogger())
	defer f.Close()

	assert.ErrorIs(t, f.LoadPage(context.Background(), 0), ErrInvalidPage)
	assert.False(t, f.Snapshot().Loading)
}

func Test_Feed_CallerCancellationIsNotRecorded(t *testing.T) {
	// given
	source := newPageSource()
	source.hold = make(chan struct{})
	f := New(source, 5, discardLogger())
	defer f.Close()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.LoadPage(ctx, 1) }()
	source.awaitStart(t, 1)

	// when
	cancel()

	// then
	assert.ErrorIs(t, <-done, context.Canceled)
	snap := f.Snapshot()
	assert.False(t, snap.Loading)
	assert.NoError(t, snap.Err)
	assert.Empty(t, snap.Items)
}
