// Package fetch implements a process-wide resource cache and per-consumer fetch
// handles with cancellation of superseded requests and explicit retry.
package fetch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// State is the lifecycle position of a Handle.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateSuccess
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Snapshot is what a consumer renders: the last good data, the last error and
// whether an attempt is in flight. Data survives a failed attempt.
type Snapshot struct {
	State State
	Data  any
	Err   error
}

// Loading reports whether an attempt is in flight.
func (s Snapshot) Loading() bool {
	return s.State == StateLoading
}

// Handle is one consumer's view of a resource. At most one attempt is live per
// handle: issuing a new one cancels the previous, and a superseded attempt never
// changes the snapshot.
type Handle struct {
	cache  *Cache
	getter Getter
	logger *slog.Logger

	mu      sync.Mutex
	id      string
	gen     uint64
	cancel  context.CancelFunc
	snap    Snapshot
	closed  bool
	changed chan struct{}
}

// NewHandle creates an idle handle reading and writing the shared cache.
func NewHandle(cache *Cache, getter Getter, logger *slog.Logger) *Handle {
	return &Handle{
		cache:   cache,
		getter:  getter,
		logger:  logger.With("component", "fetch"),
		changed: make(chan struct{}),
	}
}

// Bind points the handle at id and fetches it, as a consumer does when the
// identifier it renders changes. Binding the current id again does nothing.
func (h *Handle) Bind(id string) Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || id == "" || id == h.id {
		return h.snap
	}
	h.id = id
	if h.snap.State == StateIdle {
		if value, ok := h.cache.peek(id); ok {
			h.snap.Data = value
		}
	}
	return h.request(id, false)
}

// ID returns the bound resource identifier.
func (h *Handle) ID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.id
}

// Request binds the handle to id and resolves it. A cached value is returned at
// once without a network call; otherwise the previous attempt is cancelled and a
// new one starts. An empty id is ignored.
func (h *Handle) Request(id string) Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || id == "" {
		return h.snap
	}
	h.id = id
	return h.request(id, false)
}

// Retry drops the cached entry for the bound resource and always goes to the network.
func (h *Handle) Retry() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || h.id == "" {
		return h.snap
	}
	h.cache.Delete(h.id)
	h.logger.Debug("Cache entry invalidated", "url", h.id)
	return h.request(h.id, true)
}

// Snapshot returns the current state.
func (h *Handle) Snapshot() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snap
}

// Wait blocks until no attempt is in flight or ctx is done.
func (h *Handle) Wait(ctx context.Context) (Snapshot, error) {
	for {
		h.mu.Lock()
		snap, changed := h.snap, h.changed
		h.mu.Unlock()
		if !snap.Loading() {
			return snap, nil
		}
		select {
		case <-ctx.Done():
			return snap, ctx.Err()
		case <-changed:
		}
	}
}

// Close tears the handle down. The in-flight attempt is cancelled and no later
// completion is applied. Close is idempotent.
func (h *Handle) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	h.gen++
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	h.notify()
}

// request must be called with mu held.
func (h *Handle) request(id string, force bool) Snapshot {
	h.gen++
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}

	if !force {
		if value, ok := h.cache.Get(id); ok {
			h.snap = Snapshot{State: StateSuccess, Data: value}
			h.notify()
			return h.snap
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	if force {
		ctx = withFresh(ctx)
	}
	h.cancel = cancel
	h.snap = Snapshot{State: StateLoading, Data: h.snap.Data}
	h.notify()
	go h.run(ctx, h.gen, id)
	return h.snap
}

func (h *Handle) run(ctx context.Context, gen uint64, id string) {
	value, err := h.getter.Get(ctx, id)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || gen != h.gen || errors.Is(err, ErrCancelled) || ctx.Err() != nil {
		h.logger.Debug("Discarding superseded fetch", "url", id)
		return
	}
	h.cancel()
	h.cancel = nil
	if err != nil {
		h.logger.Warn("Fetch failed", "url", id, "error", err)
		h.snap = Snapshot{State: StateFailed, Data: h.snap.Data, Err: err}
		h.notify()
		return
	}
	h.cache.Set(id, value)
	h.snap = Snapshot{State: StateSuccess, Data: value}
	h.notify()
}

// notify wakes Wait callers; must be called with mu held.
func (h *Handle) notify() {
	close(h.changed)
	h.changed = make(chan struct{})
}
