// Package filterstate owns the current filter criteria of a consumer and keeps
// them mirrored in the consumer's location.
package filterstate

import (
	"log/slog"
	"sync"

	"github.com/abgdnv/shopfront/internal/catalog"
)

// Manager holds the criteria of one consumer. Apply is the only way to change them.
type Manager struct {
	mu       sync.Mutex
	criteria catalog.Criteria
	location Location
	logger   *slog.Logger
}

// NewManager initialises the criteria from the location's query parameters.
func NewManager(location Location, logger *slog.Logger) *Manager {
	return &Manager{
		criteria: catalog.ParseQuery(location.Query()),
		location: location,
		logger:   logger.With("component", "filterstate"),
	}
}

// Criteria returns the current criteria.
func (m *Manager) Criteria() catalog.Criteria {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.criteria
}

// Apply merges o over the current criteria, commits the result and then writes
// it to the location.
func (m *Manager) Apply(o catalog.Override) catalog.Criteria {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.criteria = m.criteria.Apply(o)
	m.syncToURL(m.criteria)
	return m.criteria
}

// Sync writes the current criteria to the location without changing them.
func (m *Manager) Sync() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncToURL(m.criteria)
}

// syncToURL must be called with mu held so location writes follow commit order.
func (m *Manager) syncToURL(c catalog.Criteria) {
	m.location.ReplaceQuery(catalog.EncodeQuery(c))
	m.logger.Debug("Location updated", "q", c.Query, "category", c.Category, "min_price", c.MinPrice, "max_price", c.MaxPrice)
}
