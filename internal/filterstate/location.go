package filterstate

import (
	"net/url"
	"sync"
)

// Location is the address a consumer is showing. Writes replace the current
// entry; no new history entry is ever created.
type Location interface {
	// Query returns the current query parameters.
	Query() url.Values
	// ReplaceQuery swaps the query string of the current entry.
	ReplaceQuery(values url.Values)
}

// MemoryLocation is a goroutine-safe Location for a single consumer.
type MemoryLocation struct {
	mu           sync.RWMutex
	path         string
	query        url.Values
	replacements int
}

// NewMemoryLocation parses rawURL (a path, a "?query" or a full URL) into a location.
func NewMemoryLocation(rawURL string) (*MemoryLocation, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	return &MemoryLocation{path: path, query: u.Query()}, nil
}

// Query returns a copy of the current query parameters.
func (l *MemoryLocation) Query() url.Values {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneValues(l.query)
}

// ReplaceQuery replaces the query of the current entry.
func (l *MemoryLocation) ReplaceQuery(values url.Values) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.query = cloneValues(values)
	l.replacements++
}

// String renders the location as path?query.
func (l *MemoryLocation) String() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.path + "?" + l.query.Encode()
}

// Replacements returns how many times the entry has been replaced.
func (l *MemoryLocation) Replacements() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.replacements
}

func cloneValues(values url.Values) url.Values {
	out := make(url.Values, len(values))
	for k, v := range values {
		out[k] = append([]string(nil), v...)
	}
	return out
}
