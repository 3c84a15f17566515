package fetch

import (
	"errors"
	"fmt"
)

// ErrCancelled marks an attempt that was aborted by its owner. It never reaches
// a consumer's snapshot.
var ErrCancelled = errors.New("fetch cancelled")

// HTTPStatusError is returned when the upstream answers outside the 2xx range.
type HTTPStatusError struct {
	StatusCode int
	URL        string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// TransportError covers network and decode failures.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
