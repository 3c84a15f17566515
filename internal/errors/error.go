// Package errors provides sentinel errors shared by the shopfront services.
package errors

import "errors"

var ErrProductNotFound = errors.New("product not found")
var ErrSessionNotFound = errors.New("session not found")
var ErrInvalidLocation = errors.New("invalid location")
var ErrServiceClosed = errors.New("service is shutting down")
