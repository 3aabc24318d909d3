package semantic

import (
	"errors"
	"net/http"
)

// Domain errors for semantic index operations.
var (
	ErrNotFound     = errors.New("entry not found")
	ErrDuplicate    = errors.New("entry already indexed")
	ErrInvalidEntry = errors.New("invalid entry")
	ErrEmptyQuery   = errors.New("query text is empty")
)

// MapHTTPStatus maps semantic domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidEntry) || errors.Is(err, ErrEmptyQuery) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
