package runs

import (
	"errors"
	"net/http"
)

// Domain errors for run operations.
var (
	ErrNotFound   = errors.New("run not found")
	ErrDuplicate  = errors.New("run already recorded")
	ErrInvalidRun = errors.New("invalid run")
)

// MapHTTPStatus maps run domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidRun) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
