package graph

import (
	"errors"
	"net/http"
)

// Domain errors for graph operations.
var (
	ErrNotFound        = errors.New("entity not found")
	ErrDuplicate       = errors.New("entity already exists")
	ErrInvalidEntity   = errors.New("invalid entity")
	ErrInvalidRelation = errors.New("invalid relation")
)

// MapHTTPStatus maps graph domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidEntity) || errors.Is(err, ErrInvalidRelation) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
