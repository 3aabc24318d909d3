package processing

import (
	"errors"
	"net/http"

	"github.com/finsightai/finsight/internal/documents"
	"github.com/finsightai/finsight/internal/workflow"
)

// Domain errors for processing operations.
var (
	ErrInvalidRequest = errors.New("invalid processing request")
	ErrNoDocumentText = errors.New("document has no extracted text")
)

// MapHTTPStatus maps processing errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, documents.ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrNoDocumentText) ||
		errors.Is(err, workflow.ErrInvalidSeed) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
