package processing

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/finsightai/finsight/pkg/handlers"
	"github.com/finsightai/finsight/pkg/routes"
)

// Handler provides HTTP endpoints for starting workflow runs.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "processing"),
	}
}

// Routes returns the route group definition for processing endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/processing",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/document", Handler: h.ProcessDocument},
			{Method: "POST", Pattern: "/eligibility", Handler: h.CheckEligibility},
		},
	}
}

// ProcessDocument runs the document-processing workflow and returns the
// final state. Runs with stage errors still return 200: partial structured
// output is more useful than a bare failure.
func (h *Handler) ProcessDocument(w http.ResponseWriter, r *http.Request) {
	var req DocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	state, err := h.sys.ProcessDocument(r.Context(), req)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, state)
}

// CheckEligibility runs the eligibility-check workflow and returns the
// final state.
func (h *Handler) CheckEligibility(w http.ResponseWriter, r *http.Request) {
	var req EligibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	state, err := h.sys.CheckEligibility(r.Context(), req)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, state)
}
