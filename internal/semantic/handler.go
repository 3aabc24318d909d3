package semantic

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/finsightai/finsight/pkg/handlers"
	"github.com/finsightai/finsight/pkg/routes"
)

// Handler provides HTTP endpoints for the semantic index.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "semantic"),
	}
}

// Routes returns the route group definition for semantic index endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/semantic",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Store},
			{Method: "GET", Pattern: "/search", Handler: h.Search},
		},
	}
}

// Store indexes a caller-supplied entry.
func (h *Handler) Store(w http.ResponseWriter, r *http.Request) {
	var cmd StoreCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidEntry)
		return
	}

	entry, err := h.sys.Store(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, entry)
}

// Search returns ranked matches for the q query parameter.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("q")

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil {
			limit = v
		}
	}

	matches, err := h.sys.Query(r.Context(), text, limit)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, matches)
}
