package graph

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/finsightai/finsight/pkg/handlers"
	"github.com/finsightai/finsight/pkg/routes"
)

// Handler provides HTTP endpoints for the knowledge graph.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "graph"),
	}
}

// Routes returns the route group definition for graph endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/graph",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/entities", Handler: h.AddEntity},
			{Method: "POST", Pattern: "/relations", Handler: h.Relate},
			{Method: "GET", Pattern: "/paths", Handler: h.Paths},
		},
	}
}

// AddEntity inserts a graph entity.
func (h *Handler) AddEntity(w http.ResponseWriter, r *http.Request) {
	var cmd EntityCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidEntity)
		return
	}

	entity, err := h.sys.AddEntity(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, entity)
}

// Relate inserts a directed relation between two entities.
func (h *Handler) Relate(w http.ResponseWriter, r *http.Request) {
	var cmd RelationCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRelation)
		return
	}

	rel, err := h.sys.Relate(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, rel)
}

// Paths traverses outgoing relations from the entity named by the from
// query parameter, up to depth hops.
func (h *Handler) Paths(w http.ResponseWriter, r *http.Request) {
	from, err := uuid.Parse(r.URL.Query().Get("from"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidEntity)
		return
	}

	depth := 0
	if d := r.URL.Query().Get("depth"); d != "" {
		if v, err := strconv.Atoi(d); err == nil {
			depth = v
		}
	}

	paths, err := h.sys.Paths(r.Context(), from, depth)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, paths)
}
