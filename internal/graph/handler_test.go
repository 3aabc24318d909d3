package graph_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/finsightai/finsight/internal/graph"
)

type mockSystem struct {
	addEntityFn func(ctx context.Context, cmd graph.EntityCommand) (*graph.Entity, error)
	relateFn    func(ctx context.Context, cmd graph.RelationCommand) (*graph.Relation, error)
	pathsFn     func(ctx context.Context, from uuid.UUID, maxDepth int) ([]graph.Path, error)
}

func (m *mockSystem) Handler() *graph.Handler {
	return graph.NewHandler(m, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (m *mockSystem) AddEntity(ctx context.Context, cmd graph.EntityCommand) (*graph.Entity, error) {
	return m.addEntityFn(ctx, cmd)
}

func (m *mockSystem) Relate(ctx context.Context, cmd graph.RelationCommand) (*graph.Relation, error) {
	return m.relateFn(ctx, cmd)
}

func (m *mockSystem) Paths(ctx context.Context, from uuid.UUID, maxDepth int) ([]graph.Path, error) {
	return m.pathsFn(ctx, from, maxDepth)
}

func setupMux(h *graph.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		pattern := route.Method + " " + group.Prefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
	}
	return mux
}

func TestHandlerAddEntity(t *testing.T) {
	sys := &mockSystem{
		addEntityFn: func(_ context.Context, cmd graph.EntityCommand) (*graph.Entity, error) {
			return &graph.Entity{ID: uuid.New(), Name: cmd.Name, Kind: cmd.Kind}, nil
		},
	}
	mux := setupMux(sys.Handler())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/graph/entities", strings.NewReader(
		`{"name": "document:abc", "kind": "document"}`))
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
	}

	var entity graph.Entity
	if err := json.NewDecoder(rec.Body).Decode(&entity); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entity.Name != "document:abc" || entity.Kind != "document" {
		t.Errorf("entity = %+v", entity)
	}
}

func TestHandlerRelate(t *testing.T) {
	from, to := uuid.New(), uuid.New()

	sys := &mockSystem{
		relateFn: func(_ context.Context, cmd graph.RelationCommand) (*graph.Relation, error) {
			return &graph.Relation{
				ID: uuid.New(), FromID: cmd.FromID, ToID: cmd.ToID, Kind: cmd.Kind,
			}, nil
		},
	}
	mux := setupMux(sys.Handler())

	body, _ := json.Marshal(graph.RelationCommand{FromID: from, ToID: to, Kind: "classified_as"})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/graph/relations", strings.NewReader(string(body)))
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
	}

	var rel graph.Relation
	if err := json.NewDecoder(rec.Body).Decode(&rel); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rel.FromID != from || rel.ToID != to || rel.Kind != "classified_as" {
		t.Errorf("relation = %+v", rel)
	}
}

func TestHandlerPaths(t *testing.T) {
	from := uuid.New()

	t.Run("returns traversal", func(t *testing.T) {
		var gotFrom uuid.UUID
		var gotDepth int
		sys := &mockSystem{
			pathsFn: func(_ context.Context, f uuid.UUID, depth int) ([]graph.Path, error) {
				gotFrom, gotDepth = f, depth
				return []graph.Path{
					{Nodes: []uuid.UUID{f, uuid.New()}, Relations: []string{"classified_as"}, Depth: 1},
				}, nil
			},
		}
		mux := setupMux(sys.Handler())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/graph/paths?from="+from.String()+"&depth=2", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if gotFrom != from || gotDepth != 2 {
			t.Errorf("paths args = (%v, %d)", gotFrom, gotDepth)
		}

		var paths []graph.Path
		if err := json.NewDecoder(rec.Body).Decode(&paths); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(paths) != 1 || paths[0].Depth != 1 {
			t.Errorf("paths = %+v", paths)
		}
	})

	t.Run("missing from returns 400", func(t *testing.T) {
		mux := setupMux((&mockSystem{}).Handler())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/graph/paths", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}
