package semantic_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/finsightai/finsight/internal/semantic"
)

type mockSystem struct {
	storeFn func(ctx context.Context, cmd semantic.StoreCommand) (*semantic.Entry, error)
	queryFn func(ctx context.Context, text string, limit int) ([]semantic.Match, error)
}

func (m *mockSystem) Handler() *semantic.Handler {
	return semantic.NewHandler(m, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (m *mockSystem) Store(ctx context.Context, cmd semantic.StoreCommand) (*semantic.Entry, error) {
	return m.storeFn(ctx, cmd)
}

func (m *mockSystem) Query(ctx context.Context, text string, limit int) ([]semantic.Match, error) {
	return m.queryFn(ctx, text, limit)
}

func setupMux(h *semantic.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		pattern := route.Method + " " + group.Prefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
	}
	return mux
}

func TestHandlerStore(t *testing.T) {
	t.Run("indexes entry", func(t *testing.T) {
		sys := &mockSystem{
			storeFn: func(_ context.Context, cmd semantic.StoreCommand) (*semantic.Entry, error) {
				return &semantic.Entry{
					ID:        uuid.New(),
					Entity:    cmd.Entity,
					Content:   cmd.Content,
					CreatedAt: time.Now().UTC(),
				}, nil
			},
		}
		mux := setupMux(sys.Handler())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/semantic", strings.NewReader(
			`{"entity": "document:abc", "content": "invoice for office visit"}`))
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
		}

		var entry semantic.Entry
		if err := json.NewDecoder(rec.Body).Decode(&entry); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if entry.Entity != "document:abc" {
			t.Errorf("entity = %q", entry.Entity)
		}
	})

	t.Run("rejects invalid entry", func(t *testing.T) {
		sys := &mockSystem{
			storeFn: func(_ context.Context, _ semantic.StoreCommand) (*semantic.Entry, error) {
				return nil, semantic.ErrInvalidEntry
			},
		}
		mux := setupMux(sys.Handler())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/semantic", strings.NewReader(`{"entity": ""}`))
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandlerSearch(t *testing.T) {
	t.Run("returns ranked matches", func(t *testing.T) {
		var gotText string
		var gotLimit int
		sys := &mockSystem{
			queryFn: func(_ context.Context, text string, limit int) ([]semantic.Match, error) {
				gotText, gotLimit = text, limit
				return []semantic.Match{
					{Entry: semantic.Entry{Entity: "document:abc"}, Rank: 0.61},
				}, nil
			},
		}
		mux := setupMux(sys.Handler())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/semantic/search?q=office+visit&limit=5", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if gotText != "office visit" || gotLimit != 5 {
			t.Errorf("query args = (%q, %d)", gotText, gotLimit)
		}

		var matches []semantic.Match
		if err := json.NewDecoder(rec.Body).Decode(&matches); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(matches) != 1 || matches[0].Rank != 0.61 {
			t.Errorf("matches = %+v", matches)
		}
	})

	t.Run("empty query returns 400", func(t *testing.T) {
		sys := &mockSystem{
			queryFn: func(_ context.Context, _ string, _ int) ([]semantic.Match, error) {
				return nil, semantic.ErrEmptyQuery
			},
		}
		mux := setupMux(sys.Handler())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/semantic/search", nil)
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}
