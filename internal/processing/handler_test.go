package processing_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/finsightai/finsight/internal/documents"
	"github.com/finsightai/finsight/internal/processing"
	"github.com/finsightai/finsight/internal/workflow"
)

type mockSystem struct {
	processFn     func(ctx context.Context, req processing.DocumentRequest) (*workflow.State, error)
	eligibilityFn func(ctx context.Context, req processing.EligibilityRequest) (*workflow.State, error)
}

func (m *mockSystem) Handler() *processing.Handler {
	return processing.NewHandler(m, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (m *mockSystem) ProcessDocument(ctx context.Context, req processing.DocumentRequest) (*workflow.State, error) {
	return m.processFn(ctx, req)
}

func (m *mockSystem) CheckEligibility(ctx context.Context, req processing.EligibilityRequest) (*workflow.State, error) {
	return m.eligibilityFn(ctx, req)
}

func setupMux(h *processing.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		pattern := route.Method + " " + group.Prefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
	}
	return mux
}

func TestProcessDocument(t *testing.T) {
	t.Run("returns final state", func(t *testing.T) {
		var captured processing.DocumentRequest
		sys := &mockSystem{
			processFn: func(_ context.Context, req processing.DocumentRequest) (*workflow.State, error) {
				captured = req
				return &workflow.State{
					Status:       workflow.StatusCompletedWithErrors,
					DocumentType: workflow.TypeInvoice,
					Errors: []workflow.StageError{
						{Stage: "extract_invoice", Message: "rate limited"},
					},
				}, nil
			},
		}
		mux := setupMux(sys.Handler())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/processing/document",
			strings.NewReader(`{"raw_text": "Invoice #100", "run_fraud_detection": false}`))
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
		}
		if captured.RawText != "Invoice #100" {
			t.Errorf("raw_text = %q", captured.RawText)
		}
		if captured.RunFraudDetection == nil || *captured.RunFraudDetection {
			t.Error("run_fraud_detection flag not passed through")
		}

		var state workflow.State
		if err := json.NewDecoder(rec.Body).Decode(&state); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if state.Status != workflow.StatusCompletedWithErrors {
			t.Errorf("status = %q", state.Status)
		}
		if len(state.Errors) != 1 {
			t.Errorf("errors = %d, want 1", len(state.Errors))
		}
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		mux := setupMux((&mockSystem{}).Handler())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/processing/document", strings.NewReader("{not json"))
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("maps domain errors", func(t *testing.T) {
		tests := []struct {
			name string
			err  error
			want int
		}{
			{"document not found", documents.ErrNotFound, http.StatusNotFound},
			{"no extracted text", processing.ErrNoDocumentText, http.StatusBadRequest},
			{"invalid seed", workflow.ErrInvalidSeed, http.StatusBadRequest},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				sys := &mockSystem{
					processFn: func(_ context.Context, _ processing.DocumentRequest) (*workflow.State, error) {
						return nil, tc.err
					},
				}
				mux := setupMux(sys.Handler())

				rec := httptest.NewRecorder()
				req := httptest.NewRequest("POST", "/processing/document",
					strings.NewReader(`{"raw_text": "text"}`))
				mux.ServeHTTP(rec, req)

				if rec.Code != tc.want {
					t.Fatalf("status = %d, want %d", rec.Code, tc.want)
				}
			})
		}
	})
}

func TestCheckEligibility(t *testing.T) {
	t.Run("returns final state", func(t *testing.T) {
		var captured processing.EligibilityRequest
		sys := &mockSystem{
			eligibilityFn: func(_ context.Context, req processing.EligibilityRequest) (*workflow.State, error) {
				captured = req
				return &workflow.State{Status: workflow.StatusCompleted}, nil
			},
		}
		mux := setupMux(sys.Handler())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/processing/eligibility", strings.NewReader(
			`{"policy_info": {"policy_number": "POL-9"}, "service_info": {"service": "MRI"}}`))
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
		}
		if captured.PolicyInfo["policy_number"] != "POL-9" {
			t.Error("policy_info not passed through")
		}
	})

	t.Run("maps invalid seed", func(t *testing.T) {
		sys := &mockSystem{
			eligibilityFn: func(_ context.Context, _ processing.EligibilityRequest) (*workflow.State, error) {
				return nil, workflow.ErrInvalidSeed
			},
		}
		mux := setupMux(sys.Handler())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/processing/eligibility",
			strings.NewReader(`{"policy_info": {}}`))
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}
