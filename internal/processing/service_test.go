package processing_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/finsightai/finsight/internal/documents"
	"github.com/finsightai/finsight/internal/graph"
	"github.com/finsightai/finsight/internal/processing"
	"github.com/finsightai/finsight/internal/runs"
	"github.com/finsightai/finsight/internal/semantic"
	"github.com/finsightai/finsight/internal/workflow"
	"github.com/finsightai/finsight/pkg/pagination"
)

// stubCompletion drives the workflow runner with canned agent responses.
type stubCompletion struct{}

func (stubCompletion) Complete(_ context.Context, prompt string) (string, error) {
	switch {
	case strings.HasPrefix(prompt, "You are an expert at classifying"):
		return `{"document_type": "invoice", "confidence": 0.9, "reasoning": "line items"}`, nil
	case strings.HasPrefix(prompt, "You are an expert at extracting structured information from invoices"):
		return `{"invoice_number": "INV-1", "total": 150}`, nil
	case strings.HasPrefix(prompt, "You are an expert at determining insurance coverage eligibility"):
		return `{"is_eligible": true, "confidence": 0.9, "coverage_percentage": 80, "reasoning": "covered"}`, nil
	case strings.HasPrefix(prompt, "You are an expert at detecting fraud"):
		return `{"fraud_risk_score": 5, "risk_level": "low", "summary": "clean", "confidence": 0.8}`, nil
	case strings.HasPrefix(prompt, "You are an expert at validating healthcare"):
		return `{"is_compliant": true, "compliance_score": 95, "hipaa_compliant": true, "summary": "ok", "confidence": 0.9}`, nil
	}
	return "", errors.New("unexpected prompt")
}

type fakeDocuments struct {
	docs map[uuid.UUID]*documents.Document

	mu       sync.Mutex
	analyses map[uuid.UUID]documents.AnalysisResult
}

func (f *fakeDocuments) Handler(_ int64) *documents.Handler { return nil }

func (f *fakeDocuments) List(_ context.Context, _ pagination.PageRequest, _ documents.Filters) (*pagination.PageResult[documents.Document], error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDocuments) Find(_ context.Context, id uuid.UUID) (*documents.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, documents.ErrNotFound
	}
	return doc, nil
}

func (f *fakeDocuments) Create(_ context.Context, _ documents.CreateCommand) (*documents.Document, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDocuments) RecordAnalysis(_ context.Context, id uuid.UUID, result documents.AnalysisResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.analyses == nil {
		f.analyses = map[uuid.UUID]documents.AnalysisResult{}
	}
	f.analyses[id] = result
	return nil
}

func (f *fakeDocuments) Delete(_ context.Context, _ uuid.UUID) error {
	return errors.New("not implemented")
}

type fakeRuns struct {
	mu       sync.Mutex
	recorded []runs.RecordCommand
	err      error
}

func (f *fakeRuns) Handler() *runs.Handler { return nil }

func (f *fakeRuns) List(_ context.Context, _ pagination.PageRequest, _ runs.Filters) (*pagination.PageResult[runs.Run], error) {
	return nil, errors.New("not implemented")
}

func (f *fakeRuns) Find(_ context.Context, _ uuid.UUID) (*runs.Run, error) {
	return nil, runs.ErrNotFound
}

func (f *fakeRuns) Record(_ context.Context, cmd runs.RecordCommand) (*runs.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.recorded = append(f.recorded, cmd)
	return &runs.Run{ID: cmd.ID, Workflow: cmd.Workflow, Status: cmd.Status}, nil
}

func (f *fakeRuns) Delete(_ context.Context, _ uuid.UUID) error { return nil }

type fakeSemantic struct {
	mu      sync.Mutex
	entries []semantic.StoreCommand
}

func (f *fakeSemantic) Handler() *semantic.Handler { return nil }

func (f *fakeSemantic) Store(_ context.Context, cmd semantic.StoreCommand) (*semantic.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, cmd)
	return &semantic.Entry{ID: uuid.New(), Entity: cmd.Entity, Content: cmd.Content}, nil
}

func (f *fakeSemantic) Query(_ context.Context, _ string, _ int) ([]semantic.Match, error) {
	return nil, nil
}

type fakeGraph struct {
	mu        sync.Mutex
	entities  []graph.EntityCommand
	relations []graph.RelationCommand
}

func (f *fakeGraph) Handler() *graph.Handler { return nil }

func (f *fakeGraph) AddEntity(_ context.Context, cmd graph.EntityCommand) (*graph.Entity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entities = append(f.entities, cmd)
	return &graph.Entity{ID: uuid.New(), Name: cmd.Name, Kind: cmd.Kind}, nil
}

func (f *fakeGraph) Relate(_ context.Context, cmd graph.RelationCommand) (*graph.Relation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.relations = append(f.relations, cmd)
	return &graph.Relation{ID: uuid.New(), FromID: cmd.FromID, ToID: cmd.ToID, Kind: cmd.Kind}, nil
}

func (f *fakeGraph) Paths(_ context.Context, _ uuid.UUID, _ int) ([]graph.Path, error) {
	return nil, nil
}

type fixture struct {
	sys       processing.System
	documents *fakeDocuments
	runs      *fakeRuns
	semantic  *fakeSemantic
	graph     *fakeGraph
}

func newFixture(docs map[uuid.UUID]*documents.Document) *fixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{
		documents: &fakeDocuments{docs: docs},
		runs:      &fakeRuns{},
		semantic:  &fakeSemantic{},
		graph:     &fakeGraph{},
	}
	f.sys = processing.New(
		workflow.NewRunner(stubCompletion{}, logger),
		f.documents,
		f.runs,
		f.semantic,
		f.graph,
		logger,
	)
	return f
}

func TestProcessDocumentPersistence(t *testing.T) {
	docID := uuid.New()
	text := "Invoice INV-1 total 150"
	f := newFixture(map[uuid.UUID]*documents.Document{
		docID: {ID: docID, RawText: &text, Status: documents.StatusUploaded},
	})

	st, err := f.sys.ProcessDocument(context.Background(), processing.DocumentRequest{
		DocumentID: &docID,
	})
	if err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}
	if st.Status != workflow.StatusCompleted {
		t.Fatalf("status = %q, want completed", st.Status)
	}

	if len(f.runs.recorded) != 1 {
		t.Fatalf("recorded runs = %d, want 1", len(f.runs.recorded))
	}
	rec := f.runs.recorded[0]
	if rec.Workflow != runs.WorkflowDocumentProcessing {
		t.Errorf("workflow = %q", rec.Workflow)
	}
	if rec.DocumentID == nil || *rec.DocumentID != docID {
		t.Error("document id not recorded on run")
	}
	if len(rec.State) == 0 {
		t.Error("run state not serialized")
	}

	analysis, ok := f.documents.analyses[docID]
	if !ok {
		t.Fatal("analysis result not recorded on document")
	}
	if analysis.Status != documents.StatusProcessed {
		t.Errorf("document status = %q", analysis.Status)
	}
	if analysis.DocumentType == nil || *analysis.DocumentType != "invoice" {
		t.Error("document type not recorded")
	}

	if len(f.semantic.entries) != 1 {
		t.Fatalf("semantic entries = %d, want 1", len(f.semantic.entries))
	}
	if f.semantic.entries[0].Content != text {
		t.Error("document text not indexed")
	}

	if len(f.graph.entities) != 2 || len(f.graph.relations) != 1 {
		t.Fatalf("graph projection = %d entities, %d relations",
			len(f.graph.entities), len(f.graph.relations))
	}
	if f.graph.relations[0].Kind != "classified_as" {
		t.Errorf("relation kind = %q", f.graph.relations[0].Kind)
	}
}

func TestProcessDocumentTextResolution(t *testing.T) {
	t.Run("unknown document", func(t *testing.T) {
		f := newFixture(nil)
		id := uuid.New()

		_, err := f.sys.ProcessDocument(context.Background(), processing.DocumentRequest{
			DocumentID: &id,
		})
		if !errors.Is(err, documents.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("document without text", func(t *testing.T) {
		id := uuid.New()
		f := newFixture(map[uuid.UUID]*documents.Document{
			id: {ID: id, Status: documents.StatusUploaded},
		})

		_, err := f.sys.ProcessDocument(context.Background(), processing.DocumentRequest{
			DocumentID: &id,
		})
		if !errors.Is(err, processing.ErrNoDocumentText) {
			t.Fatalf("err = %v, want ErrNoDocumentText", err)
		}
	})

	t.Run("no id and no text", func(t *testing.T) {
		f := newFixture(nil)

		_, err := f.sys.ProcessDocument(context.Background(), processing.DocumentRequest{})
		if !errors.Is(err, processing.ErrInvalidRequest) {
			t.Fatalf("err = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("inline text", func(t *testing.T) {
		f := newFixture(nil)

		st, err := f.sys.ProcessDocument(context.Background(), processing.DocumentRequest{
			RawText: "Invoice INV-1",
		})
		if err != nil {
			t.Fatalf("ProcessDocument: %v", err)
		}
		if st.DocumentType != workflow.TypeInvoice {
			t.Errorf("document type = %q", st.DocumentType)
		}
	})
}

func TestProcessDocumentPersistenceFailureIsSilent(t *testing.T) {
	f := newFixture(nil)
	f.runs.err = errors.New("connection refused")

	st, err := f.sys.ProcessDocument(context.Background(), processing.DocumentRequest{
		RawText: "Invoice INV-1",
	})
	if err != nil {
		t.Fatalf("persistence failure must not surface: %v", err)
	}
	if st.Status != workflow.StatusCompleted {
		t.Errorf("status = %q", st.Status)
	}

	// independent persisters still ran
	if len(f.semantic.entries) != 1 {
		t.Errorf("semantic entries = %d, want 1", len(f.semantic.entries))
	}
	if len(f.graph.relations) != 1 {
		t.Errorf("graph relations = %d, want 1", len(f.graph.relations))
	}
}

func TestCheckEligibilityPersistence(t *testing.T) {
	f := newFixture(nil)
	checkID := uuid.New()

	st, err := f.sys.CheckEligibility(context.Background(), processing.EligibilityRequest{
		CheckID:     &checkID,
		PolicyInfo:  map[string]any{"policy_number": "POL-9"},
		ServiceInfo: map[string]any{"service": "MRI"},
	})
	if err != nil {
		t.Fatalf("CheckEligibility: %v", err)
	}
	if st.Eligibility == nil || !st.Eligibility.IsEligible {
		t.Fatal("eligibility decision missing")
	}

	if len(f.runs.recorded) != 1 {
		t.Fatalf("recorded runs = %d, want 1", len(f.runs.recorded))
	}
	if f.runs.recorded[0].Workflow != runs.WorkflowEligibilityCheck {
		t.Errorf("workflow = %q", f.runs.recorded[0].Workflow)
	}

	if len(f.semantic.entries) != 1 {
		t.Fatalf("semantic entries = %d, want 1", len(f.semantic.entries))
	}
	if f.semantic.entries[0].Entity != checkID.String() {
		t.Errorf("entity = %q, want check id", f.semantic.entries[0].Entity)
	}
	if f.semantic.entries[0].Content != "covered" {
		t.Errorf("indexed content = %q", f.semantic.entries[0].Content)
	}
}
