package processing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/finsightai/finsight/internal/documents"
	"github.com/finsightai/finsight/internal/graph"
	"github.com/finsightai/finsight/internal/runs"
	"github.com/finsightai/finsight/internal/semantic"
	"github.com/finsightai/finsight/internal/workflow"
)

type service struct {
	runner    *workflow.Runner
	documents documents.System
	runs      runs.System
	semantic  semantic.System
	graph     graph.System
	logger    *slog.Logger
}

// New creates the processing service implementing the System interface.
func New(
	runner *workflow.Runner,
	docs documents.System,
	runStore runs.System,
	index semantic.System,
	kg graph.System,
	logger *slog.Logger,
) System {
	return &service{
		runner:    runner,
		documents: docs,
		runs:      runStore,
		semantic:  index,
		graph:     kg,
		logger:    logger.With("system", "processing"),
	}
}

func (s *service) Handler() *Handler {
	return NewHandler(s, s.logger)
}

func (s *service) ProcessDocument(ctx context.Context, req DocumentRequest) (*workflow.State, error) {
	rawText := req.RawText
	if req.DocumentID != nil {
		doc, err := s.documents.Find(ctx, *req.DocumentID)
		if err != nil {
			return nil, err
		}
		if doc.RawText == nil || *doc.RawText == "" {
			return nil, fmt.Errorf("%w: %s", ErrNoDocumentText, doc.ID)
		}
		rawText = *doc.RawText
	}

	if rawText == "" {
		return nil, fmt.Errorf("%w: document_id or raw_text is required", ErrInvalidRequest)
	}

	st, err := s.runner.ProcessDocument(ctx, workflow.DocumentSeed{
		DocumentID:         req.DocumentID,
		RawText:            rawText,
		RunFraudDetection:  flag(req.RunFraudDetection),
		RunComplianceCheck: flag(req.RunComplianceCheck),
	})
	if err != nil {
		return nil, err
	}

	s.persistDocumentRun(ctx, st)
	return st, nil
}

func (s *service) CheckEligibility(ctx context.Context, req EligibilityRequest) (*workflow.State, error) {
	st, err := s.runner.CheckEligibility(ctx, workflow.EligibilitySeed{
		CheckID:            req.CheckID,
		PolicyInfo:         req.PolicyInfo,
		ServiceInfo:        req.ServiceInfo,
		PatientInfo:        req.PatientInfo,
		RunFraudDetection:  flag(req.RunFraudDetection),
		RunComplianceCheck: flag(req.RunComplianceCheck),
	})
	if err != nil {
		return nil, err
	}

	s.persistEligibilityRun(ctx, st)
	return st, nil
}

// persistDocumentRun records the run and projects its results into the
// document row, the semantic index, and the knowledge graph. Persistence
// failures are logged, never surfaced: the caller already holds the run
// result and a partial projection is recoverable from the run record.
func (s *service) persistDocumentRun(ctx context.Context, st *workflow.State) {
	var g errgroup.Group

	g.Go(func() error {
		return s.recordRun(ctx, runs.WorkflowDocumentProcessing, st)
	})

	if st.DocumentID != nil {
		g.Go(func() error {
			return s.documents.RecordAnalysis(ctx, *st.DocumentID, analysisResult(st))
		})
	}

	if st.Classification != nil {
		g.Go(func() error { return s.indexDocument(ctx, st) })
		g.Go(func() error { return s.projectGraph(ctx, st) })
	}

	if err := g.Wait(); err != nil {
		s.logger.Warn(
			"document run persistence incomplete",
			"workflow_id", st.WorkflowID,
			"error", err,
		)
	}
}

func (s *service) persistEligibilityRun(ctx context.Context, st *workflow.State) {
	var g errgroup.Group

	g.Go(func() error {
		return s.recordRun(ctx, runs.WorkflowEligibilityCheck, st)
	})

	if st.Eligibility != nil {
		g.Go(func() error {
			metadata, _ := json.Marshal(map[string]any{
				"workflow_id": st.WorkflowID,
				"is_eligible": st.Eligibility.IsEligible,
			})
			_, err := s.semantic.Store(ctx, semantic.StoreCommand{
				Entity:   entityName(st),
				Content:  st.Eligibility.Reasoning,
				Metadata: metadata,
			})
			return err
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Warn(
			"eligibility run persistence incomplete",
			"workflow_id", st.WorkflowID,
			"error", err,
		)
	}
}

func (s *service) recordRun(ctx context.Context, kind string, st *workflow.State) error {
	stateJSON, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal run state: %w", err)
	}

	_, err = s.runs.Record(ctx, runs.RecordCommand{
		ID:         st.WorkflowID,
		Workflow:   kind,
		DocumentID: st.DocumentID,
		CheckID:    st.CheckID,
		Status:     string(st.Status),
		State:      stateJSON,
		ErrorCount: st.ErrorCount(),
	})
	return err
}

func (s *service) indexDocument(ctx context.Context, st *workflow.State) error {
	metadata, _ := json.Marshal(map[string]any{
		"workflow_id":   st.WorkflowID,
		"document_type": st.DocumentType,
	})

	_, err := s.semantic.Store(ctx, semantic.StoreCommand{
		Entity:   entityName(st),
		Content:  st.RawText,
		Metadata: metadata,
	})
	return err
}

// projectGraph links the processed document to its classified type. Unknown
// classifications contribute nothing to the graph.
func (s *service) projectGraph(ctx context.Context, st *workflow.State) error {
	if st.DocumentType == workflow.TypeUnknown || st.DocumentType == "" {
		return nil
	}

	doc, err := s.graph.AddEntity(ctx, graph.EntityCommand{
		Name: entityName(st),
		Kind: "document",
	})
	if err != nil {
		return err
	}

	docType, err := s.graph.AddEntity(ctx, graph.EntityCommand{
		Name: string(st.DocumentType),
		Kind: "document_type",
	})
	if err != nil {
		return err
	}

	_, err = s.graph.Relate(ctx, graph.RelationCommand{
		FromID: doc.ID,
		ToID:   docType.ID,
		Kind:   "classified_as",
	})
	return err
}

func analysisResult(st *workflow.State) documents.AnalysisResult {
	result := documents.AnalysisResult{Status: documents.StatusProcessed}
	if st.Status == workflow.StatusFailed {
		result.Status = documents.StatusFailed
	}

	if st.DocumentType != "" {
		dt := string(st.DocumentType)
		result.DocumentType = &dt
	}

	return result
}

func entityName(st *workflow.State) string {
	if st.DocumentID != nil {
		return st.DocumentID.String()
	}
	if st.CheckID != nil {
		return st.CheckID.String()
	}
	return st.WorkflowID.String()
}
