package workflow_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/finsightai/finsight/internal/workflow"
)

// stubService scripts completion responses per stage. Stages are recognized
// by the distinct opening line of each agent's prompt.
type stubService struct {
	mu        sync.Mutex
	responses map[string]string
	fail      map[string]error
	calls     []string
	prompts   []string
}

var stagePrefixes = map[string]string{
	"classify":            "You are an expert at classifying financial and insurance documents",
	"extract_invoice":     "You are an expert at extracting structured information from invoices",
	"parse_policy":        "You are an expert at analyzing insurance policy documents",
	"analyze_claim":       "You are an expert at analyzing medical and insurance claims",
	"check_eligibility":   "You are an expert at determining insurance coverage eligibility",
	"detect_fraud":        "You are an expert at detecting fraud",
	"validate_compliance": "You are an expert at validating healthcare",
}

func stageOf(prompt string) string {
	for stage, prefix := range stagePrefixes {
		if strings.HasPrefix(prompt, prefix) {
			return stage
		}
	}
	return "unknown"
}

func (s *stubService) Complete(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stage := stageOf(prompt)
	s.calls = append(s.calls, stage)
	s.prompts = append(s.prompts, prompt)

	if err := s.fail[stage]; err != nil {
		return "", err
	}
	return s.responses[stage], nil
}

func (s *stubService) stages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func newStub(documentType string) *stubService {
	return &stubService{
		responses: map[string]string{
			"classify": fmt.Sprintf(
				`{"document_type": %q, "confidence": 0.95, "reasoning": "header terms", "key_indicators": ["Policy Number"]}`,
				documentType,
			),
			"extract_invoice": `{"invoice_number": "INV-100", "invoice_date": "2026-01-15",
				"provider_name": "Acme Medical", "line_items": [
					{"description": "Office visit", "code": "99213", "quantity": 1, "unit_price": 150, "total": 150}],
				"subtotal": 150, "tax": 0, "total": 150, "balance_due": 150}`,
			"parse_policy": `{"policy_number": "POL-88", "policy_holder": "Jane Roe",
				"insurance_company": "Acme Health", "policy_type": "health",
				"effective_date": "2026-01-01", "expiration_date": "2026-12-31",
				"deductible": 1000, "coverages": [
					{"service": "primary care", "coverage_percentage": 80, "copay": 25, "notes": ""}],
				"exclusions": ["cosmetic"]}`,
			"analyze_claim": `{"claim_number": "CLM-7", "policy_number": "POL-88",
				"claimant_name": "Jane Roe", "date_of_service": "2026-02-02",
				"provider_name": "Acme Medical", "diagnosis_codes": ["J06.9"],
				"procedure_codes": ["99213"], "total_charged": 150,
				"claim_status": "approved", "coverage_analysis": "covered",
				"benefit_calculation": "80 percent after deductible"}`,
			"check_eligibility": `{"is_eligible": true, "confidence": 0.9,
				"coverage_percentage": 80, "estimated_cost": 1200,
				"insurance_payment": 960, "patient_payment": 240,
				"prior_auth_required": true, "reasoning": "service covered under plan"}`,
			"detect_fraud": `{"fraud_risk_score": 12, "risk_level": "low",
				"indicators": [], "summary": "no significant indicators", "confidence": 0.85}`,
			"validate_compliance": `{"is_compliant": true, "compliance_score": 92,
				"hipaa_compliant": true, "issues": [], "summary": "compliant", "confidence": 0.88}`,
		},
		fail: map[string]error{},
	}
}

func newRunner(stub *stubService) *workflow.Runner {
	return workflow.NewRunner(stub, slog.New(slog.DiscardHandler))
}

func documentSeed() workflow.DocumentSeed {
	return workflow.DocumentSeed{
		RawText:            "Policy Number POL-88 issued by Acme Health",
		RunFraudDetection:  true,
		RunComplianceCheck: true,
	}
}

func TestRouting(t *testing.T) {
	tests := []struct {
		name           string
		documentType   string
		wantKind       string
		wantExtraction bool
	}{
		{"invoice lower", "invoice", "invoice", true},
		{"invoice title", "Invoice", "invoice", true},
		{"invoice upper", "INVOICE", "invoice", true},
		{"policy", "policy", "policy", true},
		{"claim form", "claim_form", "claim", true},
		{"eob", "eob", "claim", true},
		{"receipt skips extraction", "receipt", "", false},
		{"unrecognized skips extraction", "bank_statement", "", false},
		{"empty skips extraction", "", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stub := newStub(tc.documentType)
			st, err := newRunner(stub).ProcessDocument(context.Background(), documentSeed())
			if err != nil {
				t.Fatalf("ProcessDocument: %v", err)
			}

			if tc.wantExtraction {
				if st.Extraction == nil {
					t.Fatal("expected extraction, got none")
				}
				if st.Extraction.Kind != tc.wantKind {
					t.Errorf("extraction kind = %q, want %q", st.Extraction.Kind, tc.wantKind)
				}
			} else if st.Extraction != nil {
				t.Errorf("expected no extraction, got kind %q", st.Extraction.Kind)
			}

			if st.Fraud == nil || st.Compliance == nil {
				t.Error("fraud and compliance should run on every route")
			}
		})
	}
}

func TestRoutingAfterClassifyFailure(t *testing.T) {
	stub := newStub("invoice")
	stub.fail["classify"] = errors.New("provider timeout")

	st, err := newRunner(stub).ProcessDocument(context.Background(), documentSeed())
	if err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}

	if st.Classification != nil {
		t.Error("classification should be absent after classify failure")
	}
	if st.Extraction != nil {
		t.Error("extraction must not run against unclassified text")
	}
	if st.Fraud == nil || st.Compliance == nil {
		t.Error("fraud and compliance should still run")
	}
	if st.DocumentType != workflow.TypeUnknown {
		t.Errorf("document type = %q, want unknown", st.DocumentType)
	}

	want := []string{"classify", "detect_fraud", "validate_compliance"}
	if got := stub.stages(); !equalStages(got, want) {
		t.Errorf("stage order = %v, want %v", got, want)
	}
}

func TestFailureIsolation(t *testing.T) {
	stub := newStub("invoice")
	stub.fail["extract_invoice"] = errors.New("rate limited")

	st, err := newRunner(stub).ProcessDocument(context.Background(), documentSeed())
	if err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}

	if len(st.Errors) != 1 {
		t.Fatalf("errors = %d, want 1", len(st.Errors))
	}
	if st.Errors[0].Stage != "extract_invoice" {
		t.Errorf("error stage = %q, want extract_invoice", st.Errors[0].Stage)
	}
	if st.Extraction != nil {
		t.Error("extraction should be absent after extract failure")
	}
	if st.Fraud == nil || st.Compliance == nil {
		t.Error("downstream stages should run on whatever is available")
	}
	if st.Status != workflow.StatusCompletedWithErrors {
		t.Errorf("status = %q, want %q", st.Status, workflow.StatusCompletedWithErrors)
	}
}

func TestAllNodesFailing(t *testing.T) {
	stub := newStub("policy")
	for stage := range stagePrefixes {
		stub.fail[stage] = errors.New("connection refused")
	}

	st, err := newRunner(stub).ProcessDocument(context.Background(), documentSeed())
	if err != nil {
		t.Fatalf("ProcessDocument should not fail for agent-level errors: %v", err)
	}

	if st.Status != workflow.StatusCompletedWithErrors {
		t.Errorf("status = %q, want %q", st.Status, workflow.StatusCompletedWithErrors)
	}
	// classify fails, extraction is skipped, fraud and compliance fail
	if len(st.Errors) != 3 {
		t.Errorf("errors = %d, want 3", len(st.Errors))
	}
}

func TestAllSuccessPolicyPath(t *testing.T) {
	stub := newStub("policy")

	st, err := newRunner(stub).ProcessDocument(context.Background(), documentSeed())
	if err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}

	if st.Classification == nil || st.Extraction == nil || st.Fraud == nil || st.Compliance == nil {
		t.Fatal("all stage fields should be present on the success path")
	}
	if st.Extraction.Policy == nil || st.Extraction.Policy.PolicyNumber != "POL-88" {
		t.Error("policy extraction payload missing or wrong")
	}
	if len(st.Errors) != 0 {
		t.Errorf("errors = %v, want none", st.Errors)
	}
	if st.Status != workflow.StatusCompleted {
		t.Errorf("status = %q, want %q", st.Status, workflow.StatusCompleted)
	}
	if st.CompletedAt == nil {
		t.Error("completed_at should be set")
	}

	for _, stage := range []string{"classify", "detect_fraud", "validate_compliance"} {
		if _, ok := st.Confidence[stage]; !ok {
			t.Errorf("confidence map missing stage %s", stage)
		}
	}
	if _, ok := st.Confidence["parse_policy"]; ok {
		t.Error("extraction stages should not record confidence")
	}
}

func TestFlagSuppression(t *testing.T) {
	stub := newStub("receipt")
	stub.fail["detect_fraud"] = errors.New("should never be called")

	seed := documentSeed()
	seed.RunFraudDetection = false

	st, err := newRunner(stub).ProcessDocument(context.Background(), seed)
	if err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}

	if st.Fraud != nil {
		t.Error("fraud analysis should be absent when suppressed")
	}
	for _, e := range st.Errors {
		if e.Stage == "detect_fraud" {
			t.Error("suppressed stage must not contribute error entries")
		}
	}
	if st.Compliance == nil {
		t.Error("compliance should still run when only fraud is suppressed")
	}
	if st.Status != workflow.StatusCompleted {
		t.Errorf("status = %q, want %q", st.Status, workflow.StatusCompleted)
	}
}

func TestSequentialDeterminism(t *testing.T) {
	run := func() *workflow.State {
		stub := newStub("invoice")
		stub.fail["detect_fraud"] = errors.New("rate limited")

		st, err := newRunner(stub).ProcessDocument(context.Background(), documentSeed())
		if err != nil {
			t.Fatalf("ProcessDocument: %v", err)
		}
		return st
	}

	first, second := run(), run()

	a, _ := json.Marshal(first.Extraction)
	b, _ := json.Marshal(second.Extraction)
	if string(a) != string(b) {
		t.Error("extraction differs between identical runs")
	}

	if len(first.Errors) != len(second.Errors) {
		t.Fatalf("error counts differ: %d vs %d", len(first.Errors), len(second.Errors))
	}
	for i := range first.Errors {
		if first.Errors[i].Stage != second.Errors[i].Stage {
			t.Errorf("error stage order differs at %d: %q vs %q",
				i, first.Errors[i].Stage, second.Errors[i].Stage)
		}
	}
	if first.Status != second.Status {
		t.Errorf("status differs: %q vs %q", first.Status, second.Status)
	}
}

func TestCancellationPreservesPartialState(t *testing.T) {
	stub := newStub("policy")
	runner := newRunner(stub)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	st, err := runner.ProcessDocument(ctx, documentSeed())
	if err != nil {
		t.Fatalf("cancellation must not surface as an error: %v", err)
	}

	if st.Status != workflow.StatusFailed {
		t.Errorf("status = %q, want %q", st.Status, workflow.StatusFailed)
	}
	if st.CompletedAt == nil {
		t.Error("completed_at should be set on cancellation")
	}
	if st.RawText == "" {
		t.Error("seed fields must be preserved on cancellation")
	}
}

func TestInvalidDocumentSeed(t *testing.T) {
	_, err := newRunner(newStub("invoice")).ProcessDocument(
		context.Background(),
		workflow.DocumentSeed{RawText: "   "},
	)
	if !errors.Is(err, workflow.ErrInvalidSeed) {
		t.Fatalf("err = %v, want ErrInvalidSeed", err)
	}
}

func eligibilitySeed() workflow.EligibilitySeed {
	return workflow.EligibilitySeed{
		PolicyInfo:         map[string]any{"policy_number": "POL-88", "deductible": 1000},
		ServiceInfo:        map[string]any{"service": "MRI", "estimated_cost": 1200},
		PatientInfo:        map[string]any{"age": 42},
		RunFraudDetection:  true,
		RunComplianceCheck: true,
	}
}

func TestEligibilityChainLinearity(t *testing.T) {
	stub := newStub("")
	stub.fail["check_eligibility"] = errors.New("provider error")

	st, err := newRunner(stub).CheckEligibility(context.Background(), eligibilitySeed())
	if err != nil {
		t.Fatalf("CheckEligibility: %v", err)
	}

	want := []string{"check_eligibility", "detect_fraud", "validate_compliance"}
	if got := stub.stages(); !equalStages(got, want) {
		t.Errorf("stage order = %v, want %v", got, want)
	}

	if st.Eligibility != nil {
		t.Error("eligibility result should be absent after its stage failed")
	}
	if st.Fraud == nil || st.Compliance == nil {
		t.Error("downstream stages should still populate their fields")
	}
	if st.Status != workflow.StatusCompletedWithErrors {
		t.Errorf("status = %q, want %q", st.Status, workflow.StatusCompletedWithErrors)
	}
}

func TestEligibilitySeedValidation(t *testing.T) {
	tests := []struct {
		name string
		seed workflow.EligibilitySeed
	}{
		{"missing policy info", workflow.EligibilitySeed{
			ServiceInfo: map[string]any{"service": "MRI"},
		}},
		{"missing service info", workflow.EligibilitySeed{
			PolicyInfo: map[string]any{"policy_number": "POL-88"},
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newRunner(newStub("")).CheckEligibility(context.Background(), tc.seed)
			if !errors.Is(err, workflow.ErrInvalidSeed) {
				t.Fatalf("err = %v, want ErrInvalidSeed", err)
			}
		})
	}
}

func TestEligibilityPromptDeterminism(t *testing.T) {
	prompt := func() string {
		stub := newStub("")
		if _, err := newRunner(stub).CheckEligibility(context.Background(), eligibilitySeed()); err != nil {
			t.Fatalf("CheckEligibility: %v", err)
		}

		stub.mu.Lock()
		defer stub.mu.Unlock()
		return stub.prompts[0]
	}

	first, second := prompt(), prompt()
	if first != second {
		t.Error("identical seeds should render identical eligibility prompts")
	}
	for _, want := range []string{"policy_number: POL-88", "service: MRI", "age: 42"} {
		if !strings.Contains(first, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestEligibilityFlagSuppression(t *testing.T) {
	stub := newStub("")
	seed := eligibilitySeed()
	seed.RunFraudDetection = false
	seed.RunComplianceCheck = false

	st, err := newRunner(stub).CheckEligibility(context.Background(), seed)
	if err != nil {
		t.Fatalf("CheckEligibility: %v", err)
	}

	if st.Fraud != nil || st.Compliance != nil {
		t.Error("suppressed stages should leave fields absent")
	}
	if got, want := stub.stages(), []string{"check_eligibility"}; !equalStages(got, want) {
		t.Errorf("stages = %v, want %v", got, want)
	}
}

func TestConcurrentRuns(t *testing.T) {
	stub := newStub("policy")
	runner := newRunner(stub)

	var wg sync.WaitGroup
	states := make([]*workflow.State, 8)
	for i := range states {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			st, err := runner.ProcessDocument(context.Background(), documentSeed())
			if err != nil {
				t.Errorf("run %d: %v", i, err)
				return
			}
			states[i] = st
		}(i)
	}
	wg.Wait()

	seen := map[uuid.UUID]bool{}
	for i, st := range states {
		if st == nil {
			continue
		}
		if seen[st.WorkflowID] {
			t.Errorf("run %d reused workflow id %s", i, st.WorkflowID)
		}
		seen[st.WorkflowID] = true
		if st.Status != workflow.StatusCompleted {
			t.Errorf("run %d status = %q", i, st.Status)
		}
	}
}

func equalStages(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
