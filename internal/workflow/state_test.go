package workflow

import (
	"errors"
	"testing"

	"github.com/finsightai/finsight/internal/agents"
)

func TestMergeFieldOwnership(t *testing.T) {
	st := newState()

	res := agents.Result{Output: &agents.Classification{DocumentType: "invoice"}, Confidence: 0.9}
	if err := st.merge(stageClassify, res); err != nil {
		t.Fatalf("first merge: %v", err)
	}

	err := st.merge(stageClassify, res)
	if !errors.Is(err, ErrFieldOwned) {
		t.Fatalf("second merge err = %v, want ErrFieldOwned", err)
	}
}

func TestMergeExtractionOwnedAcrossStages(t *testing.T) {
	st := newState()

	res := agents.Result{Output: &agents.Extraction{Kind: agents.ExtractionInvoice}}
	if err := st.merge(stageExtractInvoice, res); err != nil {
		t.Fatalf("first merge: %v", err)
	}

	// any extraction stage writes the same field
	err := st.merge(stageParsePolicy, agents.Result{
		Output: &agents.Extraction{Kind: agents.ExtractionPolicy},
	})
	if !errors.Is(err, ErrFieldOwned) {
		t.Fatalf("cross-stage merge err = %v, want ErrFieldOwned", err)
	}
}

func TestMergePayloadType(t *testing.T) {
	st := newState()

	err := st.merge(stageDetectFraud, agents.Result{Output: &agents.Classification{}})
	if !errors.Is(err, ErrPayloadType) {
		t.Fatalf("err = %v, want ErrPayloadType", err)
	}
	if st.Fraud != nil {
		t.Error("rejected merge must not write the field")
	}
}

func TestMergeErrorLeavesFieldAbsent(t *testing.T) {
	st := newState()

	if err := st.merge(stageClassify, agents.Result{Err: errors.New("timeout")}); err != nil {
		t.Fatalf("merge: %v", err)
	}

	if st.Classification != nil {
		t.Error("failed stage must leave its field absent")
	}
	if st.ErrorCount() != 1 {
		t.Fatalf("error count = %d, want 1", st.ErrorCount())
	}
	if st.Errors[0].Stage != stageClassify {
		t.Errorf("error stage = %q, want %q", st.Errors[0].Stage, stageClassify)
	}
	if st.Errors[0].Timestamp.IsZero() {
		t.Error("error timestamp should be set")
	}
}

func TestMergeConfidenceOnlyForDecisionStages(t *testing.T) {
	st := newState()

	st.merge(stageClassify, agents.Result{
		Output: &agents.Classification{DocumentType: "invoice"}, Confidence: 0.9,
	})
	st.merge(stageExtractInvoice, agents.Result{
		Output: &agents.Extraction{Kind: agents.ExtractionInvoice}, Confidence: 0.5,
	})

	if got, ok := st.Confidence[stageClassify]; !ok || got != 0.9 {
		t.Errorf("classify confidence = %v (%v), want 0.9", got, ok)
	}
	if _, ok := st.Confidence[stageExtractInvoice]; ok {
		t.Error("extraction stage must not record confidence")
	}
}

func TestStatusMonotonic(t *testing.T) {
	st := newState()
	if st.Status != StatusPending {
		t.Fatalf("initial status = %q", st.Status)
	}

	st.advance(StatusRunning)
	st.advance(StatusPending)
	if st.Status != StatusRunning {
		t.Errorf("status regressed to %q", st.Status)
	}

	st.advance(StatusCompleted)
	st.advance(StatusRunning)
	if st.Status != StatusCompleted {
		t.Errorf("terminal status not sticky, got %q", st.Status)
	}
}

func TestFinishStatus(t *testing.T) {
	clean := newState()
	clean.advance(StatusRunning)
	clean.finish()
	if clean.Status != StatusCompleted {
		t.Errorf("clean finish status = %q, want completed", clean.Status)
	}

	dirty := newState()
	dirty.advance(StatusRunning)
	dirty.appendError(stageClassify, errors.New("timeout"))
	dirty.finish()
	if dirty.Status != StatusCompletedWithErrors {
		t.Errorf("dirty finish status = %q, want completed_with_errors", dirty.Status)
	}
	if dirty.CompletedAt == nil {
		t.Error("completed_at should be set")
	}
}

func TestParseDocumentType(t *testing.T) {
	tests := []struct {
		in   string
		want DocumentType
	}{
		{"invoice", TypeInvoice},
		{"Invoice", TypeInvoice},
		{"INVOICE", TypeInvoice},
		{"  policy  ", TypePolicy},
		{"claim_form", TypeClaimForm},
		{"eob", TypeEOB},
		{"EOB", TypeEOB},
		{"receipt", TypeReceipt},
		{"bank_statement", TypeUnknown},
		{"", TypeUnknown},
		{"unknown", TypeUnknown},
	}

	for _, tc := range tests {
		if got := ParseDocumentType(tc.in); got != tc.want {
			t.Errorf("ParseDocumentType(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
