// Package processing exposes the workflow runners over HTTP and fans each
// finished run out to the persistence domains: run history, document
// metadata, the semantic index, and the knowledge graph.
package processing

import (
	"context"

	"github.com/google/uuid"

	"github.com/finsightai/finsight/internal/workflow"
)

// DocumentRequest starts a document-processing run. Exactly one of
// DocumentID and RawText is required; when DocumentID is set the stored
// document's extracted text is used. Nil flags default to true.
type DocumentRequest struct {
	DocumentID         *uuid.UUID `json:"document_id,omitempty"`
	RawText            string     `json:"raw_text,omitempty"`
	RunFraudDetection  *bool      `json:"run_fraud_detection,omitempty"`
	RunComplianceCheck *bool      `json:"run_compliance_check,omitempty"`
}

// EligibilityRequest starts an eligibility-check run. Nil flags default to
// true.
type EligibilityRequest struct {
	CheckID            *uuid.UUID     `json:"check_id,omitempty"`
	PolicyInfo         map[string]any `json:"policy_info"`
	ServiceInfo        map[string]any `json:"service_info"`
	PatientInfo        map[string]any `json:"patient_info,omitempty"`
	RunFraudDetection  *bool          `json:"run_fraud_detection,omitempty"`
	RunComplianceCheck *bool          `json:"run_compliance_check,omitempty"`
}

// System defines the public contract for processing operations. Both calls
// are synchronous: they return the final workflow state, including partial
// results when stages failed.
type System interface {
	Handler() *Handler

	ProcessDocument(ctx context.Context, req DocumentRequest) (*workflow.State, error)
	CheckEligibility(ctx context.Context, req EligibilityRequest) (*workflow.State, error)
}

func flag(b *bool) bool {
	if b == nil {
		return true
	}
	return *b
}
