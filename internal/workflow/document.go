package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DocumentType is the closed set of document classifications. Unknown is a
// first-class variant, not an error: routing is total over every value.
type DocumentType string

const (
	TypeInvoice   DocumentType = "invoice"
	TypePolicy    DocumentType = "policy"
	TypeClaimForm DocumentType = "claim_form"
	TypeEOB       DocumentType = "eob"
	TypeReceipt   DocumentType = "receipt"
	TypeUnknown   DocumentType = "unknown"
)

// ParseDocumentType maps a classifier-reported type onto the closed enum,
// case-insensitively. Values outside the known set collapse to TypeUnknown.
func ParseDocumentType(s string) DocumentType {
	switch DocumentType(strings.ToLower(strings.TrimSpace(s))) {
	case TypeInvoice:
		return TypeInvoice
	case TypePolicy:
		return TypePolicy
	case TypeClaimForm:
		return TypeClaimForm
	case TypeEOB:
		return TypeEOB
	case TypeReceipt:
		return TypeReceipt
	}
	return TypeUnknown
}

// DocumentSeed is the caller-supplied input for a document-processing run.
type DocumentSeed struct {
	DocumentID         *uuid.UUID
	RawText            string
	RunFraudDetection  bool
	RunComplianceCheck bool
}

// documentNext is the unconditional portion of the document graph. The
// classify node routes through routeAfterClassify instead.
var documentNext = map[nodeID]nodeID{
	nodeExtractInvoice:     nodeDetectFraud,
	nodeParsePolicy:        nodeDetectFraud,
	nodeAnalyzeClaim:       nodeDetectFraud,
	nodeDetectFraud:        nodeValidateCompliance,
	nodeValidateCompliance: nodeEnd,
}

// routeAfterClassify picks the extraction node for the classified type.
// A failed classification or an unrecognized type skips extraction and
// proceeds straight to fraud detection; that branch is a defined route, not
// an error. The document_type state field is written here, once.
func routeAfterClassify(st *State) nodeID {
	if st.Classification == nil {
		st.DocumentType = TypeUnknown
		return nodeDetectFraud
	}

	st.DocumentType = ParseDocumentType(st.Classification.DocumentType)

	switch st.DocumentType {
	case TypeInvoice:
		return nodeExtractInvoice
	case TypePolicy:
		return nodeParsePolicy
	case TypeClaimForm, TypeEOB:
		return nodeAnalyzeClaim
	default:
		return nodeDetectFraud
	}
}

// ProcessDocument runs the document-processing graph to completion. Agent
// failures accumulate in the returned state; the only returned errors are
// seed precondition violations and merge contract violations. Cancellation
// is cooperative at node boundaries and preserves fields written so far.
func (r *Runner) ProcessDocument(ctx context.Context, seed DocumentSeed) (*State, error) {
	if strings.TrimSpace(seed.RawText) == "" {
		return nil, fmt.Errorf("%w: raw_text is required", ErrInvalidSeed)
	}

	st := newState()
	st.DocumentID = seed.DocumentID
	st.RawText = seed.RawText
	st.advance(StatusRunning)

	r.logger.InfoContext(
		ctx, "document workflow started",
		"workflow_id", st.WorkflowID,
		"fraud_detection", seed.RunFraudDetection,
		"compliance_check", seed.RunComplianceCheck,
	)

	for node := nodeClassify; node != nodeEnd; {
		if ctx.Err() != nil {
			st.cancel()
			r.logger.WarnContext(
				ctx, "document workflow cancelled",
				"workflow_id", st.WorkflowID,
				"stage", stageNames[node],
			)
			return st, nil
		}

		if skipNode(node, seed.RunFraudDetection, seed.RunComplianceCheck) {
			node = documentNext[node]
			continue
		}

		if err := st.merge(stageNames[node], r.agent(node).Run(ctx, st.input())); err != nil {
			return nil, err
		}

		if node == nodeClassify {
			node = routeAfterClassify(st)
		} else {
			node = documentNext[node]
		}
	}

	st.finish()

	r.logger.InfoContext(
		ctx, "document workflow finished",
		"workflow_id", st.WorkflowID,
		"status", st.Status,
		"document_type", st.DocumentType,
		"errors", st.ErrorCount(),
	)

	return st, nil
}

// skipNode implements flag suppression: a disabled stage is treated as not
// run, leaving its field absent and adding no error entry.
func skipNode(node nodeID, runFraud, runCompliance bool) bool {
	switch node {
	case nodeDetectFraud:
		return !runFraud
	case nodeValidateCompliance:
		return !runCompliance
	}
	return false
}
