// Package runs persists completed workflow run states so that callers can
// audit past processing and eligibility decisions. The full final state is
// stored as JSONB alongside queryable summary columns.
package runs

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Workflow kinds.
const (
	WorkflowDocumentProcessing = "document_processing"
	WorkflowEligibilityCheck   = "eligibility_check"
)

// Run is one recorded workflow execution. ID is the run's workflow_id.
type Run struct {
	ID         uuid.UUID       `json:"id"`
	Workflow   string          `json:"workflow"`
	DocumentID *uuid.UUID      `json:"document_id,omitempty"`
	CheckID    *uuid.UUID      `json:"check_id,omitempty"`
	Status     string          `json:"status"`
	State      json.RawMessage `json:"state"`
	ErrorCount int             `json:"error_count"`
	CreatedAt  time.Time       `json:"created_at"`
}

// RecordCommand carries one finished run for persistence.
type RecordCommand struct {
	ID         uuid.UUID
	Workflow   string
	DocumentID *uuid.UUID
	CheckID    *uuid.UUID
	Status     string
	State      json.RawMessage
	ErrorCount int
}
