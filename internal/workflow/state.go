// Package workflow implements the multi-stage orchestration state machines
// that sequence agents over a shared run state. Topology is a compile-time
// constant: enumerated nodes, a fixed transition table, and one routing
// function at the single conditional branch.
package workflow

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/finsightai/finsight/internal/agents"
)

// Status is the lifecycle state of a workflow run. Transitions are
// monotonic: a run only moves forward through pending → running → one of
// the three terminal states.
type Status string

const (
	StatusPending             Status = "pending"
	StatusRunning             Status = "running"
	StatusCompleted           Status = "completed"
	StatusCompletedWithErrors Status = "completed_with_errors"
	StatusFailed              Status = "failed"
)

var statusRank = map[Status]int{
	StatusPending:             0,
	StatusRunning:             1,
	StatusCompleted:           2,
	StatusCompletedWithErrors: 2,
	StatusFailed:              2,
}

// StageError records one stage failure. Entries are append-only and never
// cleared mid-run.
type StageError struct {
	Stage     string    `json:"stage"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// State is the mutable record threaded through one workflow run. Each
// payload field is owned by exactly one stage; merge rejects a second write
// to an owned field. A nil payload field means its stage has not run or
// failed, which is distinct from a present-but-empty value.
type State struct {
	WorkflowID uuid.UUID  `json:"workflow_id"`
	DocumentID *uuid.UUID `json:"document_id,omitempty"`
	CheckID    *uuid.UUID `json:"check_id,omitempty"`

	RawText      string       `json:"raw_text,omitempty"`
	DocumentType DocumentType `json:"document_type,omitempty"`

	Classification *agents.Classification       `json:"classification,omitempty"`
	Extraction     *agents.Extraction           `json:"extraction,omitempty"`
	Eligibility    *agents.EligibilityDecision  `json:"eligibility_result,omitempty"`
	Fraud          *agents.FraudAnalysis        `json:"fraud_analysis,omitempty"`
	Compliance     *agents.ComplianceValidation `json:"compliance_result,omitempty"`

	Confidence map[string]float64 `json:"confidence"`
	Errors     []StageError       `json:"errors"`
	Status     Status             `json:"status"`

	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func newState() *State {
	return &State{
		WorkflowID: uuid.New(),
		Confidence: make(map[string]float64),
		Errors:     make([]StageError, 0),
		Status:     StatusPending,
		StartedAt:  time.Now().UTC(),
	}
}

// advance moves Status forward. Backward transitions are ignored, which
// keeps terminal states sticky.
func (s *State) advance(next Status) {
	if statusRank[next] > statusRank[s.Status] {
		s.Status = next
	}
}

// ErrorCount returns the number of accumulated stage errors.
func (s *State) ErrorCount() int {
	return len(s.Errors)
}

func (s *State) appendError(stage string, err error) {
	s.Errors = append(s.Errors, StageError{
		Stage:     stage,
		Message:   err.Error(),
		Timestamp: time.Now().UTC(),
	})
}

// input snapshots the fields agents are allowed to read.
func (s *State) input() agents.Input {
	return agents.Input{
		Text:           s.RawText,
		Classification: s.Classification,
		Extraction:     s.Extraction,
		Eligibility:    s.Eligibility,
		Fraud:          s.Fraud,
	}
}

// decisionStages lists the stages whose confidence is folded into the
// per-stage confidence map. Pure-extraction stages do not score.
var decisionStages = map[string]bool{
	stageClassify:           true,
	stageCheckEligibility:   true,
	stageDetectFraud:        true,
	stageValidateCompliance: true,
}

// merge applies one agent result to the state. A result error becomes an
// appended stage error and leaves the owned field absent. A successful
// result writes exactly the field the stage owns; writing an already-set
// field or a payload of the wrong type is a contract violation surfaced to
// the caller, never recorded as a stage error.
func (s *State) merge(stage string, res agents.Result) error {
	if res.Err != nil {
		s.appendError(stage, res.Err)
		return nil
	}

	switch stage {
	case stageClassify:
		out, ok := res.Output.(*agents.Classification)
		if !ok {
			return fmt.Errorf("%w: %s returned %T", ErrPayloadType, stage, res.Output)
		}
		if s.Classification != nil {
			return fmt.Errorf("%w: classification", ErrFieldOwned)
		}
		s.Classification = out
	case stageExtractInvoice, stageParsePolicy, stageAnalyzeClaim:
		out, ok := res.Output.(*agents.Extraction)
		if !ok {
			return fmt.Errorf("%w: %s returned %T", ErrPayloadType, stage, res.Output)
		}
		if s.Extraction != nil {
			return fmt.Errorf("%w: extraction", ErrFieldOwned)
		}
		s.Extraction = out
	case stageCheckEligibility:
		out, ok := res.Output.(*agents.EligibilityDecision)
		if !ok {
			return fmt.Errorf("%w: %s returned %T", ErrPayloadType, stage, res.Output)
		}
		if s.Eligibility != nil {
			return fmt.Errorf("%w: eligibility_result", ErrFieldOwned)
		}
		s.Eligibility = out
	case stageDetectFraud:
		out, ok := res.Output.(*agents.FraudAnalysis)
		if !ok {
			return fmt.Errorf("%w: %s returned %T", ErrPayloadType, stage, res.Output)
		}
		if s.Fraud != nil {
			return fmt.Errorf("%w: fraud_analysis", ErrFieldOwned)
		}
		s.Fraud = out
	case stageValidateCompliance:
		out, ok := res.Output.(*agents.ComplianceValidation)
		if !ok {
			return fmt.Errorf("%w: %s returned %T", ErrPayloadType, stage, res.Output)
		}
		if s.Compliance != nil {
			return fmt.Errorf("%w: compliance_result", ErrFieldOwned)
		}
		s.Compliance = out
	default:
		return fmt.Errorf("%w: unknown stage %s", ErrPayloadType, stage)
	}

	if decisionStages[stage] {
		s.Confidence[stage] = res.Confidence
	}

	return nil
}

// finish freezes the state at run end. Errors accumulated across stages
// downgrade the terminal status but never fail the run.
func (s *State) finish() {
	now := time.Now().UTC()
	s.CompletedAt = &now

	if len(s.Errors) == 0 {
		s.advance(StatusCompleted)
	} else {
		s.advance(StatusCompletedWithErrors)
	}
}

// cancel freezes the state after cooperative cancellation, preserving every
// field written so far.
func (s *State) cancel() {
	now := time.Now().UTC()
	s.CompletedAt = &now
	s.advance(StatusFailed)
}
