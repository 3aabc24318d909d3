package workflow

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// EligibilitySeed is the caller-supplied input for an eligibility-check run.
// The info maps are rendered into a deterministic text block for the
// reasoning agent.
type EligibilitySeed struct {
	CheckID            *uuid.UUID
	PolicyInfo         map[string]any
	ServiceInfo        map[string]any
	PatientInfo        map[string]any
	RunFraudDetection  bool
	RunComplianceCheck bool
}

// eligibilityNext is the full eligibility graph: a linear chain with no
// branch point.
var eligibilityNext = map[nodeID]nodeID{
	nodeCheckEligibility:   nodeDetectFraud,
	nodeDetectFraud:        nodeValidateCompliance,
	nodeValidateCompliance: nodeEnd,
}

// CheckEligibility runs the eligibility graph to completion. Stage order is
// fixed; the only skips are the explicit seed flags. Failure accumulation
// and cancellation behave exactly as in ProcessDocument.
func (r *Runner) CheckEligibility(ctx context.Context, seed EligibilitySeed) (*State, error) {
	if len(seed.PolicyInfo) == 0 {
		return nil, fmt.Errorf("%w: policy_info is required", ErrInvalidSeed)
	}
	if len(seed.ServiceInfo) == 0 {
		return nil, fmt.Errorf("%w: service_info is required", ErrInvalidSeed)
	}

	st := newState()
	st.CheckID = seed.CheckID
	st.RawText = renderEligibilityRequest(seed)
	st.advance(StatusRunning)

	r.logger.InfoContext(
		ctx, "eligibility workflow started",
		"workflow_id", st.WorkflowID,
		"fraud_detection", seed.RunFraudDetection,
		"compliance_check", seed.RunComplianceCheck,
	)

	for node := nodeCheckEligibility; node != nodeEnd; {
		if ctx.Err() != nil {
			st.cancel()
			r.logger.WarnContext(
				ctx, "eligibility workflow cancelled",
				"workflow_id", st.WorkflowID,
				"stage", stageNames[node],
			)
			return st, nil
		}

		if skipNode(node, seed.RunFraudDetection, seed.RunComplianceCheck) {
			node = eligibilityNext[node]
			continue
		}

		if err := st.merge(stageNames[node], r.agent(node).Run(ctx, st.input())); err != nil {
			return nil, err
		}

		node = eligibilityNext[node]
	}

	st.finish()

	r.logger.InfoContext(
		ctx, "eligibility workflow finished",
		"workflow_id", st.WorkflowID,
		"status", st.Status,
		"errors", st.ErrorCount(),
	)

	return st, nil
}

// renderEligibilityRequest serializes the seed maps as labeled sections with
// sorted keys so that identical seeds always produce identical prompts.
func renderEligibilityRequest(seed EligibilitySeed) string {
	var sb strings.Builder

	renderSection(&sb, "Policy Information", seed.PolicyInfo)
	renderSection(&sb, "Requested Service", seed.ServiceInfo)
	renderSection(&sb, "Patient Information", seed.PatientInfo)

	return strings.TrimRight(sb.String(), "\n")
}

func renderSection(sb *strings.Builder, label string, info map[string]any) {
	if len(info) == 0 {
		return
	}

	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sb.WriteString(label)
	sb.WriteString(":\n")
	for _, k := range keys {
		fmt.Fprintf(sb, "  %s: %v\n", k, info[k])
	}
	sb.WriteString("\n")
}
