package workflow

import (
	"log/slog"

	"github.com/finsightai/finsight/internal/agents"
	"github.com/finsightai/finsight/internal/completion"
)

// Stage names, shared by transition tables, merge ownership, and error
// attribution.
const (
	stageClassify           = "classify"
	stageExtractInvoice     = "extract_invoice"
	stageParsePolicy        = "parse_policy"
	stageAnalyzeClaim       = "analyze_claim"
	stageCheckEligibility   = "check_eligibility"
	stageDetectFraud        = "detect_fraud"
	stageValidateCompliance = "validate_compliance"
)

// nodeID enumerates every node across both workflow graphs.
type nodeID int

const (
	nodeClassify nodeID = iota
	nodeExtractInvoice
	nodeParsePolicy
	nodeAnalyzeClaim
	nodeCheckEligibility
	nodeDetectFraud
	nodeValidateCompliance
	nodeEnd
)

var stageNames = map[nodeID]string{
	nodeClassify:           stageClassify,
	nodeExtractInvoice:     stageExtractInvoice,
	nodeParsePolicy:        stageParsePolicy,
	nodeAnalyzeClaim:       stageAnalyzeClaim,
	nodeCheckEligibility:   stageCheckEligibility,
	nodeDetectFraud:        stageDetectFraud,
	nodeValidateCompliance: stageValidateCompliance,
}

// Runner owns one stateless agent per stage and executes both workflow
// graphs over them. A single Runner serves any number of concurrent runs.
type Runner struct {
	classifier  agents.Agent
	invoice     agents.Agent
	policy      agents.Agent
	claims      agents.Agent
	eligibility agents.Agent
	fraud       agents.Agent
	compliance  agents.Agent
	logger      *slog.Logger
}

// NewRunner builds a Runner whose agents share the given completion service.
func NewRunner(svc completion.Service, logger *slog.Logger) *Runner {
	log := logger.With("system", "workflow")

	return &Runner{
		classifier:  agents.NewClassifier(svc, log),
		invoice:     agents.NewInvoiceExtractor(svc, log),
		policy:      agents.NewPolicyParser(svc, log),
		claims:      agents.NewClaimsAnalyst(svc, log),
		eligibility: agents.NewEligibilityReasoner(svc, log),
		fraud:       agents.NewFraudDetector(svc, log),
		compliance:  agents.NewComplianceValidator(svc, log),
		logger:      log,
	}
}

func (r *Runner) agent(node nodeID) agents.Agent {
	switch node {
	case nodeClassify:
		return r.classifier
	case nodeExtractInvoice:
		return r.invoice
	case nodeParsePolicy:
		return r.policy
	case nodeAnalyzeClaim:
		return r.claims
	case nodeCheckEligibility:
		return r.eligibility
	case nodeDetectFraud:
		return r.fraud
	default:
		return r.compliance
	}
}
