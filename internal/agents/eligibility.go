package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/finsightai/finsight/internal/completion"
)

// EligibilityDecision is the eligibility reasoner's output schema.
type EligibilityDecision struct {
	IsEligible          bool     `json:"is_eligible"`
	Confidence          float64  `json:"confidence"`
	CoveragePercentage  float64  `json:"coverage_percentage"`
	PolicyCoverage      string   `json:"policy_coverage"`
	MedicalNecessity    string   `json:"medical_necessity"`
	NetworkStatus       string   `json:"network_status"`
	EstimatedCost       float64  `json:"estimated_cost"`
	InsurancePayment    float64  `json:"insurance_payment"`
	PatientPayment      float64  `json:"patient_payment"`
	PriorAuthRequired   bool     `json:"prior_auth_required"`
	DocumentationNeeded []string `json:"documentation_needed"`
	Reasoning           string   `json:"reasoning"`
	Limitations         []string `json:"limitations"`
	Alternatives        []string `json:"alternatives"`
	NextSteps           []string `json:"next_steps"`
}

// EligibilityReasoner decides whether a requested service is covered under a
// policy and estimates the cost split.
type EligibilityReasoner struct {
	svc    completion.Service
	logger *slog.Logger
}

func NewEligibilityReasoner(svc completion.Service, logger *slog.Logger) *EligibilityReasoner {
	return &EligibilityReasoner{
		svc:    svc,
		logger: logger.With("agent", "check_eligibility"),
	}
}

func (a *EligibilityReasoner) Name() string { return "check_eligibility" }

func (a *EligibilityReasoner) Run(ctx context.Context, in Input) Result {
	if strings.TrimSpace(in.Text) == "" {
		return failure(fmt.Errorf("%w: no eligibility request details provided", ErrMissingInput))
	}

	out, err := complete(ctx, a.svc, fmt.Sprintf(eligibilityPrompt, in.Text), validateEligibility)
	if err != nil {
		return failure(err)
	}

	a.logger.InfoContext(
		ctx, "eligibility determined",
		"is_eligible", out.IsEligible,
		"confidence", out.Confidence,
		"coverage_percentage", out.CoveragePercentage,
	)

	return Result{Output: out, Confidence: out.Confidence}
}

func validateEligibility(d *EligibilityDecision) error {
	if !validConfidence(d.Confidence) {
		return fmt.Errorf("confidence %f outside [0,1]", d.Confidence)
	}
	if d.CoveragePercentage < 0 || d.CoveragePercentage > 100 {
		return fmt.Errorf("coverage_percentage %f outside [0,100]", d.CoveragePercentage)
	}
	return nil
}

const eligibilityPrompt = `You are an expert at determining insurance coverage eligibility.

Determine eligibility for the following coverage request:

%s

Instructions:
1. Assess whether the requested service is covered under the policy terms
2. Evaluate medical necessity and network status
3. Estimate the total cost, insurance payment, and patient payment
4. Determine whether prior authorization is required
5. List any documentation needed and coverage limitations
6. If not eligible, suggest alternative covered services and next steps
7. Provide a confidence score (0-1) and detailed reasoning

Respond with a JSON object:
{"is_eligible": boolean, "confidence": number, "coverage_percentage": number,
 "policy_coverage": string, "medical_necessity": string, "network_status": string,
 "estimated_cost": number, "insurance_payment": number, "patient_payment": number,
 "prior_auth_required": boolean, "documentation_needed": [string],
 "reasoning": string, "limitations": [string], "alternatives": [string], "next_steps": [string]}`
