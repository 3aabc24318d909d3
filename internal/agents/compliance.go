package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/finsightai/finsight/internal/completion"
)

// ComplianceIssue is one regulatory finding.
type ComplianceIssue struct {
	Regulation  string `json:"regulation"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Remediation string `json:"remediation"`
}

// ComplianceValidation is the compliance validator's output schema.
type ComplianceValidation struct {
	IsCompliant             bool              `json:"is_compliant"`
	ComplianceScore         float64           `json:"compliance_score"`
	HIPAACompliant          bool              `json:"hipaa_compliant"`
	Issues                  []ComplianceIssue `json:"issues"`
	CriticalActions         []string          `json:"critical_actions"`
	RecommendedImprovements []string          `json:"recommended_improvements"`
	Summary                 string            `json:"summary"`
	Confidence              float64           `json:"confidence"`
}

// ComplianceValidator checks accumulated workflow output against healthcare
// and insurance regulations. It validates whatever upstream stages produced,
// so a failed extraction does not block it.
type ComplianceValidator struct {
	svc    completion.Service
	logger *slog.Logger
}

func NewComplianceValidator(svc completion.Service, logger *slog.Logger) *ComplianceValidator {
	return &ComplianceValidator{
		svc:    svc,
		logger: logger.With("agent", "validate_compliance"),
	}
}

func (a *ComplianceValidator) Name() string { return "validate_compliance" }

func (a *ComplianceValidator) Run(ctx context.Context, in Input) Result {
	subject := complianceSubject(in)
	if subject == "" {
		return failure(fmt.Errorf("%w: no data available for compliance validation", ErrMissingInput))
	}

	out, err := complete(ctx, a.svc, fmt.Sprintf(compliancePrompt, subject), validateCompliance)
	if err != nil {
		return failure(err)
	}

	a.logger.InfoContext(
		ctx, "compliance validated",
		"is_compliant", out.IsCompliant,
		"compliance_score", out.ComplianceScore,
		"issues", len(out.Issues),
	)

	return Result{Output: out, Confidence: out.Confidence}
}

func complianceSubject(in Input) string {
	var sections []string
	if in.Classification != nil {
		sections = append(sections, "Classification:\n"+compactJSON(in.Classification))
	}
	if in.Extraction != nil {
		sections = append(sections, "Extracted Data:\n"+compactJSON(in.Extraction))
	}
	if in.Eligibility != nil {
		sections = append(sections, "Eligibility Decision:\n"+compactJSON(in.Eligibility))
	}
	if in.Fraud != nil {
		sections = append(sections, "Fraud Analysis:\n"+compactJSON(in.Fraud))
	}
	if len(sections) == 0 && strings.TrimSpace(in.Text) != "" {
		sections = append(sections, "Document Text:\n"+in.Text)
	}
	return strings.Join(sections, "\n\n")
}

func validateCompliance(v *ComplianceValidation) error {
	if v.ComplianceScore < 0 || v.ComplianceScore > 100 {
		return fmt.Errorf("compliance_score %f outside [0,100]", v.ComplianceScore)
	}
	if !validConfidence(v.Confidence) {
		return fmt.Errorf("confidence %f outside [0,1]", v.Confidence)
	}
	for _, issue := range v.Issues {
		if !validSeverity(issue.Severity) {
			return fmt.Errorf("invalid issue severity: %s", issue.Severity)
		}
	}
	return nil
}

const compliancePrompt = `You are an expert at validating healthcare and insurance regulatory compliance.

Validate the following processing output for compliance:

%s

Instructions:
1. Check HIPAA privacy and PHI handling requirements
2. Check coding standards (ICD-10, CPT/HCPCS) and billing practices
3. Check documentation and authorization requirements
4. Score overall compliance from 0 (non-compliant) to 100 (fully compliant)
5. Describe each issue with the regulation, severity (low/medium/high/critical), and remediation
6. List critical actions required and recommended improvements
7. Provide a confidence score (0-1) and a summary

Respond with a JSON object:
{"is_compliant": boolean, "compliance_score": number, "hipaa_compliant": boolean,
 "issues": [{"regulation": string, "severity": string, "description": string, "remediation": string}],
 "critical_actions": [string], "recommended_improvements": [string],
 "summary": string, "confidence": number}`
