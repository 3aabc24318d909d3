package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/finsightai/finsight/internal/completion"
)

// FraudIndicator is one detected fraud signal.
type FraudIndicator struct {
	IndicatorType string `json:"indicator_type"`
	Severity      string `json:"severity"`
	Description   string `json:"description"`
	Evidence      string `json:"evidence"`
}

// FraudAnalysis is the fraud detector's output schema.
type FraudAnalysis struct {
	FraudRiskScore           float64          `json:"fraud_risk_score"`
	RiskLevel                string           `json:"risk_level"`
	Indicators               []FraudIndicator `json:"indicators"`
	BillingPatterns          string           `json:"billing_patterns"`
	CodingPatterns           string           `json:"coding_patterns"`
	DuplicateClaims          []string         `json:"duplicate_claims"`
	UpcodingRisks            []string         `json:"upcoding_risks"`
	InvestigationRecommended bool             `json:"investigation_recommended"`
	RecommendedActions       []string         `json:"recommended_actions"`
	Summary                  string           `json:"summary"`
	Confidence               float64          `json:"confidence"`
}

// FraudDetector scores documents and eligibility decisions for fraud risk.
// It analyzes whatever upstream data is present, so it runs even when the
// extraction stage failed.
type FraudDetector struct {
	svc    completion.Service
	logger *slog.Logger
}

func NewFraudDetector(svc completion.Service, logger *slog.Logger) *FraudDetector {
	return &FraudDetector{
		svc:    svc,
		logger: logger.With("agent", "detect_fraud"),
	}
}

func (a *FraudDetector) Name() string { return "detect_fraud" }

func (a *FraudDetector) Run(ctx context.Context, in Input) Result {
	subject := fraudSubject(in)
	if subject == "" {
		return failure(fmt.Errorf("%w: no data available for fraud analysis", ErrMissingInput))
	}

	out, err := complete(ctx, a.svc, fmt.Sprintf(fraudPrompt, subject), validateFraud)
	if err != nil {
		return failure(err)
	}

	a.logger.InfoContext(
		ctx, "fraud analysis complete",
		"risk_score", out.FraudRiskScore,
		"risk_level", out.RiskLevel,
		"indicators", len(out.Indicators),
	)

	return Result{Output: out, Confidence: out.Confidence}
}

// fraudSubject renders the richest available upstream data. Structured
// extraction or eligibility output is preferred over raw text.
func fraudSubject(in Input) string {
	var sections []string
	if in.Extraction != nil {
		sections = append(sections, "Extracted Data:\n"+compactJSON(in.Extraction))
	}
	if in.Eligibility != nil {
		sections = append(sections, "Eligibility Decision:\n"+compactJSON(in.Eligibility))
	}
	if len(sections) == 0 && strings.TrimSpace(in.Text) != "" {
		sections = append(sections, "Document Text:\n"+in.Text)
	}
	return strings.Join(sections, "\n\n")
}

func validateFraud(f *FraudAnalysis) error {
	if f.FraudRiskScore < 0 || f.FraudRiskScore > 100 {
		return fmt.Errorf("fraud_risk_score %f outside [0,100]", f.FraudRiskScore)
	}
	if f.RiskLevel != "none" && !validSeverity(f.RiskLevel) {
		return fmt.Errorf("invalid risk_level: %s", f.RiskLevel)
	}
	if !validConfidence(f.Confidence) {
		return fmt.Errorf("confidence %f outside [0,1]", f.Confidence)
	}
	for _, ind := range f.Indicators {
		if !validSeverity(ind.Severity) {
			return fmt.Errorf("invalid indicator severity: %s", ind.Severity)
		}
	}
	return nil
}

const fraudPrompt = `You are an expert at detecting fraud in insurance and medical billing.

Analyze the following for fraud indicators:

%s

Instructions:
1. Look for billing anomalies (inflated charges, duplicate billing, phantom services)
2. Look for coding issues (upcoding, unbundling, mismatched diagnosis/procedure codes)
3. Score the overall fraud risk from 0 (no risk) to 100 (certain fraud)
4. Assign a risk level: none, low, medium, high, or critical
5. Describe each indicator with its type, severity (low/medium/high/critical), and evidence
6. State whether further investigation is recommended and what actions to take
7. Provide a confidence score (0-1) and a summary

Respond with a JSON object:
{"fraud_risk_score": number, "risk_level": string,
 "indicators": [{"indicator_type": string, "severity": string, "description": string, "evidence": string}],
 "billing_patterns": string, "coding_patterns": string,
 "duplicate_claims": [string], "upcoding_risks": [string],
 "investigation_recommended": boolean, "recommended_actions": [string],
 "summary": string, "confidence": number}`
