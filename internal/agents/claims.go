package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/finsightai/finsight/internal/completion"
)

// ClaimAnalysis is the claims analyst's output schema.
type ClaimAnalysis struct {
	ClaimNumber           string   `json:"claim_number"`
	PolicyNumber          string   `json:"policy_number"`
	ClaimantName          string   `json:"claimant_name"`
	DateOfService         string   `json:"date_of_service"`
	ProviderName          string   `json:"provider_name"`
	DiagnosisCodes        []string `json:"diagnosis_codes"`
	ProcedureCodes        []string `json:"procedure_codes"`
	TotalCharged          float64  `json:"total_charged"`
	InsurancePaid         float64  `json:"insurance_paid"`
	PatientResponsibility float64  `json:"patient_responsibility"`
	DeductibleApplied     float64  `json:"deductible_applied"`
	ClaimStatus           string   `json:"claim_status"`
	DenialReason          string   `json:"denial_reason"`
	CoverageAnalysis      string   `json:"coverage_analysis"`
	BenefitCalculation    string   `json:"benefit_calculation"`
	Recommendations       []string `json:"recommendations"`
}

// ClaimsAnalyst extracts and analyzes claim forms and EOB documents.
type ClaimsAnalyst struct {
	svc    completion.Service
	logger *slog.Logger
}

func NewClaimsAnalyst(svc completion.Service, logger *slog.Logger) *ClaimsAnalyst {
	return &ClaimsAnalyst{
		svc:    svc,
		logger: logger.With("agent", "analyze_claim"),
	}
}

func (a *ClaimsAnalyst) Name() string { return "analyze_claim" }

func (a *ClaimsAnalyst) Run(ctx context.Context, in Input) Result {
	if strings.TrimSpace(in.Text) == "" {
		return failure(fmt.Errorf("%w: no text provided for claim analysis", ErrMissingInput))
	}

	out, err := complete[ClaimAnalysis](ctx, a.svc, fmt.Sprintf(claimPrompt, in.Text), nil)
	if err != nil {
		return failure(err)
	}

	a.logger.InfoContext(
		ctx, "claim analyzed",
		"claim_number", out.ClaimNumber,
		"claim_status", out.ClaimStatus,
	)

	return Result{Output: &Extraction{Kind: ExtractionClaim, Claim: out}}
}

const claimPrompt = `You are an expert at analyzing medical and insurance claims.

Extract and analyze all relevant information from this claim or EOB document:

%s

Instructions:
1. Extract claim identification (claim number, policy number, claimant, provider)
2. Extract medical codes (ICD-10 diagnosis codes, CPT/HCPCS procedure codes)
3. Extract the financial breakdown (charged, insurance paid, patient responsibility, deductible)
4. Determine claim status and any denial reason
5. Analyze coverage applicability and explain the benefit calculation
6. Provide recommendations for the claimant
7. Use empty strings for missing text fields and 0 for missing amounts

Respond with a JSON object:
{"claim_number": string, "policy_number": string, "claimant_name": string,
 "date_of_service": string, "provider_name": string,
 "diagnosis_codes": [string], "procedure_codes": [string],
 "total_charged": number, "insurance_paid": number, "patient_responsibility": number,
 "deductible_applied": number, "claim_status": string, "denial_reason": string,
 "coverage_analysis": string, "benefit_calculation": string, "recommendations": [string]}`
