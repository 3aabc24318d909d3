package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/finsightai/finsight/internal/completion"
)

// Coverage is one covered service entry in a policy.
type Coverage struct {
	Service            string  `json:"service"`
	CoveragePercentage float64 `json:"coverage_percentage"`
	Copay              float64 `json:"copay"`
	Notes              string  `json:"notes"`
}

// PolicyData is the policy parser's output schema.
type PolicyData struct {
	PolicyNumber     string     `json:"policy_number"`
	PolicyHolder     string     `json:"policy_holder"`
	InsuranceCompany string     `json:"insurance_company"`
	PolicyType       string     `json:"policy_type"`
	EffectiveDate    string     `json:"effective_date"`
	ExpirationDate   string     `json:"expiration_date"`
	PremiumAmount    float64    `json:"premium_amount"`
	Deductible       float64    `json:"deductible"`
	OutOfPocketMax   float64    `json:"out_of_pocket_max"`
	Coinsurance      float64    `json:"coinsurance"`
	Coverages        []Coverage `json:"coverages"`
	Exclusions       []string   `json:"exclusions"`
	NetworkType      string     `json:"network_type"`
	MemberID         string     `json:"member_id"`
	GroupNumber      string     `json:"group_number"`
}

// PolicyParser extracts coverage terms from insurance policy documents.
type PolicyParser struct {
	svc    completion.Service
	logger *slog.Logger
}

func NewPolicyParser(svc completion.Service, logger *slog.Logger) *PolicyParser {
	return &PolicyParser{
		svc:    svc,
		logger: logger.With("agent", "parse_policy"),
	}
}

func (a *PolicyParser) Name() string { return "parse_policy" }

func (a *PolicyParser) Run(ctx context.Context, in Input) Result {
	if strings.TrimSpace(in.Text) == "" {
		return failure(fmt.Errorf("%w: no text provided for policy parsing", ErrMissingInput))
	}

	out, err := complete[PolicyData](ctx, a.svc, fmt.Sprintf(policyPrompt, in.Text), nil)
	if err != nil {
		return failure(err)
	}

	a.logger.InfoContext(
		ctx, "policy parsed",
		"policy_number", out.PolicyNumber,
		"coverages", len(out.Coverages),
	)

	return Result{Output: &Extraction{Kind: ExtractionPolicy, Policy: out}}
}

const policyPrompt = `You are an expert at analyzing insurance policy documents.

Extract all relevant information from this insurance policy:

%s

Instructions:
1. Extract policy identification (number, holder, company, type)
2. Extract dates (effective date, expiration date)
3. Extract financial terms (premium, deductible, out-of-pocket max, coinsurance)
4. List all covered services with their coverage details (percentage, copays)
5. List exclusions
6. Extract network type, member ID, and group number where present
7. Use empty strings for missing text fields and 0 for missing amounts

Respond with a JSON object:
{"policy_number": string, "policy_holder": string, "insurance_company": string,
 "policy_type": string, "effective_date": string, "expiration_date": string,
 "premium_amount": number, "deductible": number, "out_of_pocket_max": number, "coinsurance": number,
 "coverages": [{"service": string, "coverage_percentage": number, "copay": number, "notes": string}],
 "exclusions": [string], "network_type": string, "member_id": string, "group_number": string}`
