package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/finsightai/finsight/internal/completion"
)

// classifierTextLimit caps how much document text is embedded in the
// classification prompt. Type signals live in headers and first pages.
const classifierTextLimit = 5000

// Classification is the classifier's output schema.
type Classification struct {
	DocumentType  string   `json:"document_type"`
	Confidence    float64  `json:"confidence"`
	Reasoning     string   `json:"reasoning"`
	KeyIndicators []string `json:"key_indicators"`
}

// Classifier determines the type of a financial or insurance document.
type Classifier struct {
	svc    completion.Service
	logger *slog.Logger
}

// NewClassifier creates a Classifier backed by the given completion service.
func NewClassifier(svc completion.Service, logger *slog.Logger) *Classifier {
	return &Classifier{
		svc:    svc,
		logger: logger.With("agent", "classify"),
	}
}

// Name returns the workflow stage name.
func (a *Classifier) Name() string { return "classify" }

// Run classifies the document text in the input.
func (a *Classifier) Run(ctx context.Context, in Input) Result {
	if strings.TrimSpace(in.Text) == "" {
		return failure(fmt.Errorf("%w: no text provided for classification", ErrMissingInput))
	}

	prompt := fmt.Sprintf(
		classifierPrompt,
		truncate(in.Text, classifierTextLimit),
	)

	out, err := complete(ctx, a.svc, prompt, validateClassification)
	if err != nil {
		return failure(err)
	}

	a.logger.InfoContext(
		ctx, "document classified",
		"document_type", out.DocumentType,
		"confidence", out.Confidence,
	)

	return Result{Output: out, Confidence: out.Confidence}
}

func validateClassification(c *Classification) error {
	if c.DocumentType == "" {
		return fmt.Errorf("document_type is empty")
	}
	if !validConfidence(c.Confidence) {
		return fmt.Errorf("confidence %f outside [0,1]", c.Confidence)
	}
	return nil
}

const classifierPrompt = `You are an expert at classifying financial and insurance documents.

Analyze the following document and classify it into one of these types:
- policy: Insurance policy documents
- claim_form: Medical/insurance claim forms
- invoice: Medical or service invoices/bills
- eob: Explanation of Benefits (EOB) documents
- receipt: Payment receipts

Document Text:
%s

Instructions:
1. Identify the document type based on content, structure, and terminology
2. Look for key indicators like policy numbers, claim numbers, invoice amounts, EOB language
3. Provide a confidence score (0-1) for your classification
4. Explain your reasoning
5. List the key phrases that led to your conclusion

Respond with a JSON object:
{"document_type": string, "confidence": number, "reasoning": string, "key_indicators": [string]}`
