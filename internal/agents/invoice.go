package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/finsightai/finsight/internal/completion"
)

// LineItem is one billed entry on an invoice.
type LineItem struct {
	Description string  `json:"description"`
	Code        string  `json:"code"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Total       float64 `json:"total"`
}

// InvoiceData is the invoice extractor's output schema.
type InvoiceData struct {
	InvoiceNumber  string     `json:"invoice_number"`
	InvoiceDate    string     `json:"invoice_date"`
	DueDate        string     `json:"due_date"`
	ProviderName   string     `json:"provider_name"`
	ProviderTaxID  string     `json:"provider_tax_id"`
	PatientName    string     `json:"patient_name"`
	PatientAccount string     `json:"patient_account"`
	LineItems      []LineItem `json:"line_items"`
	Subtotal       float64    `json:"subtotal"`
	Tax            float64    `json:"tax"`
	Total          float64    `json:"total"`
	BalanceDue     float64    `json:"balance_due"`
	PaymentTerms   string     `json:"payment_terms"`
	Notes          string     `json:"notes"`
}

// InvoiceExtractor pulls structured billing data from invoice documents.
type InvoiceExtractor struct {
	svc    completion.Service
	logger *slog.Logger
}

func NewInvoiceExtractor(svc completion.Service, logger *slog.Logger) *InvoiceExtractor {
	return &InvoiceExtractor{
		svc:    svc,
		logger: logger.With("agent", "extract_invoice"),
	}
}

func (a *InvoiceExtractor) Name() string { return "extract_invoice" }

func (a *InvoiceExtractor) Run(ctx context.Context, in Input) Result {
	if strings.TrimSpace(in.Text) == "" {
		return failure(fmt.Errorf("%w: no text provided for invoice extraction", ErrMissingInput))
	}

	out, err := complete[InvoiceData](ctx, a.svc, fmt.Sprintf(invoicePrompt, in.Text), nil)
	if err != nil {
		return failure(err)
	}

	a.logger.InfoContext(
		ctx, "invoice extracted",
		"invoice_number", out.InvoiceNumber,
		"line_items", len(out.LineItems),
		"total", out.Total,
	)

	return Result{Output: &Extraction{Kind: ExtractionInvoice, Invoice: out}}
}

const invoicePrompt = `You are an expert at extracting structured information from invoices and bills.

Extract all relevant information from this invoice/bill:

%s

Instructions:
1. Extract invoice identification (number, dates)
2. Extract provider/vendor information
3. Extract patient/customer information
4. Extract all line items with codes, quantities, and amounts
5. Extract totals (subtotal, tax, total, balance due)
6. Use empty strings for missing text fields and 0 for missing amounts

Respond with a JSON object:
{"invoice_number": string, "invoice_date": string, "due_date": string,
 "provider_name": string, "provider_tax_id": string,
 "patient_name": string, "patient_account": string,
 "line_items": [{"description": string, "code": string, "quantity": number, "unit_price": number, "total": number}],
 "subtotal": number, "tax": number, "total": number, "balance_due": number,
 "payment_terms": string, "notes": string}`
