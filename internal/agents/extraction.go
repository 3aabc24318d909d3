package agents

// Extraction kinds. Exactly one payload field is non-nil per kind.
const (
	ExtractionInvoice = "invoice"
	ExtractionPolicy  = "policy"
	ExtractionClaim   = "claim"
)

// Extraction is the union of the type-specific extraction payloads. The
// routing stage decides which extractor runs, so a workflow run produces at
// most one extraction.
type Extraction struct {
	Kind    string         `json:"kind"`
	Invoice *InvoiceData   `json:"invoice,omitempty"`
	Policy  *PolicyData    `json:"policy,omitempty"`
	Claim   *ClaimAnalysis `json:"claim,omitempty"`
}
