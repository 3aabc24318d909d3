// Package documents implements the document domain for FinSight.
// It provides types, data access, and business logic for document
// upload, registration, metadata management, and blob storage integration.
package documents

import (
	"time"

	"github.com/google/uuid"
)

// Document statuses. A document starts as uploaded and moves to processed
// or failed when a processing run records its outcome.
const (
	StatusUploaded  = "uploaded"
	StatusProcessed = "processed"
	StatusFailed    = "failed"
)

// Document represents a registered document with its metadata and blob
// storage reference. DocumentType is nil until a processing run classifies
// the document. RawText holds caller-supplied extracted text; OCR happens
// upstream of this service.
type Document struct {
	ID           uuid.UUID `json:"id"`
	Filename     string    `json:"filename"`
	ContentType  string    `json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	PageCount    *int      `json:"page_count"`
	StorageKey   string    `json:"storage_key"`
	RawText      *string   `json:"raw_text,omitempty"`
	DocumentType *string   `json:"document_type,omitempty"`
	Status       string    `json:"status"`
	UploadedAt   time.Time `json:"uploaded_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateCommand carries the data needed to upload and register a new document.
// Data holds the raw file bytes. RawText is the pre-extracted document text,
// when the caller has it. PageCount is optional and may be extracted by the
// caller via pdfcpu; nil values are stored as NULL.
type CreateCommand struct {
	Data        []byte
	Filename    string
	ContentType string
	RawText     *string
	PageCount   *int
}

// AnalysisResult records a processing run's outcome against a document.
type AnalysisResult struct {
	DocumentType *string
	Status       string
}
