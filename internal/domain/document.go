package domain

import (
	"fmt"
	"time"
)

// DocumentStatus represents the ingestion state of an uploaded document
type DocumentStatus string

const (
	DocumentStatusUploading DocumentStatus = "uploading"
	DocumentStatusPending   DocumentStatus = "pending"
	DocumentStatusReady     DocumentStatus = "ready"
	DocumentStatusFailed    DocumentStatus = "failed"
)

// Document represents an uploaded source file owned by a single user.
// ExtractedText holds the full parsed text so summarization can read the
// whole document without going through the chunk index.
type Document struct {
	ID            string
	OwnerID       string
	Filename      string
	MimeType      string
	SHA256        string
	StorageKey    string
	Status        DocumentStatus
	ExtractedText string
	ChunkCount    int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewDocument creates a new Document instance
func NewDocument(
	id, ownerID string,
	filename, mimeType, sha256, storageKey string,
	status DocumentStatus,
	createdAt, updatedAt time.Time,
) *Document {
	return &Document{
		ID:         id,
		OwnerID:    ownerID,
		Filename:   filename,
		MimeType:   mimeType,
		SHA256:     sha256,
		StorageKey: storageKey,
		Status:     status,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}
}

// ValidateDocument validates a Document instance
func ValidateDocument(d *Document) error {
	if d == nil {
		return fmt.Errorf("document cannot be nil")
	}

	if d.ID == "" {
		return fmt.Errorf("document ID is required")
	}

	if d.OwnerID == "" {
		return fmt.Errorf("document OwnerID is required")
	}

	if d.Filename == "" {
		return fmt.Errorf("document Filename is required")
	}

	if d.StorageKey == "" {
		return fmt.Errorf("document StorageKey is required")
	}

	if !isValidDocumentStatus(d.Status) {
		return fmt.Errorf("document Status is invalid: %s", d.Status)
	}

	return nil
}

// isValidDocumentStatus checks if a DocumentStatus is valid
func isValidDocumentStatus(s DocumentStatus) bool {
	switch s {
	case DocumentStatusUploading, DocumentStatusPending,
		DocumentStatusReady, DocumentStatusFailed:
		return true
	}
	return false
}
