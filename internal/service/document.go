package service

import (
	"context"
	"fmt"
	"time"

	"github.com/cloo-solutions/corpora/internal/domain"
	"github.com/cloo-solutions/corpora/internal/pagination"
	"github.com/cloo-solutions/corpora/internal/telemetry"
)

// StorageClientInterface defines the blob storage operations the document
// lifecycle needs.
type StorageClientInterface interface {
	GenerateUploadURL(ctx context.Context, key string, contentType string) (string, error)
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
	DownloadObject(ctx context.Context, key string) ([]byte, error)
	DeleteObject(ctx context.Context, key string) error
	HeadObject(ctx context.Context, key string) (*ObjectMetadata, error)
}

type ObjectMetadata struct {
	ContentLength int64
	ContentType   string
	ETag          string
}

// DocumentRepositoryInterface defines the repository interface for document persistence
type DocumentRepositoryInterface interface {
	Create(ctx context.Context, d *domain.Document) error
	GetByID(ctx context.Context, ownerID, id string) (*domain.Document, error)
	GetAnyByID(ctx context.Context, id string) (*domain.Document, error)
	ListByOwnerWithCursor(ctx context.Context, ownerID string, cursor *pagination.Cursor, limit int) (*DocumentPageResult, error)
	UpdateExtraction(ctx context.Context, id, extractedText string, chunkCount int, status domain.DocumentStatus) error
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus) error
	Delete(ctx context.Context, ownerID, id string) error
}

type DocumentPageResult struct {
	Items      []*domain.Document
	NextCursor string
	HasMore    bool
}

// ChunkRepositoryInterface defines the repository interface for the chunk index
type ChunkRepositoryInterface interface {
	AddChunks(ctx context.Context, chunks []domain.DocumentChunk) (int, error)
	DeleteByDocument(ctx context.Context, documentID string) error
}

// IngestJobRepositoryInterface defines the repository interface for ingest job persistence
type IngestJobRepositoryInterface interface {
	Create(ctx context.Context, job *domain.IngestJob) error
}

// DocumentService handles the document upload lifecycle: presigned upload,
// registration, listing and deletion. Chunking and indexing happen
// asynchronously through the ingest worker.
type DocumentService struct {
	docRepo       DocumentRepositoryInterface
	storageClient StorageClientInterface
	uuidGen       UUIDGenerator
	txRunner      TxRunner
}

// NewDocumentService creates a new DocumentService instance
func NewDocumentService(
	docRepo DocumentRepositoryInterface,
	storageClient StorageClientInterface,
	txRunner TxRunner,
) *DocumentService {
	return &DocumentService{
		docRepo:       docRepo,
		storageClient: storageClient,
		uuidGen:       &DefaultUUIDGenerator{},
		txRunner:      txRunner,
	}
}

// NewDocumentServiceWithUUIDGen creates a DocumentService with a custom UUID generator (for testing)
func NewDocumentServiceWithUUIDGen(
	docRepo DocumentRepositoryInterface,
	storageClient StorageClientInterface,
	txRunner TxRunner,
	uuidGen UUIDGenerator,
) *DocumentService {
	return &DocumentService{
		docRepo:       docRepo,
		storageClient: storageClient,
		uuidGen:       uuidGen,
		txRunner:      txRunner,
	}
}

type InitDocumentUploadInput struct {
	OwnerID     string
	Filename    string
	ContentType string
}

type InitDocumentUploadResult struct {
	DocumentID string
	StorageKey string
	UploadURL  string
}

// InitUpload allocates a document ID and returns a presigned URL the
// client uploads the file bytes to. No record is written yet; the
// document exists once CompleteUpload confirms the object.
func (s *DocumentService) InitUpload(ctx context.Context, input InitDocumentUploadInput) (*InitDocumentUploadResult, error) {
	if input.OwnerID == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "owner ID is required")
	}
	if input.Filename == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "filename is required")
	}

	documentID := s.uuidGen.NewString()
	storageKey := buildStorageKey(input.OwnerID, documentID, input.Filename)

	uploadURL, err := s.storageClient.GenerateUploadURL(ctx, storageKey, input.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to generate upload URL: %w", err)
	}

	return &InitDocumentUploadResult{
		DocumentID: documentID,
		StorageKey: storageKey,
		UploadURL:  uploadURL,
	}, nil
}

type CompleteDocumentUploadInput struct {
	DocumentID  string
	OwnerID     string
	Filename    string
	ContentType string
	StorageKey  string
	SHA256      string
}

// CompleteUpload verifies the uploaded object exists, registers the
// document as pending and queues its ingest job. Record and job are
// written in one transaction so a document is never left without a job.
func (s *DocumentService) CompleteUpload(ctx context.Context, input CompleteDocumentUploadInput) (*domain.Document, error) {
	ctx, span := telemetry.StartSpan(ctx, "DocumentService.CompleteUpload", telemetry.SpanAttributes{
		OwnerID:    input.OwnerID,
		DocumentID: input.DocumentID,
		Operation:  "complete_upload",
	})
	defer span.End()

	_, err := s.storageClient.HeadObject(ctx, input.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to verify uploaded file: %w", err)
	}

	now := time.Now().UTC()
	doc := &domain.Document{
		ID:         input.DocumentID,
		OwnerID:    input.OwnerID,
		Filename:   input.Filename,
		MimeType:   input.ContentType,
		SHA256:     input.SHA256,
		StorageKey: input.StorageKey,
		Status:     domain.DocumentStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := domain.ValidateDocument(doc); err != nil {
		return nil, err
	}

	if err := s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if err := repos.Documents().Create(ctx, doc); err != nil {
			return fmt.Errorf("failed to create document record: %w", err)
		}

		job := &domain.IngestJob{
			ID:         s.uuidGen.NewString(),
			DocumentID: doc.ID,
			Status:     domain.IngestJobStatusPending,
			CreatedAt:  now,
		}
		if err := repos.IngestJobs().Create(ctx, job); err != nil {
			return fmt.Errorf("failed to create ingest job: %w", err)
		}
		return nil
	}); err != nil {
		span.SetError(err)
		return nil, err
	}

	return doc, nil
}

func (s *DocumentService) GetByID(ctx context.Context, ownerID, documentID string) (*domain.Document, error) {
	return s.docRepo.GetByID(ctx, ownerID, documentID)
}

func (s *DocumentService) GetDownloadURL(ctx context.Context, ownerID, documentID string) (string, error) {
	doc, err := s.docRepo.GetByID(ctx, ownerID, documentID)
	if err != nil {
		return "", err
	}

	url, err := s.storageClient.GenerateDownloadURL(ctx, doc.StorageKey)
	if err != nil {
		return "", fmt.Errorf("failed to generate download URL: %w", err)
	}

	return url, nil
}

type ListDocumentsInput struct {
	OwnerID string
	Cursor  string
	Limit   int
}

type ListDocumentsOutput struct {
	Items   []*domain.Document
	Cursor  string
	HasMore bool
}

func (s *DocumentService) List(ctx context.Context, input ListDocumentsInput) (*ListDocumentsOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "DocumentService.List", telemetry.SpanAttributes{
		OwnerID:   input.OwnerID,
		Operation: "list",
	})
	defer span.End()

	if input.OwnerID == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "owner ID is required")
	}

	cursor, err := pagination.DecodeCursor(input.Cursor)
	if err != nil {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "invalid cursor")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	result, err := s.docRepo.ListByOwnerWithCursor(ctx, input.OwnerID, cursor, limit)
	if err != nil {
		return nil, err
	}

	return &ListDocumentsOutput{
		Items:   result.Items,
		Cursor:  result.NextCursor,
		HasMore: result.HasMore,
	}, nil
}

// Delete removes the stored object, the document record and its chunks.
// Record and chunks go in one transaction so the index never keeps
// chunks for a document that no longer exists.
func (s *DocumentService) Delete(ctx context.Context, ownerID, documentID string) error {
	ctx, span := telemetry.StartSpan(ctx, "DocumentService.Delete", telemetry.SpanAttributes{
		OwnerID:    ownerID,
		DocumentID: documentID,
		Operation:  "delete",
	})
	defer span.End()

	doc, err := s.docRepo.GetByID(ctx, ownerID, documentID)
	if err != nil {
		return err
	}

	if err := s.storageClient.DeleteObject(ctx, doc.StorageKey); err != nil {
		return fmt.Errorf("failed to delete from storage: %w", err)
	}

	return s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if err := repos.Chunks().DeleteByDocument(ctx, documentID); err != nil {
			return fmt.Errorf("failed to delete document chunks: %w", err)
		}
		if err := repos.Documents().Delete(ctx, ownerID, documentID); err != nil {
			return fmt.Errorf("failed to delete document record: %w", err)
		}
		return nil
	})
}

func buildStorageKey(ownerID, documentID, filename string) string {
	return fmt.Sprintf("%s/%s/%s", ownerID, documentID, filename)
}
