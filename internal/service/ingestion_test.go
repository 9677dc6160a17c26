package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloo-solutions/corpora/internal/domain"
	"github.com/cloo-solutions/corpora/internal/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockDocumentRepository is a mock implementation of DocumentRepositoryInterface
type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, d *domain.Document) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDocumentRepository) GetByID(ctx context.Context, ownerID, id string) (*domain.Document, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentRepository) GetAnyByID(ctx context.Context, id string) (*domain.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentRepository) ListByOwnerWithCursor(ctx context.Context, ownerID string, cursor *pagination.Cursor, limit int) (*DocumentPageResult, error) {
	args := m.Called(ctx, ownerID, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DocumentPageResult), args.Error(1)
}

func (m *MockDocumentRepository) UpdateExtraction(ctx context.Context, id, extractedText string, chunkCount int, status domain.DocumentStatus) error {
	args := m.Called(ctx, id, extractedText, chunkCount, status)
	return args.Error(0)
}

func (m *MockDocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, ownerID, id string) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

// MockChunkRepository is a mock implementation of ChunkRepositoryInterface
type MockChunkRepository struct {
	mock.Mock
}

func (m *MockChunkRepository) AddChunks(ctx context.Context, chunks []domain.DocumentChunk) (int, error) {
	args := m.Called(ctx, chunks)
	return args.Int(0), args.Error(1)
}

func (m *MockChunkRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	args := m.Called(ctx, documentID)
	return args.Error(0)
}

// MockIngestJobRepository is a mock implementation of IngestJobRepositoryInterface
type MockIngestJobRepository struct {
	mock.Mock
}

func (m *MockIngestJobRepository) Create(ctx context.Context, job *domain.IngestJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// MockStorageClient is a mock implementation of StorageClientInterface
type MockStorageClient struct {
	mock.Mock
}

func (m *MockStorageClient) GenerateUploadURL(ctx context.Context, key string, contentType string) (string, error) {
	args := m.Called(ctx, key, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockStorageClient) GenerateDownloadURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockStorageClient) DownloadObject(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockStorageClient) DeleteObject(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockStorageClient) HeadObject(ctx context.Context, key string) (*ObjectMetadata, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ObjectMetadata), args.Error(1)
}

// MockEmbeddingClient mocks embedding generation
type MockEmbeddingClient struct {
	mock.Mock
}

func (m *MockEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func newIngestionFixture() (*IngestionService, *MockDocumentRepository, *MockStorageClient, *MockChunkRepository, *MockEmbeddingClient, *testTxRunner) {
	docRepo := new(MockDocumentRepository)
	storage := new(MockStorageClient)
	chunkRepo := new(MockChunkRepository)
	embedder := new(MockEmbeddingClient)
	txRunner := &testTxRunner{repos: &testTxRepos{documents: docRepo, chunks: chunkRepo}}

	svc := NewIngestionService(docRepo, storage, NewPlainTextExtractor(), embedder, txRunner, DefaultChunkConfig())
	return svc, docRepo, storage, chunkRepo, embedder, txRunner
}

func pendingDocument() *domain.Document {
	return &domain.Document{
		ID:         "doc-1",
		OwnerID:    "owner-1",
		Filename:   "notes.txt",
		MimeType:   "text/plain",
		StorageKey: "owner-1/doc-1/notes.txt",
		Status:     domain.DocumentStatusPending,
	}
}

func TestIngestionService_IngestDocument_Success(t *testing.T) {
	svc, docRepo, storage, chunkRepo, embedder, txRunner := newIngestionFixture()
	ctx := context.Background()
	doc := pendingDocument()
	text := strings.Repeat("every chunk of this file gets indexed with provenance. ", 30)

	docRepo.On("GetAnyByID", mock.Anything, "doc-1").Return(doc, nil)
	storage.On("DownloadObject", mock.Anything, doc.StorageKey).Return([]byte(text), nil)
	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return(make([]float32, 1536), nil)
	chunkRepo.On("DeleteByDocument", mock.Anything, "doc-1").Return(nil)

	var indexed []domain.DocumentChunk
	chunkRepo.On("AddChunks", mock.Anything, mock.MatchedBy(func(chunks []domain.DocumentChunk) bool {
		indexed = chunks
		return len(chunks) > 0
	})).Return(4, nil)
	docRepo.On("UpdateExtraction", mock.Anything, "doc-1", text, 4, domain.DocumentStatusReady).Return(nil)

	result, err := svc.IngestDocument(ctx, "doc-1")

	require.NoError(t, err)
	assert.Equal(t, 4, result.ChunksAdded)
	assert.True(t, txRunner.called)

	require.NotEmpty(t, indexed)
	for i, chunk := range indexed {
		assert.Equal(t, "doc-1", chunk.DocumentID)
		assert.Equal(t, "owner-1", chunk.OwnerID)
		assert.Equal(t, i, chunk.Ordinal)
		assert.Len(t, chunk.Embedding, 1536)
		assert.Contains(t, chunk.Content, "[Source: notes.txt]")
	}
}

func TestIngestionService_IngestDocument_EmptyExtraction(t *testing.T) {
	svc, docRepo, storage, chunkRepo, embedder, txRunner := newIngestionFixture()
	ctx := context.Background()
	doc := pendingDocument()
	doc.MimeType = "application/pdf"

	docRepo.On("GetAnyByID", mock.Anything, "doc-1").Return(doc, nil)
	storage.On("DownloadObject", mock.Anything, doc.StorageKey).Return([]byte("%PDF-1.4 binary"), nil)
	docRepo.On("UpdateExtraction", mock.Anything, "doc-1", "", 0, domain.DocumentStatusReady).Return(nil)

	result, err := svc.IngestDocument(ctx, "doc-1")

	require.NoError(t, err)
	assert.Equal(t, 0, result.ChunksAdded)

	// No index write happens for an empty extraction.
	assert.False(t, txRunner.called)
	chunkRepo.AssertNotCalled(t, "AddChunks", mock.Anything, mock.Anything)
	embedder.AssertNotCalled(t, "GenerateEmbedding", mock.Anything, mock.Anything)
}

func TestIngestionService_IngestDocument_EmbeddingFailure(t *testing.T) {
	svc, docRepo, storage, chunkRepo, embedder, _ := newIngestionFixture()
	ctx := context.Background()
	doc := pendingDocument()

	docRepo.On("GetAnyByID", mock.Anything, "doc-1").Return(doc, nil)
	storage.On("DownloadObject", mock.Anything, doc.StorageKey).Return([]byte("some extracted text"), nil)
	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return(nil, errors.New("quota exceeded"))

	_, err := svc.IngestDocument(ctx, "doc-1")

	require.Error(t, err)
	chunkRepo.AssertNotCalled(t, "AddChunks", mock.Anything, mock.Anything)
}

func TestIngestionService_IngestDocument_IndexWriteFailure(t *testing.T) {
	svc, docRepo, storage, chunkRepo, embedder, _ := newIngestionFixture()
	ctx := context.Background()
	doc := pendingDocument()

	docRepo.On("GetAnyByID", mock.Anything, "doc-1").Return(doc, nil)
	storage.On("DownloadObject", mock.Anything, doc.StorageKey).Return([]byte("some extracted text"), nil)
	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return(make([]float32, 1536), nil)
	chunkRepo.On("DeleteByDocument", mock.Anything, "doc-1").Return(nil)
	chunkRepo.On("AddChunks", mock.Anything, mock.Anything).Return(0, errors.New("insert failed"))

	_, err := svc.IngestDocument(ctx, "doc-1")

	require.Error(t, err)
	docRepo.AssertNotCalled(t, "UpdateExtraction", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestionService_IngestDocument_DownloadFailure(t *testing.T) {
	svc, docRepo, storage, _, _, _ := newIngestionFixture()
	ctx := context.Background()
	doc := pendingDocument()

	docRepo.On("GetAnyByID", mock.Anything, "doc-1").Return(doc, nil)
	storage.On("DownloadObject", mock.Anything, doc.StorageKey).Return(nil, errors.New("no such key"))

	_, err := svc.IngestDocument(ctx, "doc-1")

	require.Error(t, err)
}
