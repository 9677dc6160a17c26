package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloo-solutions/corpora/internal/domain"
	"github.com/cloo-solutions/corpora/internal/telemetry"
)

// IngestResult reports what one ingestion pass actually indexed.
type IngestResult struct {
	DocumentID  string
	ChunksAdded int
}

// IngestionService turns an uploaded document into indexed chunks:
// download, extract text, chunk, embed, write to the index. It is called
// by the background worker, one document per invocation.
type IngestionService struct {
	docRepo   DocumentRepositoryInterface
	storage   StorageClientInterface
	extractor TextExtractor
	embedder  EmbeddingClient
	txRunner  TxRunner
	chunkCfg  ChunkConfig
}

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// NewIngestionService creates a new IngestionService instance
func NewIngestionService(
	docRepo DocumentRepositoryInterface,
	storage StorageClientInterface,
	extractor TextExtractor,
	embedder EmbeddingClient,
	txRunner TxRunner,
	chunkCfg ChunkConfig,
) *IngestionService {
	return &IngestionService{
		docRepo:   docRepo,
		storage:   storage,
		extractor: extractor,
		embedder:  embedder,
		txRunner:  txRunner,
		chunkCfg:  chunkCfg.normalized(),
	}
}

// IngestDocument runs the full pipeline for one document.
//
// Extraction is best effort: a document that yields no text is marked
// ready with zero chunks and no index write happens. The index write and
// the document's chunk count are committed in one transaction, replacing
// any chunks from an earlier pass, so a successful result never refers
// to a partially written chunk set.
func (s *IngestionService) IngestDocument(ctx context.Context, documentID string) (*IngestResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestionService.IngestDocument", telemetry.SpanAttributes{
		DocumentID: documentID,
		Operation:  "ingest",
	})
	defer span.End()

	doc, err := s.docRepo.GetAnyByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	data, err := s.storage.DownloadObject(ctx, doc.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to download document: %w", err)
	}

	text := s.extractor.Extract(data, doc.MimeType)
	if strings.TrimSpace(text) == "" {
		if err := s.docRepo.UpdateExtraction(ctx, doc.ID, "", 0, domain.DocumentStatusReady); err != nil {
			return nil, fmt.Errorf("failed to record empty extraction: %w", err)
		}
		return &IngestResult{DocumentID: doc.ID, ChunksAdded: 0}, nil
	}

	chunks := ChunkText(text, doc.Filename, s.chunkCfg)
	for i := range chunks {
		chunks[i].DocumentID = doc.ID
		chunks[i].OwnerID = doc.OwnerID

		embedding, err := s.embedder.GenerateEmbedding(ctx, chunks[i].Content)
		if err != nil {
			span.SetError(err)
			return nil, fmt.Errorf("failed to embed chunk %s: %w", chunks[i].ChunkID, err)
		}
		chunks[i].Embedding = embedding
	}

	var added int
	if err := s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if err := repos.Chunks().DeleteByDocument(ctx, doc.ID); err != nil {
			return fmt.Errorf("failed to clear existing chunks: %w", err)
		}
		added, err = repos.Chunks().AddChunks(ctx, chunks)
		if err != nil {
			return fmt.Errorf("failed to index chunks: %w", err)
		}
		return repos.Documents().UpdateExtraction(ctx, doc.ID, text, added, domain.DocumentStatusReady)
	}); err != nil {
		span.SetError(err)
		return nil, err
	}

	return &IngestResult{DocumentID: doc.ID, ChunksAdded: added}, nil
}
