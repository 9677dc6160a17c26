package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloo-solutions/corpora/internal/domain"
)

// ChunkSearchRepository runs a similarity search over the chunk index.
// Results come back ordered by descending score.
type ChunkSearchRepository interface {
	SearchChunks(ctx context.Context, embedding []float32, opts SearchOptions) ([]domain.RetrievedChunk, error)
}

// RetrieverService adapts the chunk index to the router: it embeds the
// query text and delegates the vector search.
type RetrieverService struct {
	embedder EmbeddingClient
	repo     ChunkSearchRepository
}

// NewRetrieverService creates a new RetrieverService instance.
func NewRetrieverService(embedder EmbeddingClient, repo ChunkSearchRepository) *RetrieverService {
	return &RetrieverService{embedder: embedder, repo: repo}
}

// Search embeds the query and returns the top scored chunks matching the
// filters. A blank query returns no chunks without touching the index.
func (s *RetrieverService) Search(ctx context.Context, query string, opts SearchOptions) ([]domain.RetrievedChunk, error) {
	if strings.TrimSpace(query) == "" {
		return []domain.RetrievedChunk{}, nil
	}
	if opts.Limit <= 0 {
		opts.Limit = retrievalTopK
	}

	embedding, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	return s.repo.SearchChunks(ctx, embedding, opts)
}
