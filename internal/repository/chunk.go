package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/cloo-solutions/corpora/internal/domain"
	"github.com/cloo-solutions/corpora/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ChunkRepository handles persistence and similarity search of document chunks.
type ChunkRepository struct {
	db dbtx
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: pool}
}

func NewChunkRepositoryWithTx(tx pgx.Tx) *ChunkRepository {
	return &ChunkRepository{db: tx}
}

// AddChunks inserts the given chunks and returns how many were written.
func (r *ChunkRepository) AddChunks(ctx context.Context, chunks []domain.DocumentChunk) (int, error) {
	now := time.Now().UTC()
	for _, c := range chunks {
		_, err := r.db.Exec(ctx,
			`INSERT INTO document_chunks
				(chunk_id, document_id, owner_id, source_name, ordinal, content, embedding, created_at)
			 VALUES
				($1, $2, $3, $4, $5, $6, $7, $8)`,
			c.ChunkID, c.DocumentID, c.OwnerID, c.SourceName, c.Ordinal, c.Content,
			pgvector.NewVector(c.Embedding), now,
		)
		if err != nil {
			return 0, err
		}
	}
	return len(chunks), nil
}

func (r *ChunkRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, documentID)
	return err
}

// SearchChunks runs a cosine-similarity search over the owner's chunks,
// optionally restricted to one document. Results are ordered by descending
// score, where score is 1.0 / (1.0 + distance).
func (r *ChunkRepository) SearchChunks(ctx context.Context, embedding []float32, opts service.SearchOptions) ([]domain.RetrievedChunk, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 5
	}

	vec := pgvector.NewVector(embedding)

	query := `
		SELECT chunk_id, document_id, owner_id, source_name, content,
		       1.0 / (1.0 + (embedding <=> $1)) AS score
		FROM document_chunks
		WHERE owner_id = $2`
	args := []interface{}{vec, opts.OwnerID}

	if opts.DocumentID != "" {
		query += ` AND document_id = $3`
		args = append(args, opts.DocumentID)
	}

	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY score DESC LIMIT $%d`, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.RetrievedChunk, 0)
	for rows.Next() {
		var chunk domain.RetrievedChunk
		if err := rows.Scan(&chunk.Metadata.ChunkID, &chunk.Metadata.DocumentID, &chunk.Metadata.OwnerID,
			&chunk.Metadata.FileName, &chunk.Content, &chunk.Score); err != nil {
			return nil, err
		}
		results = append(results, chunk)
	}
	return results, rows.Err()
}
