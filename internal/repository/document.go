package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloo-solutions/corpora/internal/domain"
	"github.com/cloo-solutions/corpora/internal/pagination"
	"github.com/cloo-solutions/corpora/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DocumentRepository handles persistence of uploaded documents.
type DocumentRepository struct {
	db dbtx
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: pool}
}

func NewDocumentRepositoryWithTx(tx pgx.Tx) *DocumentRepository {
	return &DocumentRepository{db: tx}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO documents
			(id, owner_id, filename, mime_type, sha256, storage_key, status, extracted_text, chunk_count, created_at, updated_at)
		 VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		doc.ID, doc.OwnerID, doc.Filename, doc.MimeType, nullableString(doc.SHA256),
		doc.StorageKey, doc.Status, doc.ExtractedText, doc.ChunkCount, doc.CreatedAt, doc.UpdatedAt,
	)
	return err
}

// GetByID returns a document only if it belongs to the given owner.
func (r *DocumentRepository) GetByID(ctx context.Context, ownerID, id string) (*domain.Document, error) {
	return r.scanOne(r.db.QueryRow(ctx,
		`SELECT id, owner_id, filename, mime_type, sha256, storage_key, status, extracted_text, chunk_count, created_at, updated_at
		 FROM documents WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	))
}

// GetAnyByID returns a document without owner scoping. It is meant for the
// ingestion worker, which operates on jobs rather than on behalf of a caller.
func (r *DocumentRepository) GetAnyByID(ctx context.Context, id string) (*domain.Document, error) {
	return r.scanOne(r.db.QueryRow(ctx,
		`SELECT id, owner_id, filename, mime_type, sha256, storage_key, status, extracted_text, chunk_count, created_at, updated_at
		 FROM documents WHERE id = $1`,
		id,
	))
}

func (r *DocumentRepository) ListByOwnerWithCursor(ctx context.Context, ownerID string, cursor *pagination.Cursor, limit int) (*service.DocumentPageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, owner_id, filename, mime_type, sha256, storage_key, status, extracted_text, chunk_count, created_at, updated_at
		FROM documents
		WHERE owner_id = $1`
	args := []interface{}{ownerID}

	if cursor != nil {
		query += ` AND (created_at, id) < ($2, $3)`
		args = append(args, cursor.Timestamp, cursor.LastID)
	}

	// Fetch one extra row to detect whether another page exists.
	args = append(args, limit+1)
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d`, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*domain.Document
	for rows.Next() {
		doc, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := &service.DocumentPageResult{Items: docs}
	if len(docs) > limit {
		result.Items = docs[:limit]
		result.HasMore = true
		last := result.Items[len(result.Items)-1]
		result.NextCursor = pagination.EncodeCursor(last.ID, last.CreatedAt)
	}
	return result, nil
}

func (r *DocumentRepository) UpdateExtraction(ctx context.Context, id, extractedText string, chunkCount int, status domain.DocumentStatus) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE documents
		 SET extracted_text = $1, chunk_count = $2, status = $3, updated_at = $4
		 WHERE id = $5`,
		extractedText, chunkCount, status, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE documents SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (r *DocumentRepository) Delete(ctx context.Context, ownerID, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM documents WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (r *DocumentRepository) scanOne(row pgx.Row) (*domain.Document, error) {
	var doc domain.Document
	var sha256 *string
	err := row.Scan(&doc.ID, &doc.OwnerID, &doc.Filename, &doc.MimeType, &sha256,
		&doc.StorageKey, &doc.Status, &doc.ExtractedText, &doc.ChunkCount, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	if sha256 != nil {
		doc.SHA256 = *sha256
	}
	return &doc, nil
}

func (r *DocumentRepository) scanRow(rows pgx.Rows) (*domain.Document, error) {
	var doc domain.Document
	var sha256 *string
	if err := rows.Scan(&doc.ID, &doc.OwnerID, &doc.Filename, &doc.MimeType, &sha256,
		&doc.StorageKey, &doc.Status, &doc.ExtractedText, &doc.ChunkCount, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, err
	}
	if sha256 != nil {
		doc.SHA256 = *sha256
	}
	return &doc, nil
}
