//go:build integration

package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cloo-solutions/corpora/internal/domain"
	"github.com/cloo-solutions/corpora/internal/service"
	"github.com/cloo-solutions/corpora/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unitEmbedding returns a 1536-dim vector pointing along the given axis,
// so cosine distances between test chunks are exact.
func unitEmbedding(axis int) []float32 {
	v := make([]float32, 1536)
	v[axis] = 1.0
	return v
}

func setupDocForChunks(ctx context.Context, t *testing.T, userRepo *UserRepository, docRepo *DocumentRepository) *domain.Document {
	t.Helper()
	user := &domain.User{
		ID:        uuid.NewString(),
		Name:      "chunk-test-user-" + uuid.NewString()[:8],
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, userRepo.Create(ctx, user))

	now := time.Now().UTC().Truncate(time.Microsecond)
	doc := &domain.Document{
		ID:         uuid.NewString(),
		OwnerID:    user.ID,
		Filename:   "chunked.txt",
		MimeType:   "text/plain",
		StorageKey: "documents/" + user.ID + "/" + uuid.NewString(),
		Status:     domain.DocumentStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, docRepo.Create(ctx, doc))
	return doc
}

func chunkFor(doc *domain.Document, ordinal, axis int) domain.DocumentChunk {
	return domain.DocumentChunk{
		ChunkID:    uuid.NewString(),
		DocumentID: doc.ID,
		OwnerID:    doc.OwnerID,
		SourceName: doc.Filename,
		Ordinal:    ordinal,
		Content:    fmt.Sprintf("chunk %d of %s", ordinal, doc.Filename),
		Embedding:  unitEmbedding(axis),
	}
}

func TestChunkRepository_AddChunks(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	userRepo := NewUserRepository(pool)
	docRepo := NewDocumentRepository(pool)
	chunkRepo := NewChunkRepository(pool)

	doc := setupDocForChunks(ctx, t, userRepo, docRepo)

	chunks := []domain.DocumentChunk{
		chunkFor(doc, 0, 0),
		chunkFor(doc, 1, 1),
		chunkFor(doc, 2, 2),
	}

	count, err := chunkRepo.AddChunks(ctx, chunks)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestChunkRepository_SearchChunks_RanksByDistance(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	userRepo := NewUserRepository(pool)
	docRepo := NewDocumentRepository(pool)
	chunkRepo := NewChunkRepository(pool)

	doc := setupDocForChunks(ctx, t, userRepo, docRepo)

	_, err := chunkRepo.AddChunks(ctx, []domain.DocumentChunk{
		chunkFor(doc, 0, 0),
		chunkFor(doc, 1, 1),
	})
	require.NoError(t, err)

	results, err := chunkRepo.SearchChunks(ctx, unitEmbedding(0), service.SearchOptions{
		OwnerID: doc.OwnerID,
		Limit:   5,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	// The identical vector has distance 0, so score 1/(1+0) = 1.
	assert.InDelta(t, 1.0, results[0].Score, 0.001)
	assert.Equal(t, "chunk 0 of chunked.txt", results[0].Content)
	assert.Greater(t, results[0].Score, results[1].Score)
	assert.Equal(t, doc.ID, results[0].Metadata.DocumentID)
	assert.Equal(t, "chunked.txt", results[0].Metadata.FileName)
}

func TestChunkRepository_SearchChunks_OwnerIsolation(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	userRepo := NewUserRepository(pool)
	docRepo := NewDocumentRepository(pool)
	chunkRepo := NewChunkRepository(pool)

	docA := setupDocForChunks(ctx, t, userRepo, docRepo)
	docB := setupDocForChunks(ctx, t, userRepo, docRepo)

	_, err := chunkRepo.AddChunks(ctx, []domain.DocumentChunk{chunkFor(docA, 0, 0)})
	require.NoError(t, err)
	_, err = chunkRepo.AddChunks(ctx, []domain.DocumentChunk{chunkFor(docB, 0, 0)})
	require.NoError(t, err)

	results, err := chunkRepo.SearchChunks(ctx, unitEmbedding(0), service.SearchOptions{
		OwnerID: docA.OwnerID,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, docA.ID, results[0].Metadata.DocumentID)
}

func TestChunkRepository_SearchChunks_DocumentFilter(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	userRepo := NewUserRepository(pool)
	docRepo := NewDocumentRepository(pool)
	chunkRepo := NewChunkRepository(pool)

	user := &domain.User{
		ID:        uuid.NewString(),
		Name:      "filter-test-user-" + uuid.NewString()[:8],
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, userRepo.Create(ctx, user))

	now := time.Now().UTC().Truncate(time.Microsecond)
	var docs []*domain.Document
	for i := 0; i < 2; i++ {
		doc := &domain.Document{
			ID:         uuid.NewString(),
			OwnerID:    user.ID,
			Filename:   fmt.Sprintf("doc-%d.txt", i),
			MimeType:   "text/plain",
			StorageKey: "documents/" + user.ID + "/" + uuid.NewString(),
			Status:     domain.DocumentStatusPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		require.NoError(t, docRepo.Create(ctx, doc))
		_, err := chunkRepo.AddChunks(ctx, []domain.DocumentChunk{chunkFor(doc, 0, i)})
		require.NoError(t, err)
		docs = append(docs, doc)
	}

	results, err := chunkRepo.SearchChunks(ctx, unitEmbedding(0), service.SearchOptions{
		OwnerID:    user.ID,
		DocumentID: docs[1].ID,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, docs[1].ID, results[0].Metadata.DocumentID)
}

func TestChunkRepository_DeleteByDocument(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	userRepo := NewUserRepository(pool)
	docRepo := NewDocumentRepository(pool)
	chunkRepo := NewChunkRepository(pool)

	doc := setupDocForChunks(ctx, t, userRepo, docRepo)

	_, err := chunkRepo.AddChunks(ctx, []domain.DocumentChunk{
		chunkFor(doc, 0, 0),
		chunkFor(doc, 1, 1),
	})
	require.NoError(t, err)

	require.NoError(t, chunkRepo.DeleteByDocument(ctx, doc.ID))

	results, err := chunkRepo.SearchChunks(ctx, unitEmbedding(0), service.SearchOptions{
		OwnerID: doc.OwnerID,
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}
