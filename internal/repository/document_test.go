//go:build integration

package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cloo-solutions/corpora/internal/domain"
	"github.com/cloo-solutions/corpora/internal/pagination"
	"github.com/cloo-solutions/corpora/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupOwner(ctx context.Context, t *testing.T, userRepo *UserRepository) *domain.User {
	t.Helper()
	user := &domain.User{
		ID:        uuid.NewString(),
		Name:      "doc-test-user-" + uuid.NewString()[:8],
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, userRepo.Create(ctx, user))
	return user
}

func testDoc(ownerID, filename string, createdAt time.Time) *domain.Document {
	return &domain.Document{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		Filename:   filename,
		MimeType:   "text/plain",
		SHA256:     "",
		StorageKey: "documents/" + ownerID + "/" + uuid.NewString(),
		Status:     domain.DocumentStatusUploading,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
}

func TestDocumentRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	userRepo := NewUserRepository(pool)
	docRepo := NewDocumentRepository(pool)

	user := setupOwner(ctx, t, userRepo)

	doc := testDoc(user.ID, "report.txt", time.Now().UTC().Truncate(time.Microsecond))
	doc.SHA256 = "abc123"
	require.NoError(t, docRepo.Create(ctx, doc))

	retrieved, err := docRepo.GetByID(ctx, user.ID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, retrieved.ID)
	assert.Equal(t, "report.txt", retrieved.Filename)
	assert.Equal(t, "abc123", retrieved.SHA256)
	assert.Equal(t, domain.DocumentStatusUploading, retrieved.Status)
	assert.Equal(t, 0, retrieved.ChunkCount)
}

func TestDocumentRepository_GetByID_OwnerScoped(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	userRepo := NewUserRepository(pool)
	docRepo := NewDocumentRepository(pool)

	owner := setupOwner(ctx, t, userRepo)
	other := setupOwner(ctx, t, userRepo)

	doc := testDoc(owner.ID, "private.txt", time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, docRepo.Create(ctx, doc))

	_, err := docRepo.GetByID(ctx, other.ID, doc.ID)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	// GetAnyByID ignores the owner filter
	retrieved, err := docRepo.GetAnyByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, retrieved.ID)
}

func TestDocumentRepository_ListByOwnerWithCursor(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	userRepo := NewUserRepository(pool)
	docRepo := NewDocumentRepository(pool)

	user := setupOwner(ctx, t, userRepo)

	base := time.Now().UTC().Truncate(time.Microsecond).Add(-time.Hour)
	for i := 0; i < 5; i++ {
		doc := testDoc(user.ID, fmt.Sprintf("doc-%d.txt", i), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, docRepo.Create(ctx, doc))
	}

	// First page, newest first
	page, err := docRepo.ListByOwnerWithCursor(ctx, user.ID, nil, 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.True(t, page.HasMore)
	assert.NotEmpty(t, page.NextCursor)
	assert.Equal(t, "doc-4.txt", page.Items[0].Filename)
	assert.Equal(t, "doc-3.txt", page.Items[1].Filename)

	// Second page resumes after the cursor
	cursor, err := pagination.DecodeCursor(page.NextCursor)
	require.NoError(t, err)
	page2, err := docRepo.ListByOwnerWithCursor(ctx, user.ID, cursor, 2)
	require.NoError(t, err)
	require.Len(t, page2.Items, 2)
	assert.Equal(t, "doc-2.txt", page2.Items[0].Filename)
	assert.Equal(t, "doc-1.txt", page2.Items[1].Filename)

	// Final page has no next cursor
	cursor2, err := pagination.DecodeCursor(page2.NextCursor)
	require.NoError(t, err)
	page3, err := docRepo.ListByOwnerWithCursor(ctx, user.ID, cursor2, 2)
	require.NoError(t, err)
	require.Len(t, page3.Items, 1)
	assert.False(t, page3.HasMore)
	assert.Equal(t, "doc-0.txt", page3.Items[0].Filename)
}

func TestDocumentRepository_UpdateExtraction(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	userRepo := NewUserRepository(pool)
	docRepo := NewDocumentRepository(pool)

	user := setupOwner(ctx, t, userRepo)

	doc := testDoc(user.ID, "extract.txt", time.Now().UTC().Truncate(time.Microsecond).Add(-time.Hour))
	require.NoError(t, docRepo.Create(ctx, doc))

	err := docRepo.UpdateExtraction(ctx, doc.ID, "extracted body text", 7, domain.DocumentStatusReady)
	require.NoError(t, err)

	retrieved, err := docRepo.GetByID(ctx, user.ID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "extracted body text", retrieved.ExtractedText)
	assert.Equal(t, 7, retrieved.ChunkCount)
	assert.Equal(t, domain.DocumentStatusReady, retrieved.Status)
	assert.True(t, retrieved.UpdatedAt.After(retrieved.CreatedAt))
}

func TestDocumentRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	userRepo := NewUserRepository(pool)
	docRepo := NewDocumentRepository(pool)

	user := setupOwner(ctx, t, userRepo)

	doc := testDoc(user.ID, "status.txt", time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, docRepo.Create(ctx, doc))

	require.NoError(t, docRepo.UpdateStatus(ctx, doc.ID, domain.DocumentStatusFailed))

	retrieved, err := docRepo.GetByID(ctx, user.ID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentStatusFailed, retrieved.Status)

	err = docRepo.UpdateStatus(ctx, uuid.NewString(), domain.DocumentStatusReady)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestDocumentRepository_Delete(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	userRepo := NewUserRepository(pool)
	docRepo := NewDocumentRepository(pool)

	owner := setupOwner(ctx, t, userRepo)
	other := setupOwner(ctx, t, userRepo)

	doc := testDoc(owner.ID, "delete-me.txt", time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, docRepo.Create(ctx, doc))

	// Another owner cannot delete it
	err := docRepo.Delete(ctx, other.ID, doc.ID)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	require.NoError(t, docRepo.Delete(ctx, owner.ID, doc.ID))

	_, err = docRepo.GetByID(ctx, owner.ID, doc.ID)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}
