//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/cloo-solutions/corpora/internal/domain"
	"github.com/cloo-solutions/corpora/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDocForJobs(ctx context.Context, t *testing.T, userRepo *UserRepository, docRepo *DocumentRepository) *domain.Document {
	t.Helper()
	user := &domain.User{
		ID:        uuid.NewString(),
		Name:      "job-test-user-" + uuid.NewString()[:8],
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, userRepo.Create(ctx, user))

	now := time.Now().UTC().Truncate(time.Microsecond)
	doc := &domain.Document{
		ID:         uuid.NewString(),
		OwnerID:    user.ID,
		Filename:   "job-doc.txt",
		MimeType:   "text/plain",
		StorageKey: "documents/" + user.ID + "/" + uuid.NewString(),
		Status:     domain.DocumentStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, docRepo.Create(ctx, doc))
	return doc
}

func pendingIngestJob(documentID string, createdAt time.Time) *domain.IngestJob {
	return &domain.IngestJob{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		Status:     domain.IngestJobStatusPending,
		CreatedAt:  createdAt,
	}
}

func TestIngestJobRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	userRepo := NewUserRepository(pool)
	docRepo := NewDocumentRepository(pool)
	jobRepo := NewIngestJobRepository(pool)

	doc := setupDocForJobs(ctx, t, userRepo, docRepo)

	job := pendingIngestJob(doc.ID, time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, jobRepo.Create(ctx, job))

	retrieved, err := jobRepo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, retrieved.ID)
	assert.Equal(t, doc.ID, retrieved.DocumentID)
	assert.Equal(t, domain.IngestJobStatusPending, retrieved.Status)
	assert.Equal(t, int32(0), retrieved.Retries)
	assert.Nil(t, retrieved.ProcessedAt)
}

func TestIngestJobRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	jobRepo := NewIngestJobRepository(pool)

	_, err := jobRepo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrIngestJobNotFound)
}

func TestIngestJobRepository_ClaimPending(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	userRepo := NewUserRepository(pool)
	docRepo := NewDocumentRepository(pool)
	jobRepo := NewIngestJobRepository(pool)

	doc := setupDocForJobs(ctx, t, userRepo, docRepo)

	base := time.Now().UTC().Truncate(time.Microsecond).Add(-time.Minute)
	oldest := pendingIngestJob(doc.ID, base)
	newest := pendingIngestJob(doc.ID, base.Add(30*time.Second))
	require.NoError(t, jobRepo.Create(ctx, oldest))
	require.NoError(t, jobRepo.Create(ctx, newest))

	claimed, err := jobRepo.ClaimPending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, oldest.ID, claimed[0].ID)
	assert.Equal(t, domain.IngestJobStatusProcessing, claimed[0].Status)

	// The claimed job no longer shows up as pending
	claimedAgain, err := jobRepo.ClaimPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, claimedAgain, 1)
	assert.Equal(t, newest.ID, claimedAgain[0].ID)

	none, err := jobRepo.ClaimPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestIngestJobRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	userRepo := NewUserRepository(pool)
	docRepo := NewDocumentRepository(pool)
	jobRepo := NewIngestJobRepository(pool)

	doc := setupDocForJobs(ctx, t, userRepo, docRepo)

	job := pendingIngestJob(doc.ID, time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, jobRepo.Create(ctx, job))

	require.NoError(t, jobRepo.UpdateStatus(ctx, job.ID, domain.IngestJobStatusCompleted, ""))

	retrieved, err := jobRepo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IngestJobStatusCompleted, retrieved.Status)
	assert.NotNil(t, retrieved.ProcessedAt)
	assert.Empty(t, retrieved.Error)
}

func TestIngestJobRepository_UpdateStatus_FailedKeepsError(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	userRepo := NewUserRepository(pool)
	docRepo := NewDocumentRepository(pool)
	jobRepo := NewIngestJobRepository(pool)

	doc := setupDocForJobs(ctx, t, userRepo, docRepo)

	job := pendingIngestJob(doc.ID, time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, jobRepo.Create(ctx, job))

	require.NoError(t, jobRepo.UpdateStatus(ctx, job.ID, domain.IngestJobStatusFailed, "extraction failed"))

	retrieved, err := jobRepo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IngestJobStatusFailed, retrieved.Status)
	assert.Equal(t, "extraction failed", retrieved.Error)
	assert.NotNil(t, retrieved.ProcessedAt)
}

func TestIngestJobRepository_IncrementRetries(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	userRepo := NewUserRepository(pool)
	docRepo := NewDocumentRepository(pool)
	jobRepo := NewIngestJobRepository(pool)

	doc := setupDocForJobs(ctx, t, userRepo, docRepo)

	job := pendingIngestJob(doc.ID, time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, jobRepo.Create(ctx, job))

	require.NoError(t, jobRepo.IncrementRetries(ctx, job.ID))
	require.NoError(t, jobRepo.IncrementRetries(ctx, job.ID))

	retrieved, err := jobRepo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), retrieved.Retries)
}
