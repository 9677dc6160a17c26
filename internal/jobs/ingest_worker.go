package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/cloo-solutions/corpora/internal/domain"
	"github.com/cloo-solutions/corpora/internal/service"
)

const (
	// MaxRetries is the maximum number of retries for a failed job
	MaxRetries = 3

	// ClaimBatchSize is the number of pending jobs claimed per poll
	ClaimBatchSize = 10
)

// IngestJobQueue defines the interface for ingest job persistence
type IngestJobQueue interface {
	// ClaimPending retrieves and claims pending ingest jobs
	ClaimPending(ctx context.Context, limit int) ([]*domain.IngestJob, error)

	// UpdateStatus updates the status of an ingest job
	UpdateStatus(ctx context.Context, id string, status domain.IngestJobStatus, errMsg string) error

	// IncrementRetries increments the retry count for a job
	IncrementRetries(ctx context.Context, id string) error
}

// DocumentIngestor defines the interface for running a document through
// extraction, chunking and indexing
type DocumentIngestor interface {
	IngestDocument(ctx context.Context, documentID string) (*service.IngestResult, error)
}

// DocumentStatusUpdater marks a document failed once its job is out of retries
type DocumentStatusUpdater interface {
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus) error
}

// IngestWorker processes ingest jobs
type IngestWorker struct {
	queue    IngestJobQueue
	ingestor DocumentIngestor
	docs     DocumentStatusUpdater
}

// NewIngestWorker creates a new IngestWorker instance
func NewIngestWorker(queue IngestJobQueue, ingestor DocumentIngestor, docs DocumentStatusUpdater) *IngestWorker {
	return &IngestWorker{
		queue:    queue,
		ingestor: ingestor,
		docs:     docs,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *IngestWorker) ProcessJobs(ctx context.Context) error {
	jobs, err := w.queue.ClaimPending(ctx, ClaimBatchSize)
	if err != nil {
		return fmt.Errorf("failed to claim pending jobs: %w", err)
	}

	if len(jobs) == 0 {
		return nil
	}

	log.Printf("Processing %d pending ingest jobs", len(jobs))

	for _, job := range jobs {
		if err := w.processJob(ctx, job); err != nil {
			log.Printf("Error processing job %s: %v", job.ID, err)
		}
	}

	return nil
}

func (w *IngestWorker) processJob(ctx context.Context, job *domain.IngestJob) error {
	log.Printf("Processing job %s for document %s", job.ID, job.DocumentID)

	result, err := w.ingestor.IngestDocument(ctx, job.DocumentID)
	if err != nil {
		return w.handleJobFailure(ctx, job, err)
	}

	if err := w.queue.UpdateStatus(ctx, job.ID, domain.IngestJobStatusCompleted, ""); err != nil {
		return fmt.Errorf("failed to update job status to completed: %w", err)
	}

	log.Printf("Job %s completed: %d chunks indexed for document %s", job.ID, result.ChunksAdded, job.DocumentID)
	return nil
}

// handleJobFailure handles a failed job with retry logic
func (w *IngestWorker) handleJobFailure(ctx context.Context, job *domain.IngestJob, jobErr error) error {
	log.Printf("Job %s failed: %v", job.ID, jobErr)

	if err := w.queue.IncrementRetries(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to increment retries: %w", err)
	}

	if job.Retries+1 >= MaxRetries {
		log.Printf("Job %s exceeded max retries (%d), marking as failed", job.ID, MaxRetries)
		errMsg := fmt.Sprintf("max retries exceeded: %v", jobErr)
		if err := w.queue.UpdateStatus(ctx, job.ID, domain.IngestJobStatusFailed, errMsg); err != nil {
			return fmt.Errorf("failed to update job status to failed: %w", err)
		}
		if err := w.docs.UpdateStatus(ctx, job.DocumentID, domain.DocumentStatusFailed); err != nil {
			return fmt.Errorf("failed to mark document failed: %w", err)
		}
		return nil
	}

	log.Printf("Job %s will be retried (attempt %d/%d)", job.ID, job.Retries+1, MaxRetries)
	errMsg := fmt.Sprintf("retry %d: %v", job.Retries+1, jobErr)
	if err := w.queue.UpdateStatus(ctx, job.ID, domain.IngestJobStatusPending, errMsg); err != nil {
		return fmt.Errorf("failed to reset job status to pending: %w", err)
	}

	return nil
}
