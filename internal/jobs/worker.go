package jobs

import (
	"context"
	"log"
	"time"
)

// JobProcessor drains whatever work is currently pending. One call
// per tick; the processor decides how much to claim.
type JobProcessor interface {
	ProcessJobs(ctx context.Context) error
}

// Worker polls a JobProcessor at a fixed interval until stopped.
type Worker struct {
	processor    JobProcessor
	pollInterval time.Duration
	stopChan     chan struct{}
	doneChan     chan struct{}
}

func NewWorker(processor JobProcessor, pollInterval time.Duration) *Worker {
	return &Worker{
		processor:    processor,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
}

// Start runs the polling loop. It returns when the context is
// cancelled or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	defer close(w.doneChan)

	log.Printf("ingest worker started, polling every %v", w.pollInterval)

	for {
		select {
		case <-ctx.Done():
			log.Println("ingest worker stopped: context cancelled")
			return
		case <-w.stopChan:
			log.Println("ingest worker stopped: shutdown requested")
			return
		case <-ticker.C:
			if err := w.processor.ProcessJobs(ctx); err != nil {
				log.Printf("ingest worker: processing pass failed: %v", err)
			}
		}
	}
}

// Stop signals the loop and waits for the current pass to finish.
func (w *Worker) Stop() {
	close(w.stopChan)
	<-w.doneChan
}
