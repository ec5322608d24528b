package tasks

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"songvault/internal/models"
	"songvault/internal/shared"
)

// queueJob is one pending enrichment for a freshly created song.
type queueJob struct {
	song       *models.Song
	enrichment Enrichment
}

// Queue runs enrichment jobs on a single background worker with a bounded
// buffer.
//
// The record-creation path submits a job fire-and-forget; when the buffer is
// full the job is dropped rather than blocking the request, since the sweep
// will pick the record up later. Failed jobs are retried with exponential
// backoff; a no-match outcome is terminal and never retried.
type Queue struct {
	jobs    chan queueJob
	timeout time.Duration
	retries int
	backoff time.Duration
	logger  *log.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewQueue creates a Queue with the given buffer size and per-attempt
// timeout.
func NewQueue(size int, timeout time.Duration, logger *log.Logger) *Queue {
	if size <= 0 {
		size = 64
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = shared.NewLogger(os.Stderr)
	}

	return &Queue{
		jobs:    make(chan queueJob, size),
		timeout: timeout,
		retries: 2,
		backoff: time.Second,
		logger:  logger,
	}
}

// Start launches the worker. The worker exits when ctx is cancelled or the
// queue is closed.
func (q *Queue) Start(ctx context.Context) {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case job, ok := <-q.jobs:
				if !ok {
					return
				}
				q.process(ctx, job)
			}
		}
	}()
}

// Submit enqueues one enrichment job without blocking. Returns false when the
// buffer is full or the queue is closed.
func (q *Queue) Submit(song *models.Song, enrichment Enrichment) bool {
	if song == nil || enrichment == nil {
		return false
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	select {
	case q.jobs <- queueJob{song: song, enrichment: enrichment}:
		return true
	default:
		q.logger.Warn("enrichment queue full, dropping job", "kind", enrichment.Kind(), "song", song.Name())
		return false
	}
}

// Close stops accepting jobs, drains the buffer, and waits for the worker to
// finish.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
}

// process runs one job with retries.
func (q *Queue) process(ctx context.Context, job queueJob) {
	if !job.enrichment.Missing(job.song) {
		return
	}

	delay := q.backoff

	for attempt := 0; attempt <= q.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			delay *= 2
		}

		err := q.attempt(ctx, job)
		if err == nil {
			q.logger.Info("enriched on create", "kind", job.enrichment.Kind(), "song", job.song.Name())
			return
		}

		if ctx.Err() != nil {
			return
		}

		if errors.Is(err, shared.ErrNoMatch) {
			q.logger.Info("no match on create", "kind", job.enrichment.Kind(), "song", job.song.Name())
			return
		}

		q.logger.Warn("enrichment attempt failed", "kind", job.enrichment.Kind(), "song", job.song.Name(), "attempt", attempt+1, "error", err)
	}
}

func (q *Queue) attempt(ctx context.Context, job queueJob) error {
	rctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	return job.enrichment.Enrich(rctx, job.song)
}
