package tasks

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"songvault/internal/models"
	"songvault/internal/repositories"
	"songvault/internal/shared"
)

// SweepCounters accumulates the aggregate outcome of one sweep run. Every
// scanned-and-missing record contributes to exactly one of Updated or
// Failures.
type SweepCounters struct {
	Scanned  int // Records visited
	Missing  int // Records whose target field was absent
	Updated  int // Records successfully enriched and persisted
	Failures int // Records where enrichment errored, timed out, or found no match
}

// SweepStore is the persistence surface the sweep pages through.
type SweepStore interface {
	// SelectPage returns the next page of records after the cursor in
	// (created_at ASC, id ASC) order. An empty page ends the sweep.
	SelectPage(cursor repositories.Cursor, pageSize int) ([]*models.Song, error)
}

// Enrichment fills one missing field on a song record.
//
// Missing decides whether the record needs this enrichment at all; Enrich
// resolves the value against an external catalog and persists it. Enrich
// returns [shared.ErrNoMatch] when no confident candidate was found.
type Enrichment interface {
	Kind() string
	Missing(song *models.Song) bool
	Enrich(ctx context.Context, song *models.Song) error
}

// SweepEngine walks the whole song collection once and applies an enrichment
// to every record still missing its target field.
//
// Processing is strictly sequential: one record at a time, each enrichment
// call fully awaited before the next. This is a deliberate throttle against
// third-party rate limits, enforced twice over by the limiter between
// records.
type SweepEngine struct {
	store    SweepStore
	pageSize int
	timeout  time.Duration
	limiter  *rate.Limiter
	logger   *log.Logger
}

// NewSweepEngine creates a SweepEngine over the given store with the given
// backfill tuning. Zero config fields fall back to the defaults in
// [shared.DefaultConfig].
func NewSweepEngine(store SweepStore, config shared.BackfillConfig, logger *log.Logger) *SweepEngine {
	if config.PageSize <= 0 {
		config.PageSize = 200
	}
	if config.TimeoutSeconds <= 0 {
		config.TimeoutSeconds = 15
	}
	if config.RatePerSecond <= 0 {
		config.RatePerSecond = 5
	}
	if logger == nil {
		logger = shared.NewLogger(os.Stderr)
	}

	return &SweepEngine{
		store:    store,
		pageSize: config.PageSize,
		timeout:  time.Duration(config.TimeoutSeconds) * time.Second,
		limiter:  rate.NewLimiter(rate.Limit(config.RatePerSecond), 1),
		logger:   logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *SweepEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// Run executes one full sweep for the given enrichment and returns the final
// counters.
//
// A single record's failure never aborts the sweep; only a store error or
// cancellation of ctx is fatal, and even then the counters accumulated so
// far are returned. The cursor is not persisted across runs — a re-run
// restarts from the top and skips already-enriched records via
// [Enrichment.Missing].
func (e *SweepEngine) Run(ctx context.Context, enrichment Enrichment, progress chan<- ProgressUpdate) (SweepCounters, error) {
	counters := SweepCounters{}

	if e.store == nil {
		return counters, fmt.Errorf("%w: sweep store not initialized", shared.ErrInvalidConfig)
	}
	if enrichment == nil {
		return counters, fmt.Errorf("%w: enrichment not initialized", shared.ErrInvalidConfig)
	}

	cursor := repositories.Cursor{}
	page := 0

	for {
		if err := ctx.Err(); err != nil {
			return counters, err
		}

		page++
		e.sendProgress(progress, fetchPageUpdate(page, e.pageSize))

		songs, err := e.store.SelectPage(cursor, e.pageSize)
		if err != nil {
			return counters, fmt.Errorf("failed to fetch page %d: %w", page, err)
		}

		if len(songs) == 0 {
			break
		}

		for i, song := range songs {
			counters.Scanned++

			if !enrichment.Missing(song) {
				continue
			}

			counters.Missing++

			if err := e.limiter.Wait(ctx); err != nil {
				return counters, err
			}

			if err := e.enrichOne(ctx, enrichment, song); err != nil {
				if ctx.Err() != nil {
					return counters, ctx.Err()
				}

				counters.Failures++
				e.logger.Warn("enrichment failed", "kind", enrichment.Kind(), "song", song.Name(), "artist", song.Artist(), "error", err)
				e.sendProgress(progress, recordFailedUpdate(i+1, len(songs), song, err))
				continue
			}

			counters.Updated++
			e.logger.Info("enriched", "kind", enrichment.Kind(), "song", song.Name(), "artist", song.Artist())
			e.sendProgress(progress, recordUpdatedUpdate(i+1, len(songs), song))
		}

		last := songs[len(songs)-1]
		cursor = repositories.Cursor{CreatedAt: last.CreatedAt(), ID: last.ID()}

		e.sendProgress(progress, pageSummaryUpdate(page, counters))
	}

	e.logger.Info("sweep complete", "kind", enrichment.Kind(),
		"scanned", counters.Scanned, "missing", counters.Missing,
		"updated", counters.Updated, "failures", counters.Failures)
	e.sendProgress(progress, sweepDoneUpdate(counters))

	return counters, nil
}

// enrichOne runs a single enrichment attempt under the per-record timeout.
func (e *SweepEngine) enrichOne(ctx context.Context, enrichment Enrichment, song *models.Song) error {
	rctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	return enrichment.Enrich(rctx, song)
}
