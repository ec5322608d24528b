package tasks

import (
	"fmt"

	"songvault/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchPage Phase = iota
	EnrichRecord
	PageSummary
	SweepDone
)

func (p Phase) String() string {
	switch p {
	case FetchPage:
		return "fetch_page"
	case EnrichRecord:
		return "enrich_record"
	case PageSummary:
		return "page_summary"
	case SweepDone:
		return "sweep_done"
	default:
		return ""
	}
}

func fetchPageUpdate(page, size int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPage,
		Step:    page,
		Total:   size,
		Message: fmt.Sprintf("Fetching page %d...", page),
	}
}

func recordUpdatedUpdate(step, total int, song *models.Song) ProgressUpdate {
	return ProgressUpdate{
		Phase:   EnrichRecord,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s - %s", step, total, song.Artist(), song.Name()),
		Data:    song,
	}
}

func recordFailedUpdate(step, total int, song *models.Song, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   EnrichRecord,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s - %s: %v", step, total, song.Artist(), song.Name(), err),
		Data:    song,
	}
}

func pageSummaryUpdate(page int, counters SweepCounters) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PageSummary,
		Step:    page,
		Total:   page,
		Message: fmt.Sprintf("Page %d done: %d scanned, %d missing, %d updated, %d failures", page, counters.Scanned, counters.Missing, counters.Updated, counters.Failures),
		Data:    counters,
	}
}

func sweepDoneUpdate(counters SweepCounters) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SweepDone,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Sweep complete: %d scanned, %d missing, %d updated, %d failures", counters.Scanned, counters.Missing, counters.Updated, counters.Failures),
		Data:    counters,
	}
}
