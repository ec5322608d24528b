package repositories

import (
	"database/sql"
	"fmt"
	"time"
)

// NextSequence atomically increments and returns the next sequence number for the given table.
//
// Sequence numbers provide human-readable ordering for entities (e.g., song #42, playlist #15).
// They are NOT exposed in API output but used internally for sorting and debugging.
func NextSequence(db *sql.DB, table string) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequenceTable := table + "_sequence"

	_, err = tx.Exec(fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1", sequenceTable))
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var sequence int
	err = tx.QueryRow(fmt.Sprintf("SELECT value FROM %s WHERE id = 1", sequenceTable)).Scan(&sequence)
	if err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sequence transaction: %w", err)
	}

	return sequence, nil
}

// Cursor is a keyset pagination position over the stable (created_at ASC, id ASC)
// total order. The zero value means "start from the beginning".
//
// Keyset cursors resume from the last seen row rather than a row offset, so a
// sweep never skips or repeats rows even when created_at has duplicates or
// rows are inserted concurrently.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// Zero reports whether the cursor is at the initial position.
func (c Cursor) Zero() bool {
	return c.ID == "" && c.CreatedAt.IsZero()
}

// nullable maps an empty string to NULL for insertion.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullableInt maps a non-positive value to NULL for insertion.
func nullableInt(n int) any {
	if n <= 0 {
		return nil
	}
	return n
}
