package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"songvault/internal/models"
	"songvault/internal/shared"
)

const songColumns = "id, sequence, user_id, name, artist, tuning, spotify_id, image_url, duration_ms, created_at, updated_at, deleted_at"

// SongRepository implements models.Repository[*models.Song].
//
// Beyond CRUD it provides keyset pagination for enrichment sweeps and
// single-column updates for each enrichment field, so a sweep writes exactly
// the field it resolved and nothing else.
type SongRepository struct {
	db *sql.DB
}

// NewSongRepository creates a new SongRepository with the given database connection
func NewSongRepository(db *sql.DB) *SongRepository {
	return &SongRepository{db: db}
}

// Create inserts a new [models.Song] into the database with generated ID and sequence
func (r *SongRepository) Create(song *models.Song) error {
	sequence, err := NextSequence(r.db, "songs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	song.SetID(id)

	if err := song.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO songs (id, sequence, user_id, name, artist, tuning, spotify_id, image_url, duration_ms, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		song.UserID(),
		song.Name(),
		song.Artist(),
		nullable(song.Tuning()),
		nullable(song.SpotifyID()),
		nullable(song.ImageURL()),
		nullableInt(song.DurationMS()),
		song.CreatedAt(),
		song.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert song: %w", err)
	}

	return nil
}

// Get retrieves a song by ID, excluding soft-deleted songs
func (r *SongRepository) Get(id string) (*models.Song, error) {
	query := fmt.Sprintf(`SELECT %s FROM songs WHERE id = ? AND deleted_at IS NULL`, songColumns)
	return r.scanOne(r.db.QueryRow(query, id))
}

// Update modifies an existing song's user-entered and enrichment fields
func (r *SongRepository) Update(song *models.Song) error {
	if err := song.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	song.SetUpdatedAt(now)

	query := `
		UPDATE songs
		SET name = ?, artist = ?, tuning = ?, spotify_id = ?, image_url = ?, duration_ms = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		song.Name(),
		song.Artist(),
		nullable(song.Tuning()),
		nullable(song.SpotifyID()),
		nullable(song.ImageURL()),
		nullableInt(song.DurationMS()),
		now,
		song.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update song: %w", err)
	}

	return r.requireRow(result, song.ID())
}

// Delete soft-deletes a song by ID
func (r *SongRepository) Delete(id string) error {
	query := `
		UPDATE songs
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete song: %w", err)
	}

	return r.requireRow(result, id)
}

// List retrieves all songs matching the given criteria, excluding soft-deleted songs.
//
// Supported criteria: "user_id" (exact), "q" (substring over name, artist,
// tuning), "sort_by" (name, artist, tuning, created_at) and "sort_dir"
// (asc, desc). Default order is newest first.
func (r *SongRepository) List(criteria map[string]any) ([]*models.Song, error) {
	query := fmt.Sprintf(`SELECT %s FROM songs WHERE deleted_at IS NULL`, songColumns)

	args := []any{}

	if userID, ok := criteria["user_id"].(string); ok && userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}

	if q, ok := criteria["q"].(string); ok && q != "" {
		like := "%" + q + "%"
		query += " AND (name LIKE ? OR artist LIKE ? OR COALESCE(tuning, '') LIKE ?)"
		args = append(args, like, like, like)
	}

	sortBy := "created_at"
	if s, ok := criteria["sort_by"].(string); ok {
		switch s {
		case "name", "artist", "tuning", "created_at":
			sortBy = s
		}
	}

	sortDir := "DESC"
	if d, ok := criteria["sort_dir"].(string); ok && d == "asc" {
		sortDir = "ASC"
	}

	query += fmt.Sprintf(" ORDER BY %s %s, id ASC", sortBy, sortDir)

	return r.queryMany(query, args...)
}

// ListByPlaylist retrieves the songs belonging to a playlist in insertion order.
func (r *SongRepository) ListByPlaylist(playlistID string) ([]*models.Song, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM songs s
		JOIN playlist_songs ps ON ps.song_id = s.id
		WHERE ps.playlist_id = ? AND s.deleted_at IS NULL
		ORDER BY ps.added_at ASC, s.id ASC
	`, prefixedSongColumns("s"))

	return r.queryMany(query, playlistID)
}

// SelectPage returns the next page of songs after the cursor in the stable
// (created_at ASC, id ASC) order. An empty page means the sweep is done.
func (r *SongRepository) SelectPage(cursor Cursor, pageSize int) ([]*models.Song, error) {
	if pageSize <= 0 {
		pageSize = 200
	}

	query := fmt.Sprintf(`SELECT %s FROM songs WHERE deleted_at IS NULL`, songColumns)
	args := []any{}

	if !cursor.Zero() {
		query += " AND (created_at > ? OR (created_at = ? AND id > ?))"
		args = append(args, cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	query += " ORDER BY created_at ASC, id ASC LIMIT ?"
	args = append(args, pageSize)

	return r.queryMany(query, args...)
}

// SetImageURL writes the cover art URL for a single song.
func (r *SongRepository) SetImageURL(id, imageURL string) error {
	return r.setColumn(id, "image_url", nullable(imageURL))
}

// SetSpotifyID writes the Spotify track id for a single song.
func (r *SongRepository) SetSpotifyID(id, spotifyID string) error {
	return r.setColumn(id, "spotify_id", nullable(spotifyID))
}

// SetDurationMS writes the duration for a single song.
func (r *SongRepository) SetDurationMS(id string, durationMS int) error {
	return r.setColumn(id, "duration_ms", nullableInt(durationMS))
}

// setColumn updates one enrichment column keyed by primary id.
func (r *SongRepository) setColumn(id, column string, value any) error {
	query := fmt.Sprintf(`UPDATE songs SET %s = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`, column)

	result, err := r.db.Exec(query, value, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update song %s: %w", column, err)
	}

	return r.requireRow(result, id)
}

// requireRow converts a zero-row update into a not-found error.
func (r *SongRepository) requireRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrSongNotFound, id)
	}
	return nil
}

func (r *SongRepository) queryMany(query string, args ...any) ([]*models.Song, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	var songs []*models.Song
	for rows.Next() {
		song, err := scanSong(rows.Scan)
		if err != nil {
			return nil, err
		}
		songs = append(songs, song)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return songs, nil
}

func (r *SongRepository) scanOne(row *sql.Row) (*models.Song, error) {
	song, err := scanSong(row.Scan)
	if err == sql.ErrNoRows {
		return nil, shared.ErrSongNotFound
	}
	if err != nil {
		return nil, err
	}
	return song, nil
}

// scanSong reads one song row through the given scan function.
func scanSong(scan func(...any) error) (*models.Song, error) {
	var (
		id         string
		sequence   int
		userID     string
		name       string
		artist     string
		tuning     sql.NullString
		spotifyID  sql.NullString
		imageURL   sql.NullString
		durationMS sql.NullInt64
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := scan(&id, &sequence, &userID, &name, &artist, &tuning, &spotifyID, &imageURL, &durationMS, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan song: %w", err)
	}

	song := models.NewSong(sequence, userID, name, artist, tuning.String)
	song.SetID(id)
	song.SetSpotifyID(spotifyID.String)
	song.SetImageURL(imageURL.String)
	song.SetDurationMS(int(durationMS.Int64))
	song.SetCreatedAt(createdAt)
	song.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		song.SetDeletedAt(&deletedAt.Time)
	}

	return song, nil
}

// prefixedSongColumns qualifies the song column list with a table alias.
func prefixedSongColumns(alias string) string {
	return fmt.Sprintf(
		"%s.id, %s.sequence, %s.user_id, %s.name, %s.artist, %s.tuning, %s.spotify_id, %s.image_url, %s.duration_ms, %s.created_at, %s.updated_at, %s.deleted_at",
		alias, alias, alias, alias, alias, alias, alias, alias, alias, alias, alias, alias,
	)
}
