package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"songvault/internal/models"
	"songvault/internal/shared"
)

const playlistColumns = "id, sequence, user_id, name, description, is_public, share_token, created_at, updated_at, deleted_at"

// PlaylistRepository implements models.Repository[*models.Playlist] plus
// membership and share-link operations.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Create inserts a new [models.Playlist] into the database with generated ID and sequence
func (r *PlaylistRepository) Create(playlist *models.Playlist) error {
	sequence, err := NextSequence(r.db, "playlists")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	playlist.SetID(id)

	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO playlists (id, sequence, user_id, name, description, is_public, share_token, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		playlist.UserID(),
		playlist.Name(),
		nullable(playlist.Description()),
		playlist.IsPublic(),
		nullable(playlist.ShareToken()),
		playlist.CreatedAt(),
		playlist.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}

	return nil
}

// Get retrieves a playlist by ID, excluding soft-deleted playlists
func (r *PlaylistRepository) Get(id string) (*models.Playlist, error) {
	query := fmt.Sprintf(`SELECT %s FROM playlists WHERE id = ? AND deleted_at IS NULL`, playlistColumns)
	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByShareToken retrieves a playlist by its share token. Playlists whose
// sharing has been disabled are not reachable this way even if a stale token
// is presented.
func (r *PlaylistRepository) GetByShareToken(token string) (*models.Playlist, error) {
	if token == "" {
		return nil, shared.ErrNotShared
	}

	query := fmt.Sprintf(`
		SELECT %s FROM playlists
		WHERE share_token = ? AND is_public = 1 AND deleted_at IS NULL
	`, playlistColumns)

	playlist, err := r.scanOne(r.db.QueryRow(query, token))
	if err == shared.ErrPlaylistNotFound {
		return nil, shared.ErrNotShared
	}
	return playlist, err
}

// Update modifies an existing playlist's name and description
func (r *PlaylistRepository) Update(playlist *models.Playlist) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	playlist.SetUpdatedAt(now)

	query := `
		UPDATE playlists
		SET name = ?, description = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		playlist.Name(),
		nullable(playlist.Description()),
		now,
		playlist.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}

	return r.requireRow(result, playlist.ID())
}

// Delete soft-deletes a playlist and removes its membership rows
func (r *PlaylistRepository) Delete(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`UPDATE playlists SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}

	if err := r.requireRow(result, id); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM playlist_songs WHERE playlist_id = ?`, id); err != nil {
		return fmt.Errorf("failed to clear playlist songs: %w", err)
	}

	return tx.Commit()
}

// List retrieves all playlists matching the given criteria, excluding
// soft-deleted playlists. Supported criteria: "user_id" (exact).
func (r *PlaylistRepository) List(criteria map[string]any) ([]*models.Playlist, error) {
	query := fmt.Sprintf(`SELECT %s FROM playlists WHERE deleted_at IS NULL`, playlistColumns)

	args := []any{}

	if userID, ok := criteria["user_id"].(string); ok && userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}

	query += " ORDER BY created_at DESC, id ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []*models.Playlist
	for rows.Next() {
		playlist, err := scanPlaylist(rows.Scan)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, playlist)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return playlists, nil
}

// AddSong attaches a song to a playlist. Adding a song twice is a no-op.
func (r *PlaylistRepository) AddSong(playlistID, songID string) error {
	if err := r.exists(playlistID); err != nil {
		return err
	}

	query := `
		INSERT INTO playlist_songs (playlist_id, song_id, added_at)
		VALUES (?, ?, ?)
		ON CONFLICT(playlist_id, song_id) DO NOTHING
	`

	if _, err := r.db.Exec(query, playlistID, songID, time.Now()); err != nil {
		return fmt.Errorf("failed to add song to playlist: %w", err)
	}

	return nil
}

// RemoveSong detaches a song from a playlist. Removing an absent song is a no-op.
func (r *PlaylistRepository) RemoveSong(playlistID, songID string) error {
	if err := r.exists(playlistID); err != nil {
		return err
	}

	if _, err := r.db.Exec(`DELETE FROM playlist_songs WHERE playlist_id = ? AND song_id = ?`, playlistID, songID); err != nil {
		return fmt.Errorf("failed to remove song from playlist: %w", err)
	}

	return nil
}

// EnableShare marks a playlist public and assigns it a share token. An
// existing token is kept stable across repeated calls.
func (r *PlaylistRepository) EnableShare(id string) (string, error) {
	playlist, err := r.Get(id)
	if err != nil {
		return "", err
	}

	token := playlist.ShareToken()
	if token == "" {
		token = shared.GenerateID()
	}

	query := `
		UPDATE playlists
		SET is_public = 1, share_token = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, token, time.Now(), id)
	if err != nil {
		return "", fmt.Errorf("failed to enable sharing: %w", err)
	}

	if err := r.requireRow(result, id); err != nil {
		return "", err
	}

	return token, nil
}

// DisableShare marks a playlist private and clears its share token.
func (r *PlaylistRepository) DisableShare(id string) error {
	query := `
		UPDATE playlists
		SET is_public = 0, share_token = NULL, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to disable sharing: %w", err)
	}

	return r.requireRow(result, id)
}

// exists checks that a playlist is present and not soft-deleted.
func (r *PlaylistRepository) exists(id string) error {
	var found string
	err := r.db.QueryRow(`SELECT id FROM playlists WHERE id = ? AND deleted_at IS NULL`, id).Scan(&found)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to check playlist: %w", err)
	}
	return nil
}

func (r *PlaylistRepository) requireRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}
	return nil
}

func (r *PlaylistRepository) scanOne(row *sql.Row) (*models.Playlist, error) {
	playlist, err := scanPlaylist(row.Scan)
	if err == sql.ErrNoRows {
		return nil, shared.ErrPlaylistNotFound
	}
	if err != nil {
		return nil, err
	}
	return playlist, nil
}

// scanPlaylist reads one playlist row through the given scan function.
func scanPlaylist(scan func(...any) error) (*models.Playlist, error) {
	var (
		id          string
		sequence    int
		userID      string
		name        string
		description sql.NullString
		isPublic    bool
		shareToken  sql.NullString
		createdAt   time.Time
		updatedAt   time.Time
		deletedAt   sql.NullTime
	)

	err := scan(&id, &sequence, &userID, &name, &description, &isPublic, &shareToken, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}

	playlist := models.NewPlaylist(sequence, userID, name, description.String)
	playlist.SetID(id)
	playlist.SetShare(isPublic, shareToken.String)
	playlist.SetCreatedAt(createdAt)
	playlist.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		playlist.SetDeletedAt(&deletedAt.Time)
	}

	return playlist, nil
}
