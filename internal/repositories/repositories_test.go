package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"songvault/internal/models"
	"songvault/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func createSong(t *testing.T, repo *SongRepository, userID, name, artist string) *models.Song {
	t.Helper()

	song := models.NewSong(0, userID, name, artist, "")
	if err := repo.Create(song); err != nil {
		t.Fatalf("failed to create song: %v", err)
	}
	return song
}

func TestSongRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		song := models.NewSong(0, "user-1", "Everlong", "Foo Fighters", "drop d")

		if err := repo.Create(song); err != nil {
			t.Fatalf("failed to create song: %v", err)
		}

		if song.ID() == "" {
			t.Error("song ID should be set after creation")
		}
	})

	t.Run("CreateValidates", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		song := models.NewSong(0, "user-1", "", "Foo Fighters", "")

		if err := repo.Create(song); err == nil {
			t.Error("expected validation error for empty name")
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		song := createSong(t, repo, "user-1", "Everlong", "Foo Fighters")

		retrieved, err := repo.Get(song.ID())
		if err != nil {
			t.Fatalf("failed to get song: %v", err)
		}

		if retrieved.Name() != "Everlong" {
			t.Errorf("expected name Everlong, got %s", retrieved.Name())
		}

		if retrieved.Artist() != "Foo Fighters" {
			t.Errorf("expected artist Foo Fighters, got %s", retrieved.Artist())
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)

		_, err := repo.Get("no-such-id")
		if !errors.Is(err, shared.ErrSongNotFound) {
			t.Errorf("expected ErrSongNotFound, got %v", err)
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		song := createSong(t, repo, "user-1", "Everlong", "Foo Fighters")

		song.SetTuning("standard")
		song.SetDurationMS(250000)
		if err := repo.Update(song); err != nil {
			t.Fatalf("failed to update song: %v", err)
		}

		retrieved, err := repo.Get(song.ID())
		if err != nil {
			t.Fatalf("failed to get song: %v", err)
		}

		if retrieved.Tuning() != "standard" {
			t.Errorf("expected tuning standard, got %s", retrieved.Tuning())
		}

		if retrieved.DurationMS() != 250000 {
			t.Errorf("expected duration 250000, got %d", retrieved.DurationMS())
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		song := createSong(t, repo, "user-1", "Everlong", "Foo Fighters")

		if err := repo.Delete(song.ID()); err != nil {
			t.Fatalf("failed to delete song: %v", err)
		}

		if _, err := repo.Get(song.ID()); !errors.Is(err, shared.ErrSongNotFound) {
			t.Errorf("expected ErrSongNotFound after delete, got %v", err)
		}

		if err := repo.Delete(song.ID()); !errors.Is(err, shared.ErrSongNotFound) {
			t.Errorf("expected ErrSongNotFound on double delete, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		createSong(t, repo, "user-1", "Everlong", "Foo Fighters")
		createSong(t, repo, "user-1", "My Hero", "Foo Fighters")
		createSong(t, repo, "user-2", "Creep", "Radiohead")

		songs, err := repo.List(map[string]any{"user_id": "user-1"})
		if err != nil {
			t.Fatalf("failed to list songs: %v", err)
		}

		if len(songs) != 2 {
			t.Errorf("expected 2 songs for user-1, got %d", len(songs))
		}
	})

	t.Run("ListSearch", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		createSong(t, repo, "user-1", "Everlong", "Foo Fighters")
		createSong(t, repo, "user-1", "Creep", "Radiohead")

		songs, err := repo.List(map[string]any{"user_id": "user-1", "q": "radio"})
		if err != nil {
			t.Fatalf("failed to list songs: %v", err)
		}

		if len(songs) != 1 || songs[0].Artist() != "Radiohead" {
			t.Errorf("expected the Radiohead song, got %d results", len(songs))
		}
	})

	t.Run("ListSort", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		createSong(t, repo, "user-1", "My Hero", "Foo Fighters")
		createSong(t, repo, "user-1", "Creep", "Radiohead")

		songs, err := repo.List(map[string]any{"sort_by": "name", "sort_dir": "asc"})
		if err != nil {
			t.Fatalf("failed to list songs: %v", err)
		}

		if len(songs) != 2 || songs[0].Name() != "Creep" {
			t.Errorf("expected Creep first when sorting by name asc")
		}
	})

	t.Run("Setters", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		song := createSong(t, repo, "user-1", "Everlong", "Foo Fighters")

		if err := repo.SetImageURL(song.ID(), "https://example.com/art/1000x1000bb.jpg"); err != nil {
			t.Fatalf("failed to set image url: %v", err)
		}

		if err := repo.SetSpotifyID(song.ID(), "5UWwZ5lm5PKu6eKsHAGxOk"); err != nil {
			t.Fatalf("failed to set spotify id: %v", err)
		}

		if err := repo.SetDurationMS(song.ID(), 250546); err != nil {
			t.Fatalf("failed to set duration: %v", err)
		}

		retrieved, err := repo.Get(song.ID())
		if err != nil {
			t.Fatalf("failed to get song: %v", err)
		}

		if retrieved.MissingCover() || retrieved.MissingSpotifyID() || retrieved.MissingDuration() {
			t.Errorf("song should have no missing fields, got cover=%v spotify=%v duration=%v",
				retrieved.MissingCover(), retrieved.MissingSpotifyID(), retrieved.MissingDuration())
		}

		if err := repo.SetImageURL("no-such-id", "x"); !errors.Is(err, shared.ErrSongNotFound) {
			t.Errorf("expected ErrSongNotFound for missing song, got %v", err)
		}
	})
}

func TestSongRepositorySelectPage(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewSongRepository(db)

	// Duplicate created_at values force the id tiebreaker to carry the order.
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ids := []string{}
	for i := 0; i < 5; i++ {
		song := createSong(t, repo, "user-1", "Song", "Artist")
		ts := base
		if i >= 2 {
			ts = base.Add(time.Minute)
		}
		if _, err := db.Exec(`UPDATE songs SET created_at = ? WHERE id = ?`, ts, song.ID()); err != nil {
			t.Fatalf("failed to pin created_at: %v", err)
		}
		ids = append(ids, song.ID())
	}

	seen := map[string]int{}
	cursor := Cursor{}
	pages := 0

	for {
		page, err := repo.SelectPage(cursor, 2)
		if err != nil {
			t.Fatalf("failed to select page: %v", err)
		}
		if len(page) == 0 {
			break
		}

		pages++
		if pages > 10 {
			t.Fatal("pagination did not terminate")
		}

		for _, song := range page {
			seen[song.ID()]++
		}

		last := page[len(page)-1]
		cursor = Cursor{CreatedAt: last.CreatedAt(), ID: last.ID()}
	}

	if len(seen) != len(ids) {
		t.Errorf("expected %d distinct songs, got %d", len(ids), len(seen))
	}

	for id, count := range seen {
		if count != 1 {
			t.Errorf("song %s visited %d times, want exactly once", id, count)
		}
	}
}

func TestPlaylistRepository(t *testing.T) {
	t.Run("CreateAndGet", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlaylistRepository(db)
		playlist := models.NewPlaylist(0, "user-1", "Practice Set", "songs to learn")

		if err := repo.Create(playlist); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		retrieved, err := repo.Get(playlist.ID())
		if err != nil {
			t.Fatalf("failed to get playlist: %v", err)
		}

		if retrieved.Name() != "Practice Set" {
			t.Errorf("expected name Practice Set, got %s", retrieved.Name())
		}

		if retrieved.IsPublic() {
			t.Error("new playlist should be private")
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlaylistRepository(db)
		playlist := models.NewPlaylist(0, "user-1", "Practice Set", "")

		if err := repo.Create(playlist); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		playlist.SetName("Gig Set")
		if err := repo.Update(playlist); err != nil {
			t.Fatalf("failed to update playlist: %v", err)
		}

		retrieved, err := repo.Get(playlist.ID())
		if err != nil {
			t.Fatalf("failed to get playlist: %v", err)
		}

		if retrieved.Name() != "Gig Set" {
			t.Errorf("expected name Gig Set, got %s", retrieved.Name())
		}
	})

	t.Run("Membership", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		songs := NewSongRepository(db)
		playlists := NewPlaylistRepository(db)

		playlist := models.NewPlaylist(0, "user-1", "Practice Set", "")
		if err := playlists.Create(playlist); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		first := createSong(t, songs, "user-1", "Everlong", "Foo Fighters")
		second := createSong(t, songs, "user-1", "My Hero", "Foo Fighters")

		if err := playlists.AddSong(playlist.ID(), first.ID()); err != nil {
			t.Fatalf("failed to add song: %v", err)
		}
		if err := playlists.AddSong(playlist.ID(), second.ID()); err != nil {
			t.Fatalf("failed to add song: %v", err)
		}

		// Re-adding is a no-op, not an error.
		if err := playlists.AddSong(playlist.ID(), first.ID()); err != nil {
			t.Fatalf("re-adding song should be a no-op: %v", err)
		}

		members, err := songs.ListByPlaylist(playlist.ID())
		if err != nil {
			t.Fatalf("failed to list playlist songs: %v", err)
		}

		if len(members) != 2 {
			t.Fatalf("expected 2 songs in playlist, got %d", len(members))
		}

		if err := playlists.RemoveSong(playlist.ID(), first.ID()); err != nil {
			t.Fatalf("failed to remove song: %v", err)
		}

		members, err = songs.ListByPlaylist(playlist.ID())
		if err != nil {
			t.Fatalf("failed to list playlist songs: %v", err)
		}

		if len(members) != 1 || members[0].ID() != second.ID() {
			t.Errorf("expected only the second song to remain")
		}

		if err := playlists.AddSong("no-such-id", first.ID()); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound for missing playlist, got %v", err)
		}
	})

	t.Run("Sharing", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlaylistRepository(db)
		playlist := models.NewPlaylist(0, "user-1", "Practice Set", "")

		if err := repo.Create(playlist); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		token, err := repo.EnableShare(playlist.ID())
		if err != nil {
			t.Fatalf("failed to enable sharing: %v", err)
		}
		if token == "" {
			t.Fatal("expected a share token")
		}

		again, err := repo.EnableShare(playlist.ID())
		if err != nil {
			t.Fatalf("failed to re-enable sharing: %v", err)
		}
		if again != token {
			t.Errorf("share token should be stable, got %s then %s", token, again)
		}

		fetched, err := repo.GetByShareToken(token)
		if err != nil {
			t.Fatalf("failed to get playlist by token: %v", err)
		}
		if fetched.ID() != playlist.ID() {
			t.Errorf("expected playlist %s, got %s", playlist.ID(), fetched.ID())
		}

		if err := repo.DisableShare(playlist.ID()); err != nil {
			t.Fatalf("failed to disable sharing: %v", err)
		}

		if _, err := repo.GetByShareToken(token); !errors.Is(err, shared.ErrNotShared) {
			t.Errorf("expected ErrNotShared after disabling, got %v", err)
		}
	})

	t.Run("DeleteClearsMembership", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		songs := NewSongRepository(db)
		playlists := NewPlaylistRepository(db)

		playlist := models.NewPlaylist(0, "user-1", "Practice Set", "")
		if err := playlists.Create(playlist); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		song := createSong(t, songs, "user-1", "Everlong", "Foo Fighters")
		if err := playlists.AddSong(playlist.ID(), song.ID()); err != nil {
			t.Fatalf("failed to add song: %v", err)
		}

		if err := playlists.Delete(playlist.ID()); err != nil {
			t.Fatalf("failed to delete playlist: %v", err)
		}

		if _, err := playlists.Get(playlist.ID()); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound after delete, got %v", err)
		}

		var count int
		if err := db.QueryRow(`SELECT COUNT(*) FROM playlist_songs WHERE playlist_id = ?`, playlist.ID()).Scan(&count); err != nil {
			t.Fatalf("failed to count membership rows: %v", err)
		}
		if count != 0 {
			t.Errorf("expected membership rows to be cleared, found %d", count)
		}
	})
}
