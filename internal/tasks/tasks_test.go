package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"songvault/internal/catalogs"
	"songvault/internal/match"
	"songvault/internal/models"
	"songvault/internal/repositories"
	"songvault/internal/shared"
	tu "songvault/internal/testing"
)

// fakeStore pages through an in-memory slice ordered by (created_at, id).
type fakeStore struct {
	songs []*models.Song
	pages int
	err   error
}

func (s *fakeStore) SelectPage(cursor repositories.Cursor, pageSize int) ([]*models.Song, error) {
	s.pages++
	if s.err != nil {
		return nil, s.err
	}

	var page []*models.Song
	for _, song := range s.songs {
		if !cursor.Zero() {
			if song.CreatedAt().Before(cursor.CreatedAt) {
				continue
			}
			if song.CreatedAt().Equal(cursor.CreatedAt) && song.ID() <= cursor.ID {
				continue
			}
		}
		page = append(page, song)
		if len(page) == pageSize {
			break
		}
	}
	return page, nil
}

// fakeEnrichment records every song it was asked to enrich and fails for ids
// in failIDs.
type fakeEnrichment struct {
	failIDs map[string]error
	calls   []string
}

func (e *fakeEnrichment) Kind() string { return "fake" }

func (e *fakeEnrichment) Missing(song *models.Song) bool { return song.MissingCover() }

func (e *fakeEnrichment) Enrich(ctx context.Context, song *models.Song) error {
	e.calls = append(e.calls, song.ID())
	if err := ctx.Err(); err != nil {
		return err
	}
	if err, ok := e.failIDs[song.ID()]; ok {
		return err
	}
	song.SetImageURL("https://example.com/art/1000x1000bb.jpg")
	return nil
}

func makeSongs(n int) []*models.Song {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	songs := make([]*models.Song, n)
	for i := range songs {
		song := models.NewSong(i+1, "user-1", fmt.Sprintf("Song %02d", i), "Artist", "")
		song.SetID(fmt.Sprintf("id-%02d", i))
		// Duplicate timestamps in pairs so the id tiebreaker matters.
		song.SetCreatedAt(base.Add(time.Duration(i/2) * time.Minute))
		songs[i] = song
	}
	return songs
}

func fastConfig() shared.BackfillConfig {
	return shared.BackfillConfig{PageSize: 2, TimeoutSeconds: 1, RatePerSecond: 10000}
}

func TestSweepEngineRun(t *testing.T) {
	t.Run("VisitsEveryRecordOnce", func(t *testing.T) {
		songs := makeSongs(5)
		store := &fakeStore{songs: songs}
		enrichment := &fakeEnrichment{}
		engine := NewSweepEngine(store, fastConfig(), shared.NewLogger(io.Discard))

		counters, err := engine.Run(context.Background(), enrichment, nil)
		if err != nil {
			t.Fatalf("sweep failed: %v", err)
		}

		if counters.Scanned != 5 {
			t.Errorf("expected 5 scanned, got %d", counters.Scanned)
		}
		if counters.Missing != 5 || counters.Updated != 5 || counters.Failures != 0 {
			t.Errorf("unexpected counters: %+v", counters)
		}

		seen := map[string]int{}
		for _, id := range enrichment.calls {
			seen[id]++
		}
		for _, song := range songs {
			if seen[song.ID()] != 1 {
				t.Errorf("song %s enriched %d times, want exactly once", song.ID(), seen[song.ID()])
			}
		}
	})

	t.Run("SkipsFilledRecords", func(t *testing.T) {
		songs := makeSongs(4)
		songs[1].SetImageURL("https://example.com/already.jpg")
		songs[3].SetImageURL("https://example.com/already.jpg")

		store := &fakeStore{songs: songs}
		enrichment := &fakeEnrichment{}
		engine := NewSweepEngine(store, fastConfig(), shared.NewLogger(io.Discard))

		counters, err := engine.Run(context.Background(), enrichment, nil)
		if err != nil {
			t.Fatalf("sweep failed: %v", err)
		}

		if counters.Scanned != 4 || counters.Missing != 2 || counters.Updated != 2 {
			t.Errorf("unexpected counters: %+v", counters)
		}
		if len(enrichment.calls) != 2 {
			t.Errorf("expected 2 enrichment calls, got %d", len(enrichment.calls))
		}
	})

	t.Run("FailureIsolation", func(t *testing.T) {
		songs := makeSongs(4)
		store := &fakeStore{songs: songs}
		enrichment := &fakeEnrichment{failIDs: map[string]error{
			"id-01": shared.ErrNoMatch,
			"id-02": errors.New("catalog exploded"),
		}}
		engine := NewSweepEngine(store, fastConfig(), shared.NewLogger(io.Discard))

		counters, err := engine.Run(context.Background(), enrichment, nil)
		if err != nil {
			t.Fatalf("sweep should survive per-record failures: %v", err)
		}

		if counters.Updated != 2 || counters.Failures != 2 {
			t.Errorf("unexpected counters: %+v", counters)
		}
		if counters.Updated+counters.Failures != counters.Missing {
			t.Errorf("every missing record must land in updated or failures: %+v", counters)
		}
	})

	t.Run("SecondRunOnlyTouchesStillMissing", func(t *testing.T) {
		songs := makeSongs(6)
		store := &fakeStore{songs: songs}
		first := &fakeEnrichment{failIDs: map[string]error{
			"id-02": errors.New("transient"),
			"id-04": errors.New("transient"),
		}}
		engine := NewSweepEngine(store, fastConfig(), shared.NewLogger(io.Discard))

		firstRun, err := engine.Run(context.Background(), first, nil)
		if err != nil {
			t.Fatalf("first run failed: %v", err)
		}

		second := &fakeEnrichment{}
		secondRun, err := engine.Run(context.Background(), second, nil)
		if err != nil {
			t.Fatalf("second run failed: %v", err)
		}

		if len(second.calls) != 2 {
			t.Errorf("second run should only touch the 2 still-missing records, touched %d", len(second.calls))
		}
		if total := firstRun.Updated + secondRun.Updated; total > len(songs) {
			t.Errorf("updated across both runs is %d, must be at most %d", total, len(songs))
		}
	})

	t.Run("StoreErrorIsFatal", func(t *testing.T) {
		store := &fakeStore{err: errors.New("db gone")}
		engine := NewSweepEngine(store, fastConfig(), shared.NewLogger(io.Discard))

		if _, err := engine.Run(context.Background(), &fakeEnrichment{}, nil); err == nil {
			t.Error("expected store error to abort the sweep")
		}
	})

	t.Run("Cancellation", func(t *testing.T) {
		store := &fakeStore{songs: makeSongs(3)}
		engine := NewSweepEngine(store, fastConfig(), shared.NewLogger(io.Discard))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := engine.Run(ctx, &fakeEnrichment{}, nil); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("Progress", func(t *testing.T) {
		store := &fakeStore{songs: makeSongs(3)}
		engine := NewSweepEngine(store, fastConfig(), shared.NewLogger(io.Discard))

		progress := make(chan ProgressUpdate, 64)
		if _, err := engine.Run(context.Background(), &fakeEnrichment{}, progress); err != nil {
			t.Fatalf("sweep failed: %v", err)
		}
		close(progress)

		var done bool
		for update := range progress {
			if update.Phase == SweepDone {
				done = true
				counters, ok := update.Data.(SweepCounters)
				if !ok {
					t.Fatal("SweepDone update should carry counters")
				}
				if counters.Updated != 3 {
					t.Errorf("expected 3 updated in final counters, got %d", counters.Updated)
				}
			}
		}
		if !done {
			t.Error("expected a SweepDone progress update")
		}
	})
}

// memoryStore implements SongStore recording writes.
type memoryStore struct {
	imageURLs  map[string]string
	spotifyIDs map[string]string
	durations  map[string]int
	err        error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		imageURLs:  map[string]string{},
		spotifyIDs: map[string]string{},
		durations:  map[string]int{},
	}
}

func (s *memoryStore) SetImageURL(id, imageURL string) error {
	if s.err != nil {
		return s.err
	}
	s.imageURLs[id] = imageURL
	return nil
}

func (s *memoryStore) SetSpotifyID(id, spotifyID string) error {
	if s.err != nil {
		return s.err
	}
	s.spotifyIDs[id] = spotifyID
	return nil
}

func (s *memoryStore) SetDurationMS(id string, durationMS int) error {
	if s.err != nil {
		return s.err
	}
	s.durations[id] = durationMS
	return nil
}

func TestCoverEnrichment(t *testing.T) {
	t.Run("UpgradesArtwork", func(t *testing.T) {
		catalog := &tu.MockCatalog{Default: []match.Candidate{
			{Name: "Yesterday", Artist: "The Beatles", ArtworkURL: "https://example.com/art/100x100bb.jpg"},
		}}
		store := newMemoryStore()
		enrichment := NewCoverEnrichment(catalog, store)

		song := models.NewSong(1, "user-1", "Yesterday", "The Beatles", "")
		song.SetID("song-1")

		if err := enrichment.Enrich(context.Background(), song); err != nil {
			t.Fatalf("enrich failed: %v", err)
		}

		want := "https://example.com/art/1000x1000bb.jpg"
		if store.imageURLs["song-1"] != want {
			t.Errorf("expected %s, got %s", want, store.imageURLs["song-1"])
		}
		if song.ImageURL() != want {
			t.Errorf("song should carry the new artwork, got %s", song.ImageURL())
		}
	})

	t.Run("NoMatch", func(t *testing.T) {
		catalog := &tu.MockCatalog{Default: []match.Candidate{
			{Name: "Karaoke Yesterday", Artist: "Karaoke Band", ArtworkURL: "https://example.com/art/100x100bb.jpg"},
		}}
		store := newMemoryStore()
		enrichment := NewCoverEnrichment(catalog, store)

		song := models.NewSong(1, "user-1", "Yesterday", "The Beatles", "")
		song.SetID("song-1")

		if err := enrichment.Enrich(context.Background(), song); !errors.Is(err, shared.ErrNoMatch) {
			t.Errorf("expected ErrNoMatch, got %v", err)
		}
		if len(store.imageURLs) != 0 {
			t.Error("no match must write nothing")
		}
	})

	t.Run("PersistFailure", func(t *testing.T) {
		catalog := &tu.MockCatalog{Default: []match.Candidate{
			{Name: "Yesterday", Artist: "The Beatles", ArtworkURL: "https://example.com/art/100x100bb.jpg"},
		}}
		store := newMemoryStore()
		store.err = errors.New("db gone")
		enrichment := NewCoverEnrichment(catalog, store)

		song := models.NewSong(1, "user-1", "Yesterday", "The Beatles", "")
		song.SetID("song-1")

		if err := enrichment.Enrich(context.Background(), song); err == nil {
			t.Error("expected persistence failure to surface")
		}
	})
}

func TestSpotifyIDEnrichment(t *testing.T) {
	catalog := &tu.MockCatalog{Default: []match.Candidate{
		{Name: "Yesterday", Artist: "The Beatles", ExternalID: "3BQHpFgAp4l80e1XslIjNI", Popularity: 80},
	}}
	store := newMemoryStore()
	enrichment := NewSpotifyIDEnrichment(catalog, store)

	song := models.NewSong(1, "user-1", "Yesterday", "The Beatles", "")
	song.SetID("song-1")

	if err := enrichment.Enrich(context.Background(), song); err != nil {
		t.Fatalf("enrich failed: %v", err)
	}

	if store.spotifyIDs["song-1"] != "3BQHpFgAp4l80e1XslIjNI" {
		t.Errorf("expected track id to be written, got %s", store.spotifyIDs["song-1"])
	}
}

func TestDurationEnrichment(t *testing.T) {
	t.Run("PrefersLookupByID", func(t *testing.T) {
		catalog := &tu.MockCatalog{}
		lookup := &fakeLookup{durationMS: 125000}
		store := newMemoryStore()
		enrichment := NewDurationEnrichment(catalog, lookup, store)

		song := models.NewSong(1, "user-1", "Yesterday", "The Beatles", "")
		song.SetID("song-1")
		song.SetSpotifyID("3BQHpFgAp4l80e1XslIjNI")

		if err := enrichment.Enrich(context.Background(), song); err != nil {
			t.Fatalf("enrich failed: %v", err)
		}

		if store.durations["song-1"] != 125000 {
			t.Errorf("expected duration from lookup, got %d", store.durations["song-1"])
		}
		if len(catalog.Calls) != 0 {
			t.Errorf("with a valid id no search should be issued, got %d calls", len(catalog.Calls))
		}
	})

	t.Run("FallsBackToSearch", func(t *testing.T) {
		catalog := &tu.MockCatalog{Default: []match.Candidate{
			{Name: "Yesterday", Artist: "The Beatles", DurationMS: 125000},
		}}
		lookup := &fakeLookup{err: errors.New("stale id")}
		store := newMemoryStore()
		enrichment := NewDurationEnrichment(catalog, lookup, store)

		song := models.NewSong(1, "user-1", "Yesterday", "The Beatles", "")
		song.SetID("song-1")
		song.SetSpotifyID("stale")

		if err := enrichment.Enrich(context.Background(), song); err != nil {
			t.Fatalf("enrich failed: %v", err)
		}

		if store.durations["song-1"] != 125000 {
			t.Errorf("expected duration from search fallback, got %d", store.durations["song-1"])
		}
	})
}

type fakeLookup struct {
	durationMS int
	err        error
}

func (f *fakeLookup) Track(ctx context.Context, trackID string) (*catalogs.SpotifyTrack, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &catalogs.SpotifyTrack{ID: trackID, DurationMS: f.durationMS}, nil
}
