package tasks

import (
	"context"
	"fmt"

	"songvault/internal/catalogs"
	"songvault/internal/match"
	"songvault/internal/models"
	"songvault/internal/resolve"
	"songvault/internal/shared"
)

// SongStore is the single-field write surface enrichments persist through.
type SongStore interface {
	SetImageURL(id, imageURL string) error
	SetSpotifyID(id, spotifyID string) error
	SetDurationMS(id string, durationMS int) error
}

// CoverEnrichment fills a song's cover art URL from a catalog's artwork
// field, upgraded from the thumbnail size to full resolution.
type CoverEnrichment struct {
	resolver *resolve.Resolver
	config   match.Config
	store    SongStore
}

// NewCoverEnrichment creates a cover enrichment resolving through the given
// catalog, usually iTunes.
func NewCoverEnrichment(catalog catalogs.Catalog, store SongStore) *CoverEnrichment {
	config := match.CoverConfig()
	return &CoverEnrichment{
		resolver: resolve.New(catalog, config, resolve.ITunesQueries, 25),
		config:   config,
		store:    store,
	}
}

func (e *CoverEnrichment) Kind() string { return "covers" }

func (e *CoverEnrichment) Missing(song *models.Song) bool { return song.MissingCover() }

func (e *CoverEnrichment) Enrich(ctx context.Context, song *models.Song) error {
	res, err := e.resolver.Resolve(ctx, match.Query{Name: song.Name(), Artist: song.Artist()})
	if err != nil {
		return err
	}
	if res == nil || !e.config.Confident(res.Score) || res.Candidate.ArtworkURL == "" {
		return shared.ErrNoMatch
	}

	artwork := catalogs.UpgradeArtwork(res.Candidate.ArtworkURL)
	if err := e.store.SetImageURL(song.ID(), artwork); err != nil {
		return fmt.Errorf("failed to persist cover: %w", err)
	}

	song.SetImageURL(artwork)
	return nil
}

// SpotifyIDEnrichment fills a song's Spotify track id from the Spotify
// catalog.
type SpotifyIDEnrichment struct {
	resolver *resolve.Resolver
	config   match.Config
	store    SongStore
}

// NewSpotifyIDEnrichment creates a Spotify id enrichment resolving through
// the given catalog, usually Spotify.
func NewSpotifyIDEnrichment(catalog catalogs.Catalog, store SongStore) *SpotifyIDEnrichment {
	config := match.SpotifyIDConfig()
	return &SpotifyIDEnrichment{
		resolver: resolve.New(catalog, config, resolve.SpotifyQueries, 25),
		config:   config,
		store:    store,
	}
}

func (e *SpotifyIDEnrichment) Kind() string { return "spotify-ids" }

func (e *SpotifyIDEnrichment) Missing(song *models.Song) bool { return song.MissingSpotifyID() }

func (e *SpotifyIDEnrichment) Enrich(ctx context.Context, song *models.Song) error {
	res, err := e.resolver.Resolve(ctx, match.Query{Name: song.Name(), Artist: song.Artist()})
	if err != nil {
		return err
	}
	if res == nil || !e.config.Confident(res.Score) || res.Candidate.ExternalID == "" {
		return shared.ErrNoMatch
	}

	if err := e.store.SetSpotifyID(song.ID(), res.Candidate.ExternalID); err != nil {
		return fmt.Errorf("failed to persist spotify id: %w", err)
	}

	song.SetSpotifyID(res.Candidate.ExternalID)
	return nil
}

// TrackLookup fetches a single catalog track by its external id. Satisfied by
// [catalogs.SpotifyService].
type TrackLookup interface {
	Track(ctx context.Context, trackID string) (*catalogs.SpotifyTrack, error)
}

// DurationEnrichment fills a song's duration in milliseconds.
//
// When the song already carries a Spotify id the duration is fetched
// directly by id; otherwise the track is resolved by fuzzy search like the
// other enrichments.
type DurationEnrichment struct {
	lookup   TrackLookup
	resolver *resolve.Resolver
	config   match.Config
	store    SongStore
}

// NewDurationEnrichment creates a duration enrichment. lookup may be nil, in
// which case every record goes through fuzzy search.
func NewDurationEnrichment(catalog catalogs.Catalog, lookup TrackLookup, store SongStore) *DurationEnrichment {
	config := match.DurationConfig()
	return &DurationEnrichment{
		lookup:   lookup,
		resolver: resolve.New(catalog, config, resolve.SpotifyQueries, 25),
		config:   config,
		store:    store,
	}
}

func (e *DurationEnrichment) Kind() string { return "durations" }

func (e *DurationEnrichment) Missing(song *models.Song) bool { return song.MissingDuration() }

func (e *DurationEnrichment) Enrich(ctx context.Context, song *models.Song) error {
	if id := song.SpotifyID(); id != "" && e.lookup != nil {
		track, err := e.lookup.Track(ctx, id)
		if err == nil && track.DurationMS > 0 {
			return e.persist(song, track.DurationMS)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// Stale or unresolvable id, fall through to fuzzy search.
	}

	res, err := e.resolver.Resolve(ctx, match.Query{Name: song.Name(), Artist: song.Artist()})
	if err != nil {
		return err
	}
	if res == nil || !e.config.Confident(res.Score) || res.Candidate.DurationMS <= 0 {
		return shared.ErrNoMatch
	}

	return e.persist(song, res.Candidate.DurationMS)
}

func (e *DurationEnrichment) persist(song *models.Song, durationMS int) error {
	if err := e.store.SetDurationMS(song.ID(), durationMS); err != nil {
		return fmt.Errorf("failed to persist duration: %w", err)
	}

	song.SetDurationMS(durationMS)
	return nil
}
