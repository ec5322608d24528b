package models

import (
	"fmt"
	"strings"
	"time"
)

// Song represents a catalog entry owned by a user.
//
// Name, artist, and tuning are user-entered. The enrichment fields (spotifyID,
// imageURL, durationMS) are resolved asynchronously against external catalogs
// and stay empty until a confident match is found.
type Song struct {
	id         string
	sequence   int
	userID     string
	name       string
	artist     string
	tuning     string
	spotifyID  string
	imageURL   string
	durationMS int
	createdAt  time.Time
	updatedAt  time.Time
	deletedAt  *time.Time
}

var _ Model = (*Song)(nil)

// NewSong creates a Song with the given sequence number and user-entered fields.
func NewSong(sequence int, userID, name, artist, tuning string) *Song {
	now := time.Now()
	return &Song{
		sequence:  sequence,
		userID:    userID,
		name:      name,
		artist:    artist,
		tuning:    tuning,
		createdAt: now,
		updatedAt: now,
	}
}

func (s *Song) ID() string            { return s.id }
func (s *Song) Sequence() int         { return s.sequence }
func (s *Song) UserID() string        { return s.userID }
func (s *Song) Name() string          { return s.name }
func (s *Song) Artist() string        { return s.artist }
func (s *Song) Tuning() string        { return s.tuning }
func (s *Song) SpotifyID() string     { return s.spotifyID }
func (s *Song) ImageURL() string      { return s.imageURL }
func (s *Song) DurationMS() int       { return s.durationMS }
func (s *Song) CreatedAt() time.Time  { return s.createdAt }
func (s *Song) UpdatedAt() time.Time  { return s.updatedAt }
func (s *Song) DeletedAt() *time.Time { return s.deletedAt }

func (s *Song) SetID(id string)           { s.id = id }
func (s *Song) SetName(name string)       { s.name = name }
func (s *Song) SetArtist(artist string)   { s.artist = artist }
func (s *Song) SetTuning(tuning string)   { s.tuning = tuning }
func (s *Song) SetSpotifyID(id string)    { s.spotifyID = id }
func (s *Song) SetImageURL(url string)    { s.imageURL = url }
func (s *Song) SetDurationMS(ms int)      { s.durationMS = ms }
func (s *Song) SetCreatedAt(t time.Time)  { s.createdAt = t }
func (s *Song) SetUpdatedAt(t time.Time)  { s.updatedAt = t }
func (s *Song) SetDeletedAt(t *time.Time) { s.deletedAt = t }

// Validate checks that required user-entered fields are present.
func (s *Song) Validate() error {
	if s.userID == "" {
		return fmt.Errorf("song user_id is required")
	}
	if strings.TrimSpace(s.name) == "" {
		return fmt.Errorf("song name is required")
	}
	if strings.TrimSpace(s.artist) == "" {
		return fmt.Errorf("song artist is required")
	}
	return nil
}

// MissingCover reports whether the song still needs cover art.
//
// An embedded data: URI is a client-side placeholder, treated the same as no
// cover at all.
func (s *Song) MissingCover() bool {
	url := strings.TrimSpace(s.imageURL)
	if url == "" {
		return true
	}
	return strings.HasPrefix(url, "data:image/")
}

// MissingSpotifyID reports whether the song still needs a Spotify track id.
func (s *Song) MissingSpotifyID() bool {
	return strings.TrimSpace(s.spotifyID) == ""
}

// MissingDuration reports whether the song still needs a duration.
func (s *Song) MissingDuration() bool {
	return s.durationMS <= 0
}
