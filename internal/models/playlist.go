package models

import (
	"fmt"
	"strings"
	"time"
)

// Playlist represents a named grouping of songs owned by a user.
//
// A playlist can be shared read-only: enabling sharing marks it public and
// assigns an opaque token usable without authentication.
type Playlist struct {
	id          string
	sequence    int
	userID      string
	name        string
	description string
	isPublic    bool
	shareToken  string
	createdAt   time.Time
	updatedAt   time.Time
	deletedAt   *time.Time
}

var _ Model = (*Playlist)(nil)

// NewPlaylist creates a Playlist with the given sequence number and user-entered fields.
func NewPlaylist(sequence int, userID, name, description string) *Playlist {
	now := time.Now()
	return &Playlist{
		sequence:    sequence,
		userID:      userID,
		name:        name,
		description: description,
		createdAt:   now,
		updatedAt:   now,
	}
}

func (p *Playlist) ID() string            { return p.id }
func (p *Playlist) Sequence() int         { return p.sequence }
func (p *Playlist) UserID() string        { return p.userID }
func (p *Playlist) Name() string          { return p.name }
func (p *Playlist) Description() string   { return p.description }
func (p *Playlist) IsPublic() bool        { return p.isPublic }
func (p *Playlist) ShareToken() string    { return p.shareToken }
func (p *Playlist) CreatedAt() time.Time  { return p.createdAt }
func (p *Playlist) UpdatedAt() time.Time  { return p.updatedAt }
func (p *Playlist) DeletedAt() *time.Time { return p.deletedAt }

func (p *Playlist) SetID(id string)            { p.id = id }
func (p *Playlist) SetName(name string)        { p.name = name }
func (p *Playlist) SetDescription(desc string) { p.description = desc }
func (p *Playlist) SetCreatedAt(t time.Time)   { p.createdAt = t }
func (p *Playlist) SetUpdatedAt(t time.Time)   { p.updatedAt = t }
func (p *Playlist) SetDeletedAt(t *time.Time)  { p.deletedAt = t }

// SetShare toggles public sharing. Enabling requires a token; disabling clears it.
func (p *Playlist) SetShare(public bool, token string) {
	p.isPublic = public
	if public {
		p.shareToken = token
	} else {
		p.shareToken = ""
	}
}

// Validate checks that required fields are present.
func (p *Playlist) Validate() error {
	if p.userID == "" {
		return fmt.Errorf("playlist user_id is required")
	}
	if strings.TrimSpace(p.name) == "" {
		return fmt.Errorf("playlist name is required")
	}
	return nil
}

// PlaylistExport bundles a playlist with its songs for export and display.
type PlaylistExport struct {
	Playlist *Playlist
	Songs    []*Song
}
