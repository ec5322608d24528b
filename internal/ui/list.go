package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"songvault/internal/models"
	"songvault/internal/shared"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = songItem{}
)

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist *models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name() }
func (i playlistItem) Title() string       { return i.playlist.Name() }
func (i playlistItem) Description() string {
	desc := shared.VisibilityString(i.playlist.IsPublic())
	if i.playlist.Description() != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.playlist.Description())
	}
	return desc
}

// songItem wraps [models.Song] to implement [list.Item].
type songItem struct {
	song *models.Song
}

func (i songItem) FilterValue() string { return i.song.Name() }
func (i songItem) Title() string       { return i.song.Name() }
func (i songItem) Description() string {
	desc := i.song.Artist()
	if i.song.Tuning() != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.song.Tuning())
	}
	if i.song.DurationMS() > 0 {
		desc = fmt.Sprintf("%s • %s", desc, shared.FormatDuration(i.song.DurationMS()))
	}
	return desc
}
