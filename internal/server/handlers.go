package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"songvault/internal/models"
	"songvault/internal/repositories"
	"songvault/internal/shared"
	"songvault/internal/tasks"
)

// songPayload is the JSON shape of a song in requests and responses.
type songPayload struct {
	ID         string    `json:"id,omitempty"`
	Name       string    `json:"name"`
	Artist     string    `json:"artist"`
	Tuning     string    `json:"tuning,omitempty"`
	SpotifyID  string    `json:"spotify_id,omitempty"`
	ImageURL   string    `json:"image_url,omitempty"`
	DurationMS int       `json:"duration_ms,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

// playlistPayload is the JSON shape of a playlist in requests and responses.
type playlistPayload struct {
	ID          string         `json:"id,omitempty"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	IsPublic    bool           `json:"is_public"`
	ShareToken  string         `json:"share_token,omitempty"`
	CreatedAt   time.Time      `json:"created_at,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at,omitempty"`
	Songs       []*songPayload `json:"songs,omitempty"`
}

func songToPayload(s *models.Song) *songPayload {
	return &songPayload{
		ID:         s.ID(),
		Name:       s.Name(),
		Artist:     s.Artist(),
		Tuning:     s.Tuning(),
		SpotifyID:  s.SpotifyID(),
		ImageURL:   s.ImageURL(),
		DurationMS: s.DurationMS(),
		CreatedAt:  s.CreatedAt(),
		UpdatedAt:  s.UpdatedAt(),
	}
}

func songsToPayload(songs []*models.Song) []*songPayload {
	out := make([]*songPayload, 0, len(songs))
	for _, s := range songs {
		out = append(out, songToPayload(s))
	}
	return out
}

func playlistToPayload(p *models.Playlist, songs []*models.Song) *playlistPayload {
	payload := &playlistPayload{
		ID:          p.ID(),
		Name:        p.Name(),
		Description: p.Description(),
		IsPublic:    p.IsPublic(),
		ShareToken:  p.ShareToken(),
		CreatedAt:   p.CreatedAt(),
		UpdatedAt:   p.UpdatedAt(),
	}
	if songs != nil {
		payload.Songs = songsToPayload(songs)
	}
	return payload
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// notFoundStatus maps repository errors onto HTTP statuses.
func notFoundStatus(err error) int {
	switch {
	case errors.Is(err, shared.ErrSongNotFound),
		errors.Is(err, shared.ErrPlaylistNotFound),
		errors.Is(err, shared.ErrNotShared):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// callerID extracts the caller identity header, empty when absent.
func callerID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(userHeader))
}

// SongsHandler serves CRUD over songs, scoped to the calling user.
type SongsHandler struct {
	songs       *repositories.SongRepository
	queue       *tasks.Queue
	enrichments []tasks.Enrichment
	logger      *log.Logger
}

// NewSongsHandler creates a SongsHandler. queue and enrichments may be nil,
// which disables enrichment-on-create.
func NewSongsHandler(songs *repositories.SongRepository, queue *tasks.Queue, enrichments []tasks.Enrichment, logger *log.Logger) *SongsHandler {
	if logger == nil {
		logger = shared.NewLogger(os.Stderr)
	}
	return &SongsHandler{songs: songs, queue: queue, enrichments: enrichments, logger: logger}
}

func (h *SongsHandler) Routes() []string {
	return []string{"/api/songs", "/api/songs/"}
}

func (h *SongsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := callerID(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing "+userHeader+" header")
		return
	}

	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/songs"), "/")

	switch {
	case id == "" && r.Method == http.MethodGet:
		h.list(w, r, userID)
	case id == "" && r.Method == http.MethodPost:
		h.create(w, r, userID)
	case id != "" && r.Method == http.MethodGet:
		h.get(w, userID, id)
	case id != "" && (r.Method == http.MethodPut || r.Method == http.MethodPatch):
		h.update(w, r, userID, id)
	case id != "" && r.Method == http.MethodDelete:
		h.delete(w, userID, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *SongsHandler) list(w http.ResponseWriter, r *http.Request, userID string) {
	criteria := map[string]any{"user_id": userID}
	query := r.URL.Query()
	if q := query.Get("q"); q != "" {
		criteria["q"] = q
	}
	if s := query.Get("sort_by"); s != "" {
		criteria["sort_by"] = s
	}
	if d := query.Get("sort_dir"); d != "" {
		criteria["sort_dir"] = d
	}

	songs, err := h.songs.List(criteria)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, songsToPayload(songs))
}

func (h *SongsHandler) create(w http.ResponseWriter, r *http.Request, userID string) {
	var payload songPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	song := models.NewSong(0, userID, payload.Name, payload.Artist, payload.Tuning)
	if err := h.songs.Create(song); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Fire-and-forget: a full queue just defers the record to the next sweep.
	if h.queue != nil {
		for _, enrichment := range h.enrichments {
			if enrichment.Missing(song) {
				h.queue.Submit(song, enrichment)
			}
		}
	}

	writeJSON(w, http.StatusCreated, songToPayload(song))
}

func (h *SongsHandler) get(w http.ResponseWriter, userID, id string) {
	song, err := h.fetch(userID, id)
	if err != nil {
		writeError(w, notFoundStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, songToPayload(song))
}

func (h *SongsHandler) update(w http.ResponseWriter, r *http.Request, userID, id string) {
	song, err := h.fetch(userID, id)
	if err != nil {
		writeError(w, notFoundStatus(err), err.Error())
		return
	}

	var payload songPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	song.SetName(payload.Name)
	song.SetArtist(payload.Artist)
	song.SetTuning(payload.Tuning)
	if payload.SpotifyID != "" {
		song.SetSpotifyID(payload.SpotifyID)
	}
	if payload.ImageURL != "" {
		song.SetImageURL(payload.ImageURL)
	}
	if payload.DurationMS > 0 {
		song.SetDurationMS(payload.DurationMS)
	}

	if err := h.songs.Update(song); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, songToPayload(song))
}

func (h *SongsHandler) delete(w http.ResponseWriter, userID, id string) {
	if _, err := h.fetch(userID, id); err != nil {
		writeError(w, notFoundStatus(err), err.Error())
		return
	}

	if err := h.songs.Delete(id); err != nil {
		writeError(w, notFoundStatus(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// fetch loads a song and enforces row-level ownership. A song owned by
// another user reads as not found, never as forbidden.
func (h *SongsHandler) fetch(userID, id string) (*models.Song, error) {
	song, err := h.songs.Get(id)
	if err != nil {
		return nil, err
	}
	if song.UserID() != userID {
		return nil, shared.ErrSongNotFound
	}
	return song, nil
}

// PlaylistsHandler serves CRUD, membership, and sharing over playlists,
// scoped to the calling user.
type PlaylistsHandler struct {
	playlists *repositories.PlaylistRepository
	songs     *repositories.SongRepository
}

// NewPlaylistsHandler creates a PlaylistsHandler.
func NewPlaylistsHandler(playlists *repositories.PlaylistRepository, songs *repositories.SongRepository) *PlaylistsHandler {
	return &PlaylistsHandler{playlists: playlists, songs: songs}
}

func (h *PlaylistsHandler) Routes() []string {
	return []string{"/api/playlists", "/api/playlists/"}
}

func (h *PlaylistsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := callerID(r)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing "+userHeader+" header")
		return
	}

	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/playlists"), "/")
	parts := []string{}
	if rest != "" {
		parts = strings.Split(rest, "/")
	}

	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		h.list(w, userID)
	case len(parts) == 0 && r.Method == http.MethodPost:
		h.create(w, r, userID)
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.get(w, userID, parts[0])
	case len(parts) == 1 && (r.Method == http.MethodPut || r.Method == http.MethodPatch):
		h.update(w, r, userID, parts[0])
	case len(parts) == 1 && r.Method == http.MethodDelete:
		h.delete(w, userID, parts[0])
	case len(parts) == 2 && parts[1] == "songs" && r.Method == http.MethodPost:
		h.addSong(w, r, userID, parts[0])
	case len(parts) == 3 && parts[1] == "songs" && r.Method == http.MethodDelete:
		h.removeSong(w, userID, parts[0], parts[2])
	case len(parts) == 2 && parts[1] == "share" && r.Method == http.MethodPost:
		h.enableShare(w, userID, parts[0])
	case len(parts) == 2 && parts[1] == "share" && r.Method == http.MethodDelete:
		h.disableShare(w, userID, parts[0])
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *PlaylistsHandler) list(w http.ResponseWriter, userID string) {
	playlists, err := h.playlists.List(map[string]any{"user_id": userID})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]*playlistPayload, 0, len(playlists))
	for _, p := range playlists {
		out = append(out, playlistToPayload(p, nil))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *PlaylistsHandler) create(w http.ResponseWriter, r *http.Request, userID string) {
	var payload playlistPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	playlist := models.NewPlaylist(0, userID, payload.Name, payload.Description)
	if err := h.playlists.Create(playlist); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, playlistToPayload(playlist, nil))
}

func (h *PlaylistsHandler) get(w http.ResponseWriter, userID, id string) {
	playlist, err := h.fetch(userID, id)
	if err != nil {
		writeError(w, notFoundStatus(err), err.Error())
		return
	}

	songs, err := h.songs.ListByPlaylist(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, playlistToPayload(playlist, songs))
}

func (h *PlaylistsHandler) update(w http.ResponseWriter, r *http.Request, userID, id string) {
	playlist, err := h.fetch(userID, id)
	if err != nil {
		writeError(w, notFoundStatus(err), err.Error())
		return
	}

	var payload playlistPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	playlist.SetName(payload.Name)
	playlist.SetDescription(payload.Description)

	if err := h.playlists.Update(playlist); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, playlistToPayload(playlist, nil))
}

func (h *PlaylistsHandler) delete(w http.ResponseWriter, userID, id string) {
	if _, err := h.fetch(userID, id); err != nil {
		writeError(w, notFoundStatus(err), err.Error())
		return
	}

	if err := h.playlists.Delete(id); err != nil {
		writeError(w, notFoundStatus(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PlaylistsHandler) addSong(w http.ResponseWriter, r *http.Request, userID, id string) {
	if _, err := h.fetch(userID, id); err != nil {
		writeError(w, notFoundStatus(err), err.Error())
		return
	}

	var payload struct {
		SongID string `json:"song_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.SongID == "" {
		writeError(w, http.StatusBadRequest, "song_id is required")
		return
	}

	song, err := h.songs.Get(payload.SongID)
	if err != nil || song.UserID() != userID {
		writeError(w, http.StatusNotFound, shared.ErrSongNotFound.Error())
		return
	}

	if err := h.playlists.AddSong(id, payload.SongID); err != nil {
		writeError(w, notFoundStatus(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PlaylistsHandler) removeSong(w http.ResponseWriter, userID, id, songID string) {
	if _, err := h.fetch(userID, id); err != nil {
		writeError(w, notFoundStatus(err), err.Error())
		return
	}

	if err := h.playlists.RemoveSong(id, songID); err != nil {
		writeError(w, notFoundStatus(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PlaylistsHandler) enableShare(w http.ResponseWriter, userID, id string) {
	if _, err := h.fetch(userID, id); err != nil {
		writeError(w, notFoundStatus(err), err.Error())
		return
	}

	token, err := h.playlists.EnableShare(id)
	if err != nil {
		writeError(w, notFoundStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"share_token": token})
}

func (h *PlaylistsHandler) disableShare(w http.ResponseWriter, userID, id string) {
	if _, err := h.fetch(userID, id); err != nil {
		writeError(w, notFoundStatus(err), err.Error())
		return
	}

	if err := h.playlists.DisableShare(id); err != nil {
		writeError(w, notFoundStatus(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PlaylistsHandler) fetch(userID, id string) (*models.Playlist, error) {
	playlist, err := h.playlists.Get(id)
	if err != nil {
		return nil, err
	}
	if playlist.UserID() != userID {
		return nil, shared.ErrPlaylistNotFound
	}
	return playlist, nil
}

// PublicHandler serves shared playlists by token. No caller identity is
// required; the token is the capability.
type PublicHandler struct {
	playlists *repositories.PlaylistRepository
	songs     *repositories.SongRepository
}

// NewPublicHandler creates a PublicHandler.
func NewPublicHandler(playlists *repositories.PlaylistRepository, songs *repositories.SongRepository) *PublicHandler {
	return &PublicHandler{playlists: playlists, songs: songs}
}

func (h *PublicHandler) Routes() []string {
	return []string{"/api/public/playlists/"}
}

func (h *PublicHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	token := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/public/playlists"), "/")
	if token == "" {
		writeError(w, http.StatusNotFound, shared.ErrNotShared.Error())
		return
	}

	playlist, err := h.playlists.GetByShareToken(token)
	if err != nil {
		writeError(w, notFoundStatus(err), err.Error())
		return
	}

	songs, err := h.songs.ListByPlaylist(playlist.ID())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	payload := playlistToPayload(playlist, songs)
	// The share token is already in the caller's hand; don't echo it.
	payload.ShareToken = ""
	writeJSON(w, http.StatusOK, payload)
}

// HealthHandler answers liveness probes.
type HealthHandler struct{}

func (h *HealthHandler) Routes() []string {
	return []string{"/healthz"}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
