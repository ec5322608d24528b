// Spotify Web API implementation of [Catalog]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package catalogs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"golang.org/x/oauth2/clientcredentials"

	"songvault/internal/match"
	"songvault/internal/shared"
)

const (
	spotifyTokenURL    = "https://accounts.spotify.com/api/token"
	defaultSpotifyBase = "https://api.spotify.com/v1"
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Explicit   bool            `json:"explicit"`
	Popularity int             `json:"popularity"`
}

type spotifySearchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
	} `json:"tracks"`
}

// SpotifyService implements the Catalog interface for the Spotify Web API.
//
// Uses the OAuth2 client-credentials grant: one short-lived bearer token is
// exchanged per [SpotifyService.Authenticate] call and reused for all requests
// in that run. A sweep is expected to finish within the token's validity
// window; re-running re-fetches a fresh token.
type SpotifyService struct {
	baseURL    string
	conf       *clientcredentials.Config
	httpClient *http.Client
}

// NewSpotifyService creates a new Spotify catalog client with the given client credentials.
// Returns [shared.ErrMissingCredentials] when either half is absent.
func NewSpotifyService(cfg shared.SpotifyConfig) (*SpotifyService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &SpotifyService{
		baseURL: defaultSpotifyBase,
		conf: &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     spotifyTokenURL,
		},
		httpClient: http.DefaultClient,
	}, nil
}

// Name returns the catalog name.
func (s *SpotifyService) Name() string {
	return "Spotify"
}

// Authenticate performs the client-credentials token exchange and installs an
// authenticated HTTP client for subsequent requests.
func (s *SpotifyService) Authenticate(ctx context.Context) error {
	token, err := s.conf.Token(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrTokenRequest, err)
	}
	if token.AccessToken == "" {
		return fmt.Errorf("%w: empty access token", shared.ErrTokenRequest)
	}

	s.httpClient = s.conf.Client(ctx)
	return nil
}

// doRequest performs an authenticated GET request against the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: spotify status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Search queries the Spotify track search endpoint and maps results into match candidates.
func (s *SpotifyService) Search(ctx context.Context, term string, limit int) ([]match.Candidate, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	params := url.Values{}
	params.Set("type", "track")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("q", term)

	var payload spotifySearchResponse
	if err := s.doRequest(ctx, "/search?"+params.Encode(), &payload); err != nil {
		return nil, err
	}

	candidates := make([]match.Candidate, 0, len(payload.Tracks.Items))
	for _, tr := range payload.Tracks.Items {
		candidates = append(candidates, candidateFromTrack(tr))
	}

	return candidates, nil
}

// Track retrieves a single track by its Spotify id.
func (s *SpotifyService) Track(ctx context.Context, trackID string) (*SpotifyTrack, error) {
	var track SpotifyTrack
	endpoint := fmt.Sprintf("/tracks/%s", url.PathEscape(trackID))
	if err := s.doRequest(ctx, endpoint, &track); err != nil {
		return nil, err
	}
	return &track, nil
}

// candidateFromTrack maps a Spotify track into a match candidate. The
// first-listed artist is used as the display artist.
func candidateFromTrack(tr SpotifyTrack) match.Candidate {
	artist := ""
	if len(tr.Artists) > 0 {
		artist = tr.Artists[0].Name
	}

	return match.Candidate{
		Name:       tr.Name,
		Artist:     artist,
		ArtworkURL: PickBestImage(tr.Album.Images),
		DurationMS: tr.DurationMS,
		ExternalID: tr.ID,
		Popularity: tr.Popularity,
		Explicit:   tr.Explicit,
	}
}

// PickBestImage chooses a medium-resolution album image: the smallest image of
// at least 250px width, the middle of the set when none qualify, or the
// largest as a last resort.
func PickBestImage(images []SpotifyImage) string {
	if len(images) == 0 {
		return ""
	}

	sorted := make([]SpotifyImage, len(images))
	copy(sorted, images)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Width < sorted[j].Width })

	for _, img := range sorted {
		if img.Width >= 250 {
			return img.URL
		}
	}

	return sorted[len(sorted)/2].URL
}
