// iTunes Search API implementation of [Catalog]
//
// Response types based on https://developer.apple.com/library/archive/documentation/AudioVideo/Conceptual/iTuneSearchAPI/
package catalogs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"

	"songvault/internal/match"
	"songvault/internal/shared"
)

const defaultITunesBaseURL = "https://itunes.apple.com"

// ITunesResult represents a single song result from the iTunes Search API.
type ITunesResult struct {
	TrackID        int    `json:"trackId"`
	TrackName      string `json:"trackName"`
	ArtistName     string `json:"artistName"`
	CollectionName string `json:"collectionName"`
	ArtworkURL100  string `json:"artworkUrl100"`
	TrackTimeMS    int    `json:"trackTimeMillis"`
	Country        string `json:"country"`
}

type itunesSearchResponse struct {
	ResultCount int            `json:"resultCount"`
	Results     []ITunesResult `json:"results"`
}

// ITunesService implements the Catalog interface for the iTunes Search API.
// The endpoint is unauthenticated; only the storefront country varies.
type ITunesService struct {
	baseURL    string
	country    string
	httpClient *http.Client
}

// NewITunesService creates a new iTunes catalog client for the given storefront country.
func NewITunesService(baseURL, country string) *ITunesService {
	if baseURL == "" {
		baseURL = defaultITunesBaseURL
	}
	if country == "" {
		country = "US"
	}

	return &ITunesService{
		baseURL:    baseURL,
		country:    country,
		httpClient: http.DefaultClient,
	}
}

// Name returns the catalog name.
func (s *ITunesService) Name() string {
	return "iTunes"
}

// Search queries the iTunes song search endpoint and maps results into match candidates.
func (s *ITunesService) Search(ctx context.Context, term string, limit int) ([]match.Candidate, error) {
	if limit <= 0 {
		limit = 25
	}

	params := url.Values{}
	params.Set("term", term)
	params.Set("media", "music")
	params.Set("entity", "song")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("country", s.country)

	endpoint := fmt.Sprintf("%s/search?%s", s.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: itunes search status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var payload itunesSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	candidates := make([]match.Candidate, 0, len(payload.Results))
	for _, r := range payload.Results {
		candidates = append(candidates, match.Candidate{
			Name:       r.TrackName,
			Artist:     r.ArtistName,
			ArtworkURL: r.ArtworkURL100,
			DurationMS: r.TrackTimeMS,
			ExternalID: strconv.Itoa(r.TrackID),
		})
	}

	return candidates, nil
}

// artworkRe matches the fixed-size thumbnail token iTunes appends to artwork URLs.
var artworkRe = regexp.MustCompile(`(?i)100x100bb\.(jpg|png)$`)

// UpgradeArtwork rewrites an iTunes 100x100 thumbnail URL to the 1000x1000
// variant, preserving the extension. URLs without the thumbnail token are
// returned unchanged.
func UpgradeArtwork(artworkURL string) string {
	return artworkRe.ReplaceAllString(artworkURL, "1000x1000bb.$1")
}
