package catalogs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"songvault/internal/shared"
)

func TestNewSpotifyService(t *testing.T) {
	t.Run("ValidCredentials", func(t *testing.T) {
		svc, err := NewSpotifyService(shared.SpotifyConfig{ClientID: "id", ClientSecret: "secret"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if svc.Name() != "Spotify" {
			t.Errorf("expected catalog name Spotify, got %s", svc.Name())
		}
	})

	t.Run("MissingCredentials", func(t *testing.T) {
		_, err := NewSpotifyService(shared.SpotifyConfig{ClientID: "id"})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}

		_, err = NewSpotifyService(shared.SpotifyConfig{})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})
}

func TestSpotifyAuthenticate(t *testing.T) {
	t.Run("TokenExchange", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("expected POST token request, got %s", r.Method)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token": "test_token", "token_type": "Bearer", "expires_in": 3600}`))
		}))
		defer server.Close()

		svc, err := NewSpotifyService(shared.SpotifyConfig{ClientID: "id", ClientSecret: "secret"})
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}
		svc.conf.TokenURL = server.URL

		if err := svc.Authenticate(context.Background()); err != nil {
			t.Fatalf("authenticate failed: %v", err)
		}
	})

	t.Run("TokenFailure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		svc, err := NewSpotifyService(shared.SpotifyConfig{ClientID: "id", ClientSecret: "bad"})
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}
		svc.conf.TokenURL = server.URL

		if err := svc.Authenticate(context.Background()); !errors.Is(err, shared.ErrTokenRequest) {
			t.Errorf("expected ErrTokenRequest, got %v", err)
		}
	})
}

func TestSpotifySearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("type") != "track" {
			t.Errorf("expected type=track, got %s", q.Get("type"))
		}
		if q.Get("limit") != "20" {
			t.Errorf("expected limit=20, got %s", q.Get("limit"))
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"tracks": {
				"items": [
					{
						"id": "3n3Ppam7vgaVa1iaRUc9Lp",
						"name": "Yesterday",
						"artists": [{"id": "a1", "name": "The Beatles"}, {"id": "a2", "name": "Billy Preston"}],
						"album": {"id": "al1", "name": "Help!", "images": [
							{"url": "https://i.example/640.jpg", "width": 640, "height": 640},
							{"url": "https://i.example/300.jpg", "width": 300, "height": 300},
							{"url": "https://i.example/64.jpg", "width": 64, "height": 64}
						]},
						"duration_ms": 125667,
						"explicit": false,
						"popularity": 85
					}
				]
			}
		}`))
	}))
	defer server.Close()

	svc, err := NewSpotifyService(shared.SpotifyConfig{ClientID: "id", ClientSecret: "secret"})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	svc.baseURL = server.URL

	candidates, err := svc.Search(context.Background(), "track:Yesterday artist:The Beatles", 0)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}

	c := candidates[0]
	if c.Name != "Yesterday" {
		t.Errorf("expected name Yesterday, got %s", c.Name)
	}
	if c.Artist != "The Beatles" {
		t.Errorf("first-listed artist should be used, got %s", c.Artist)
	}
	if c.ExternalID != "3n3Ppam7vgaVa1iaRUc9Lp" {
		t.Errorf("unexpected external id %s", c.ExternalID)
	}
	if c.ArtworkURL != "https://i.example/300.jpg" {
		t.Errorf("expected medium album image, got %s", c.ArtworkURL)
	}
	if c.Popularity != 85 {
		t.Errorf("expected popularity 85, got %d", c.Popularity)
	}
}

func TestSpotifyTrack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tracks/3n3Ppam7vgaVa1iaRUc9Lp" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "3n3Ppam7vgaVa1iaRUc9Lp", "name": "Yesterday", "duration_ms": 125667}`))
	}))
	defer server.Close()

	svc, err := NewSpotifyService(shared.SpotifyConfig{ClientID: "id", ClientSecret: "secret"})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	svc.baseURL = server.URL

	track, err := svc.Track(context.Background(), "3n3Ppam7vgaVa1iaRUc9Lp")
	if err != nil {
		t.Fatalf("track fetch failed: %v", err)
	}

	if track.DurationMS != 125667 {
		t.Errorf("expected duration 125667, got %d", track.DurationMS)
	}
}

func TestPickBestImage(t *testing.T) {
	tc := []struct {
		name   string
		images []SpotifyImage
		want   string
	}{
		{"empty", nil, ""},
		{
			"smallest above threshold",
			[]SpotifyImage{
				{URL: "640", Width: 640},
				{URL: "300", Width: 300},
				{URL: "64", Width: 64},
			},
			"300",
		},
		{
			"all below threshold picks middle",
			[]SpotifyImage{
				{URL: "64", Width: 64},
				{URL: "100", Width: 100},
				{URL: "200", Width: 200},
			},
			"100",
		},
		{"single image", []SpotifyImage{{URL: "64", Width: 64}}, "64"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := PickBestImage(tt.images); got != tt.want {
				t.Errorf("PickBestImage() = %q, want %q", got, tt.want)
			}
		})
	}
}
