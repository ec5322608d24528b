package resolve

import (
	"context"
	"errors"
	"testing"

	"songvault/internal/match"
	tu "songvault/internal/testing"
)

var query = match.Query{Name: "Yesterday", Artist: "The Beatles"}

func exactHit() match.Candidate {
	return match.Candidate{Name: "Yesterday", Artist: "The Beatles", ExternalID: "exact"}
}

func TestQueryVariants(t *testing.T) {
	t.Run("Spotify", func(t *testing.T) {
		got := SpotifyQueries(query)
		want := []string{
			"track:Yesterday artist:The Beatles",
			"The Beatles Yesterday",
			"Yesterday The Beatles",
			"Yesterday",
		}

		if len(got) != len(want) {
			t.Fatalf("expected %d variants, got %d", len(want), len(got))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("variant %d = %q, want %q", i, got[i], want[i])
			}
		}
	})

	t.Run("ITunes", func(t *testing.T) {
		got := ITunesQueries(query)
		if len(got) != 3 {
			t.Fatalf("expected 3 variants, got %d", len(got))
		}
		if got[0] != "The Beatles Yesterday" {
			t.Errorf("most specific variant first, got %q", got[0])
		}
		if got[2] != "Yesterday" {
			t.Errorf("bare name last, got %q", got[2])
		}
	})
}

func TestResolve(t *testing.T) {
	t.Run("short-circuits on confident first variant", func(t *testing.T) {
		catalog := &tu.MockCatalog{Default: []match.Candidate{exactHit()}}

		r := New(catalog, match.CoverConfig(), ITunesQueries, 25)
		res, err := r.Resolve(context.Background(), query)
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}

		if res == nil || res.Candidate.ExternalID != "exact" {
			t.Fatalf("expected exact hit, got %+v", res)
		}
		if len(catalog.Calls) != 1 {
			t.Errorf("expected 1 search call after confident hit, got %d (%v)", len(catalog.Calls), catalog.Calls)
		}
	})

	t.Run("tries all variants below threshold", func(t *testing.T) {
		// Partial-name hit only: scores below the confidence threshold.
		weak := match.Candidate{Name: "Yesterday Once More", Artist: "The Carpenters", ExternalID: "weak"}
		catalog := &tu.MockCatalog{Default: []match.Candidate{weak}}

		r := New(catalog, match.CoverConfig(), ITunesQueries, 25)
		res, err := r.Resolve(context.Background(), query)
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}

		if res == nil || res.Candidate.ExternalID != "weak" {
			t.Fatalf("expected weak hit to be kept, got %+v", res)
		}
		if len(catalog.Calls) != 3 {
			t.Errorf("expected all 3 variants issued, got %d", len(catalog.Calls))
		}
	})

	t.Run("later variant never downgrades earlier best", func(t *testing.T) {
		good := match.Candidate{Name: "Yesterday", Artist: "Beatles", ExternalID: "good"}
		worse := match.Candidate{Name: "Yesterday Tribute", Artist: "Beatles", ExternalID: "worse"}

		catalog := &tu.MockCatalog{
			Responses: map[string][]match.Candidate{
				"The Beatles Yesterday": {good},
				"Yesterday The Beatles": {worse},
				"Yesterday":             {worse},
			},
		}

		r := New(catalog, match.CoverConfig(), ITunesQueries, 25)
		res, err := r.Resolve(context.Background(), query)
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}

		if res == nil || res.Candidate.ExternalID != "good" {
			t.Errorf("expected first variant's best to survive, got %+v", res)
		}
	})

	t.Run("failed variant is not fatal", func(t *testing.T) {
		calls := 0
		catalog := &flakyCatalog{
			failFirst: 1,
			hits:      []match.Candidate{exactHit()},
			calls:     &calls,
		}

		r := New(catalog, match.CoverConfig(), ITunesQueries, 25)
		res, err := r.Resolve(context.Background(), query)
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if res == nil || res.Candidate.ExternalID != "exact" {
			t.Errorf("expected hit from second variant, got %+v", res)
		}
	})

	t.Run("no candidates anywhere returns nil without error", func(t *testing.T) {
		catalog := &tu.MockCatalog{}

		r := New(catalog, match.CoverConfig(), ITunesQueries, 25)
		res, err := r.Resolve(context.Background(), query)
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if res != nil {
			t.Errorf("expected nil result, got %+v", res)
		}
		if len(catalog.Calls) != 3 {
			t.Errorf("expected all variants exhausted, got %d", len(catalog.Calls))
		}
	})

	t.Run("cancellation is fatal", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		catalog := &tu.MockCatalog{Default: []match.Candidate{exactHit()}}
		r := New(catalog, match.CoverConfig(), ITunesQueries, 25)

		if _, err := r.Resolve(ctx, query); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

// flakyCatalog fails its first failFirst searches, then returns hits.
type flakyCatalog struct {
	failFirst int
	hits      []match.Candidate
	calls     *int
}

func (f *flakyCatalog) Search(ctx context.Context, term string, limit int) ([]match.Candidate, error) {
	*f.calls++
	if *f.calls <= f.failFirst {
		return nil, errors.New("upstream unavailable")
	}
	return f.hits, nil
}

func (f *flakyCatalog) Name() string { return "flaky" }
