package match

import "strings"

// ScoreInvalid marks a candidate as structurally unusable (missing name or
// artist). It is guaranteed to lose any comparison: winner selection uses
// strict greater-than against a running best initialized to this value.
const ScoreInvalid = -999

// Query is the wanted identity as entered by the user.
type Query struct {
	Name   string
	Artist string
}

// Candidate is one external-catalog search result considered for a match.
type Candidate struct {
	Name       string
	Artist     string
	ArtworkURL string
	DurationMS int
	ExternalID string
	Popularity int
	Explicit   bool
}

// Result is the matcher's verdict. A nil Candidate means no acceptable match;
// callers must not persist anything in that case.
type Result struct {
	Candidate *Candidate
	Score     int
}

// Weights holds the additive scoring signals for one enrichment kind.
//
// The exact numbers are empirically tuned per kind and intentionally not
// unified; see the preset constructors.
type Weights struct {
	ArtistExact     int
	ArtistPartial   int
	NameExact       int
	NamePartial     int
	BadTokenPenalty int
	ExplicitBonus   int // 0 disables
	PopularityCap   int // 0 disables; otherwise min(cap, popularity/10) is added
}

// Config parameterizes the matcher for one enrichment kind.
type Config struct {
	Weights             Weights
	Denylist            []string
	ConfidenceThreshold int
}

// baseDenylist are tokens that demote karaoke/tribute catalog noise.
var baseDenylist = []string{"karaoke", "tribute", "cover", "instrumental", "made famous by", "version"}

// strictDenylist extends the base list for catalogs with heavy remix noise.
var strictDenylist = append(append([]string{}, baseDenylist...), "8d", "sped up", "slowed")

// CoverConfig returns the tuning used for cover-art lookups (iTunes).
func CoverConfig() Config {
	return Config{
		Weights: Weights{
			ArtistExact:     80,
			ArtistPartial:   50,
			NameExact:       70,
			NamePartial:     40,
			BadTokenPenalty: 60,
		},
		Denylist:            baseDenylist,
		ConfidenceThreshold: 95,
	}
}

// SpotifyIDConfig returns the tuning used for Spotify track id lookups.
func SpotifyIDConfig() Config {
	return Config{
		Weights: Weights{
			ArtistExact:     90,
			ArtistPartial:   55,
			NameExact:       80,
			NamePartial:     45,
			BadTokenPenalty: 80,
			ExplicitBonus:   2,
			PopularityCap:   10,
		},
		Denylist:            strictDenylist,
		ConfidenceThreshold: 120,
	}
}

// DurationConfig returns the tuning used for duration lookups (iTunes).
func DurationConfig() Config {
	return Config{
		Weights: Weights{
			ArtistExact:     90,
			ArtistPartial:   60,
			NameExact:       80,
			NamePartial:     50,
			BadTokenPenalty: 80,
		},
		Denylist:            baseDenylist,
		ConfidenceThreshold: 95,
	}
}

// Score rates a single candidate against the query.
//
// Candidates with an empty normalized name or artist score [ScoreInvalid] and
// can never win. Artist and name signals are additive; the denylist penalty is
// applied after them, so a strong match on a karaoke entry can still be
// demoted below a weaker clean result. Explicit/popularity bonuses are small
// tie-breakers that never outweigh the primary signals.
func (c Config) Score(cand Candidate, q Query) int {
	wantName := Normalize(q.Name)
	wantArtist := Normalize(q.Artist)

	gotName := Normalize(cand.Name)
	gotArtist := Normalize(cand.Artist)

	if gotName == "" || gotArtist == "" {
		return ScoreInvalid
	}

	score := 0

	switch {
	case gotArtist == wantArtist:
		score += c.Weights.ArtistExact
	case strings.Contains(gotArtist, wantArtist) || strings.Contains(wantArtist, gotArtist):
		score += c.Weights.ArtistPartial
	}

	switch {
	case gotName == wantName:
		score += c.Weights.NameExact
	case strings.Contains(gotName, wantName) || strings.Contains(wantName, gotName):
		score += c.Weights.NamePartial
	}

	meta := gotName + " " + gotArtist
	for _, token := range c.Denylist {
		if strings.Contains(meta, token) {
			score -= c.Weights.BadTokenPenalty
			break
		}
	}

	if c.Weights.ExplicitBonus > 0 && cand.Explicit {
		score += c.Weights.ExplicitBonus
	}

	if c.Weights.PopularityCap > 0 && cand.Popularity > 0 {
		bonus := cand.Popularity / 10
		if bonus > c.Weights.PopularityCap {
			bonus = c.Weights.PopularityCap
		}
		score += bonus
	}

	return score
}

// BestMatch filters and scores a candidate pool, returning the winner.
//
// When at least one candidate passes [ArtistMatches] against the query artist,
// scoring is restricted to those candidates; a high-popularity wrong-artist
// result can then never enter scoring. Winner selection uses strict
// greater-than, so the first candidate at the maximum score wins, preserving
// the catalog's own ranking among ties.
func (c Config) BestMatch(q Query, pool []Candidate) Result {
	if len(pool) == 0 {
		return Result{Score: ScoreInvalid}
	}

	var strong []Candidate
	for _, cand := range pool {
		if ArtistMatches(cand.Artist, q.Artist) {
			strong = append(strong, cand)
		}
	}
	if len(strong) > 0 {
		pool = strong
	}

	var best *Candidate
	bestScore := ScoreInvalid

	for i := range pool {
		s := c.Score(pool[i], q)
		if s > bestScore {
			bestScore = s
			best = &pool[i]
		}
	}

	if best == nil {
		return Result{Score: ScoreInvalid}
	}

	winner := *best
	return Result{Candidate: &winner, Score: bestScore}
}

// Confident reports whether a score crosses the config's confidence threshold.
func (c Config) Confident(score int) bool {
	return score >= c.ConfidenceThreshold
}
