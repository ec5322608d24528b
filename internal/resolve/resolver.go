// Package resolve orchestrates catalog queries for a single track resolution.
//
// A resolver tries an ordered list of query-string variants against one
// catalog, scores every variant's results through the matcher, and keeps the
// best candidate seen so far. It stops early once the running best crosses the
// matcher's confidence threshold, trading an extra round trip for latency.
package resolve

import (
	"context"
	"fmt"

	"songvault/internal/catalogs"
	"songvault/internal/match"
)

// Queries builds the ordered query-string variants for a wanted track,
// most-specific first.
type Queries func(q match.Query) []string

// SpotifyQueries returns the variant list for Spotify's search endpoint,
// starting with field-qualified syntax.
func SpotifyQueries(q match.Query) []string {
	return []string{
		fmt.Sprintf("track:%s artist:%s", q.Name, q.Artist),
		fmt.Sprintf("%s %s", q.Artist, q.Name),
		fmt.Sprintf("%s %s", q.Name, q.Artist),
		q.Name,
	}
}

// ITunesQueries returns the variant list for the iTunes search endpoint, which
// has no field-qualified syntax.
func ITunesQueries(q match.Query) []string {
	return []string{
		fmt.Sprintf("%s %s", q.Artist, q.Name),
		fmt.Sprintf("%s %s", q.Name, q.Artist),
		q.Name,
	}
}

// Resolver finds the best catalog candidate for a wanted (name, artist) pair.
type Resolver struct {
	catalog catalogs.Catalog
	config  match.Config
	queries Queries
	limit   int
}

// New creates a Resolver over the given catalog and matcher configuration.
// A nil queries function defaults to [ITunesQueries]; limit defaults to 25
// results per variant.
func New(catalog catalogs.Catalog, config match.Config, queries Queries, limit int) *Resolver {
	if queries == nil {
		queries = ITunesQueries
	}
	if limit <= 0 {
		limit = 25
	}

	return &Resolver{
		catalog: catalog,
		config:  config,
		queries: queries,
		limit:   limit,
	}
}

// Resolve tries each query variant in order and returns the best match found,
// or (nil, nil) when no variant yields an acceptable candidate.
//
// A failed search for one variant counts as zero candidates for that variant
// and the loop continues; only context cancellation aborts the resolution. A
// later, weaker variant never downgrades an earlier best.
func (r *Resolver) Resolve(ctx context.Context, q match.Query) (*match.Result, error) {
	best := match.Result{Score: match.ScoreInvalid}

	for _, term := range r.queries(q) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		candidates, err := r.catalog.Search(ctx, term, r.limit)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			continue
		}

		res := r.config.BestMatch(q, candidates)
		if res.Candidate != nil && res.Score > best.Score {
			best = res
		}

		if best.Candidate != nil && r.config.Confident(best.Score) {
			break
		}
	}

	if best.Candidate == nil {
		return nil, nil
	}

	return &best, nil
}
