// package catalogs defines interface Catalog for querying external music catalogs
//
// iTunes Search API, Spotify Web API
package catalogs

import (
	"context"

	"songvault/internal/match"
)

// Catalog defines the interface for external music catalogs that can be
// searched for track candidates during enrichment.
type Catalog interface {
	// Search issues one catalog search for the given free-text term and maps
	// the results into match candidates. A non-OK upstream response surfaces
	// as an error; callers decide whether that is fatal.
	Search(ctx context.Context, term string, limit int) ([]match.Candidate, error)

	// Name returns the name of the catalog (e.g., "iTunes", "Spotify")
	Name() string
}
