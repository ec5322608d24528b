package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes a free-text track or artist name for comparison.
//
// Lowercases, decomposes Unicode (NFKD) and strips combining marks, expands
// "&" to "and", replaces every other non-alphanumeric character with a space,
// and collapses whitespace. Empty input normalizes to the empty string.
// Normalize is idempotent.
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ToLower(s)

	// NFKD splits accented letters into base letter + combining mark; dropping
	// the marks (category Mn) turns "beyoncé" into "beyonce".
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	if stripped, _, err := transform.String(t, s); err == nil {
		s = stripped
	}

	s = strings.ReplaceAll(s, "&", "and")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// ArtistMatches reports whether a candidate artist plausibly names the wanted
// artist: normalized equality or substring containment in either direction.
// Returns false when either side normalizes to empty.
func ArtistMatches(got, want string) bool {
	g := Normalize(got)
	w := Normalize(want)
	if g == "" || w == "" {
		return false
	}
	if g == w {
		return true
	}
	return strings.Contains(g, w) || strings.Contains(w, g)
}
