// Package match implements fuzzy track matching against external catalog search results.
//
// Given a user-entered (name, artist) pair and a list of candidate tracks, the
// matcher normalizes both sides, filters down to same-artist candidates when
// possible, and scores each candidate with weighted name/artist signals and a
// denylist penalty for karaoke/tribute/cover noise. Weights differ per
// enrichment kind and are carried in a [Config] rather than duplicated logic.
package match
