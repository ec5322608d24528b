package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"songvault/internal/catalogs"
	"songvault/internal/match"
	"songvault/internal/resolve"
	"songvault/internal/shared"
)

// Resolve runs a one-off resolution for a (name, artist) pair and prints the
// best candidate with its score.
func (r *Runner) Resolve(ctx context.Context, cmd *cli.Command) error {
	config := r.reloadConfig(cmd)
	name := cmd.String("name")
	artist := cmd.String("artist")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	var resolver *resolve.Resolver
	switch catalogName := cmd.String("catalog"); catalogName {
	case "itunes":
		itunes := catalogs.NewITunesService("", config.Credentials.ITunes.Country)
		resolver = resolve.New(itunes, match.CoverConfig(), resolve.ITunesQueries, 25)
	case "spotify":
		spotify, err := catalogs.NewSpotifyService(config.Credentials.Spotify)
		if err != nil {
			return err
		}
		if err := spotify.Authenticate(ctx); err != nil {
			return err
		}
		resolver = resolve.New(spotify, match.SpotifyIDConfig(), resolve.SpotifyQueries, 25)
	default:
		return fmt.Errorf("%w: unknown catalog %q", shared.ErrInvalidFlag, catalogName)
	}

	r.logger.Info("resolving", "name", name, "artist", artist)

	result, err := resolver.Resolve(ctx, match.Query{Name: name, Artist: artist})
	if err != nil {
		return fmt.Errorf("resolution failed: %w", err)
	}

	if result == nil || result.Candidate == nil {
		return r.writePlain("No match found for %s - %s\n", artist, name)
	}

	if useJSON {
		return r.writeJSON(map[string]any{
			"query":     map[string]string{"name": name, "artist": artist},
			"candidate": result.Candidate,
			"score":     result.Score,
		}, pretty)
	}

	r.writePlainHeader(fmt.Sprintf("Best match (score %d)", result.Score))
	r.writePlain("Name:     %s\n", result.Candidate.Name)
	r.writePlain("Artist:   %s\n", result.Candidate.Artist)
	if result.Candidate.ExternalID != "" {
		r.writePlain("ID:       %s\n", result.Candidate.ExternalID)
	}
	if result.Candidate.DurationMS > 0 {
		r.writePlain("Duration: %s\n", shared.FormatDuration(result.Candidate.DurationMS))
	}
	if result.Candidate.ArtworkURL != "" {
		r.writePlain("Artwork:  %s\n", result.Candidate.ArtworkURL)
	}

	return nil
}
