package main

import (
	"context"
	"os/signal"
	"sync"
	"syscall"

	"github.com/urfave/cli/v3"

	"songvault/internal/catalogs"
	"songvault/internal/repositories"
	"songvault/internal/shared"
	"songvault/internal/tasks"
)

// BackfillCovers sweeps the song collection and fills missing artwork from
// the iTunes Search API.
func (r *Runner) BackfillCovers(ctx context.Context, cmd *cli.Command) error {
	return r.runSweep(ctx, cmd, "covers", func(config *shared.Config, songs *repositories.SongRepository) (tasks.Enrichment, error) {
		itunes := catalogs.NewITunesService("", config.Credentials.ITunes.Country)
		return tasks.NewCoverEnrichment(itunes, songs), nil
	})
}

// BackfillSpotifyIDs sweeps the song collection and fills missing Spotify
// track IDs.
func (r *Runner) BackfillSpotifyIDs(ctx context.Context, cmd *cli.Command) error {
	return r.runSweep(ctx, cmd, "spotify-ids", func(config *shared.Config, songs *repositories.SongRepository) (tasks.Enrichment, error) {
		spotify, err := r.spotifyCatalog(ctx, config)
		if err != nil {
			return nil, err
		}
		return tasks.NewSpotifyIDEnrichment(spotify, songs), nil
	})
}

// BackfillDurations sweeps the song collection and fills missing track
// durations from Spotify.
func (r *Runner) BackfillDurations(ctx context.Context, cmd *cli.Command) error {
	return r.runSweep(ctx, cmd, "durations", func(config *shared.Config, songs *repositories.SongRepository) (tasks.Enrichment, error) {
		spotify, err := r.spotifyCatalog(ctx, config)
		if err != nil {
			return nil, err
		}
		return tasks.NewDurationEnrichment(spotify, spotify, songs), nil
	})
}

// spotifyCatalog constructs and authenticates a Spotify client. The token is
// exchanged once up front so credential problems surface before the first
// page is fetched.
func (r *Runner) spotifyCatalog(ctx context.Context, config *shared.Config) (*catalogs.SpotifyService, error) {
	spotify, err := catalogs.NewSpotifyService(config.Credentials.Spotify)
	if err != nil {
		return nil, err
	}
	if err := spotify.Authenticate(ctx); err != nil {
		return nil, err
	}
	return spotify, nil
}

// runSweep wires up a sweep for the given enrichment kind, streams progress
// to the output, and prints the final counters.
func (r *Runner) runSweep(ctx context.Context, cmd *cli.Command, kind string, build func(*shared.Config, *repositories.SongRepository) (tasks.Enrichment, error)) error {
	config := r.reloadConfig(cmd)
	if pageSize := cmd.Int("page-size"); pageSize > 0 {
		config.Backfill.PageSize = int(pageSize)
	}

	db, cleanup, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer cleanup()

	songs := repositories.NewSongRepository(db)

	enrichment, err := build(config, songs)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine := tasks.NewSweepEngine(songs, config.Backfill, r.logger)

	progress := make(chan tasks.ProgressUpdate, 64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			r.writePlain("%s\n", update.Message)
		}
	}()

	r.writePlainHeader("Backfill: " + kind)

	counters, sweepErr := engine.Run(ctx, enrichment, progress)
	close(progress)
	wg.Wait()

	if cmd.Bool("json") {
		if err := r.writeJSON(counters, true); err != nil {
			return err
		}
	} else {
		r.writePlainln("Scanned: %d  Missing: %d  Updated: %d  Failures: %d",
			counters.Scanned, counters.Missing, counters.Updated, counters.Failures)
	}

	return sweepErr
}
