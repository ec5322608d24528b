package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"songvault/internal/catalogs"
	"songvault/internal/repositories"
	"songvault/internal/server"
	"songvault/internal/shared"
	"songvault/internal/tasks"
)

// Serve starts the HTTP API and the background enrichment queue, and runs
// until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config := r.reloadConfig(cmd)
	if host := cmd.String("host"); host != "" {
		config.Server.Host = host
	}
	if port := cmd.Int("port"); port != 0 {
		config.Server.Port = int(port)
	}

	db, cleanup, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer cleanup()

	songs := repositories.NewSongRepository(db)
	playlists := repositories.NewPlaylistRepository(db)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	enrichments := r.buildEnrichments(ctx, config, songs)

	queue := tasks.NewQueue(0, 0, r.logger)
	queue.Start(ctx)
	defer queue.Close()

	router := server.NewRouter(server.Deps{
		Songs:       songs,
		Playlists:   playlists,
		Queue:       queue,
		Enrichments: enrichments,
		Logger:      r.logger,
	})

	srv := server.New(config.Server, router, r.logger)
	return srv.Start(ctx)
}

// buildEnrichments assembles the enrichments the server queues on song
// creation. The iTunes cover enrichment is always available; the Spotify
// enrichments are skipped when credentials are absent or the token exchange
// fails, since the sweep can fill those fields later.
func (r *Runner) buildEnrichments(ctx context.Context, config *shared.Config, songs *repositories.SongRepository) []tasks.Enrichment {
	itunes := catalogs.NewITunesService("", config.Credentials.ITunes.Country)
	enrichments := []tasks.Enrichment{tasks.NewCoverEnrichment(itunes, songs)}

	spotify, err := catalogs.NewSpotifyService(config.Credentials.Spotify)
	if err != nil {
		r.logger.Warn("spotify enrichment disabled", "error", err)
		return enrichments
	}
	if err := spotify.Authenticate(ctx); err != nil {
		r.logger.Warn("spotify enrichment disabled", "error", err)
		return enrichments
	}

	return append(enrichments,
		tasks.NewSpotifyIDEnrichment(spotify, songs),
		tasks.NewDurationEnrichment(spotify, spotify, songs),
	)
}
