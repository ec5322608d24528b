package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"songvault/internal/formatter"
	"songvault/internal/models"
	"songvault/internal/repositories"
	"songvault/internal/shared"
)

// Export writes a playlist and its songs to disk in the requested format.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	config := r.reloadConfig(cmd)
	playlistID := cmd.String("playlist")
	format := cmd.String("format")
	outputPath := cmd.String("output")

	db, cleanup, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer cleanup()

	playlists := repositories.NewPlaylistRepository(db)
	songs := repositories.NewSongRepository(db)

	playlist, err := playlists.Get(playlistID)
	if err != nil {
		return err
	}

	playlistSongs, err := songs.ListByPlaylist(playlistID)
	if err != nil {
		return err
	}

	export := &models.PlaylistExport{Playlist: playlist, Songs: playlistSongs}

	r.logger.Info("exporting playlist", "id", playlistID, "format", format, "songs", len(playlistSongs))

	switch format {
	case "csv":
		result, err := formatter.WriteCSVExport(export, outputPath)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d songs\n", len(playlistSongs))
		r.writePlain("Songs:    %s\n", result.SongsFile)
		r.writePlain("Metadata: %s\n", result.MetadataFile)
	case "markdown", "md":
		result, err := formatter.WriteMarkdownExport(export, outputPath, coverImageURL(playlistSongs))
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d songs to %s\n", len(playlistSongs), result.Directory)
		for _, file := range result.Files {
			r.writePlain("  %s\n", file)
		}
	case "text", "txt":
		file, err := formatter.WriteTextExport(export, outputPath)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d songs to %s\n", len(playlistSongs), file)
	case "json":
		file, err := formatter.WriteJSONExport(export, outputPath)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d songs to %s\n", len(playlistSongs), file)
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}

	return nil
}

// coverImageURL picks the first song artwork as the playlist cover.
func coverImageURL(songs []*models.Song) string {
	for _, song := range songs {
		if song.ImageURL() != "" {
			return song.ImageURL()
		}
	}
	return ""
}
