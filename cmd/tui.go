package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"songvault/internal/repositories"
	"songvault/internal/shared"
	"songvault/internal/ui"
)

// Browse launches the interactive terminal UI for browsing playlists and
// their songs.
func (r *Runner) Browse(ctx context.Context, cmd *cli.Command) error {
	config := r.reloadConfig(cmd)
	userID := cmd.String("user")

	db, cleanup, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer cleanup()

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/songvault-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	playlists := repositories.NewPlaylistRepository(db)
	songs := repositories.NewSongRepository(db)

	model := ui.NewModel(userID, playlists, songs)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
