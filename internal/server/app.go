package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"songvault/internal/repositories"
	"songvault/internal/shared"
	"songvault/internal/tasks"
)

// Deps bundles everything the API needs.
type Deps struct {
	Songs       *repositories.SongRepository
	Playlists   *repositories.PlaylistRepository
	Queue       *tasks.Queue
	Enrichments []tasks.Enrichment
	Logger      *log.Logger
}

// NewRouter assembles the full API router with logging and request-id
// middleware.
func NewRouter(deps Deps) *BasicRouter {
	if deps.Logger == nil {
		deps.Logger = shared.NewLogger(os.Stderr)
	}

	router := NewBasicRouter()
	router.Use(RequestID(), Logging(deps.Logger))

	router.Handler(&HealthHandler{})
	router.Handler(NewSongsHandler(deps.Songs, deps.Queue, deps.Enrichments, deps.Logger))
	router.Handler(NewPlaylistsHandler(deps.Playlists, deps.Songs))
	router.Handler(NewPublicHandler(deps.Playlists, deps.Songs))

	return router
}

// Server wraps http.Server with graceful shutdown.
type Server struct {
	httpServer *http.Server
	logger     *log.Logger
}

// New creates a Server listening on the configured host and port.
func New(config shared.ServerConfig, router Router, logger *log.Logger) *Server {
	if logger == nil {
		logger = shared.NewLogger(os.Stderr)
	}

	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}
