// Package app wires together the room coordinator and the transport layer.
package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/mxchen/turtlesoup-server/internal/config"
	"github.com/mxchen/turtlesoup-server/internal/core"
	"github.com/mxchen/turtlesoup-server/internal/recovery"
	"github.com/mxchen/turtlesoup-server/internal/store/sqlite"
	transporthttp "github.com/mxchen/turtlesoup-server/internal/transport/http"
)

// App holds the running pieces of the server.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	room            *core.Room
	library         *sqlite.Library
	log             *zerolog.Logger
}

// New constructs the application with the provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	library, err := sqlite.New(cfg.LibraryPath())
	if err != nil {
		return nil, fmt.Errorf("init puzzle library: %w", err)
	}
	if err := library.SeedFromJSON(context.Background(), cfg.SeedPath()); err != nil {
		logger.Warn().Err(err).Str("path", cfg.SeedPath()).Msg("failed to seed puzzle library")
	}
	logger.Info().Str("db_path", cfg.LibraryPath()).Msg("puzzle library initialized")

	snapshots := recovery.NewManager(cfg.SnapshotPath(), cfg.SnapshotTTL, logger)
	restored := snapshots.Load()

	room := core.NewRoom(library, snapshots, restored, logger)
	server := transporthttp.NewServer(room, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		room:            room,
		library:         library,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go a.room.Run(ctx)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes the puzzle library and other resources.
func (a *App) cleanup() {
	if a.library != nil {
		if err := a.library.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close puzzle library")
		} else {
			a.log.Info().Msg("puzzle library closed")
		}
	}
}
