// Package app assembles and runs the registry API server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/plexushq/plexus-registry-server/internal/config"
	"github.com/plexushq/plexus-registry-server/pkg/logger"
)

// shutdownTimeout bounds the graceful HTTP shutdown when Run's context is
// cancelled.
const shutdownTimeout = 10 * time.Second

// App encapsulates the running registry server and its collaborators.
type App struct {
	config     *config.Config
	components *Components
	httpServer *http.Server
}

// Run serves HTTP until ctx is cancelled or the server fails, then shuts
// everything down in order: HTTP listener, event publisher, telemetry.
func (app *App) Run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)
	serveDone := make(chan struct{})

	group.Go(func() error {
		defer close(serveDone)
		logger.Infof("Server listening on %s", app.httpServer.Addr)
		if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		select {
		case <-groupCtx.Done():
		case <-serveDone:
			// The listener already stopped on its own, e.g. through Stop.
			return nil
		}

		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	err := group.Wait()

	app.components.Publisher.Close()
	telemetryCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if telErr := app.components.Telemetry.Shutdown(telemetryCtx); telErr != nil {
		logger.Errorf("Telemetry shutdown failed: %v", telErr)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("server shutdown complete")
	return nil
}

// Stop asks a running app to shut its HTTP listener down. Run takes care of
// the remaining teardown. Primarily for tests driving the app directly.
func (app *App) Stop(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return app.httpServer.Shutdown(ctx)
}

// Config returns the application configuration.
func (app *App) Config() *config.Config {
	return app.config
}

// Components returns the assembled collaborators, for tests that need to
// reach past the HTTP surface.
func (app *App) Components() *Components {
	return app.components
}

// HTTPServer exposes the underlying server, useful for tests to learn the
// bound address.
func (app *App) HTTPServer() *http.Server {
	return app.httpServer
}
