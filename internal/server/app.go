// Package server wires configuration, storage, services and the HTTP
// boundary into a runnable application.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/channelauth/internal/logging"
	"github.com/dmitrijs2005/channelauth/internal/server/auth"
	"github.com/dmitrijs2005/channelauth/internal/server/config"
	"github.com/dmitrijs2005/channelauth/internal/server/httpapi"
	"github.com/dmitrijs2005/channelauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/channelauth/internal/server/services"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	manager repomanager.RepositoryManager
	closer  io.Closer
	router  http.Handler
	server  *httpapi.HTTPServer
}

// NewApp builds every component from c. Logs go to w.
func NewApp(c *config.Config, w io.Writer) (*App, error) {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}
	logger, err := logging.New(c.LogBackend, level, w)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	app := &App{config: c, logger: logger}

	app.manager, app.closer, err = repomanager.Open(c.StorageDriver, c.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokenIssuer(auth.TokenConfig{
		AccessSecret:  []byte(c.AccessTokenSecret),
		RefreshSecret: []byte(c.RefreshTokenSecret),
		AccessTTL:     c.AccessTokenValidityDuration,
		RefreshTTL:    c.RefreshTokenValidityDuration,
	})
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("token issuer init error: %w", err)
	}

	sessions := services.NewSessionService(app.manager, tokens, c.StoreTimeout, logger)
	channels := services.NewChannelService(app.manager, c.StoreTimeout, logger)
	h := httpapi.NewHandler(sessions, channels, logger, c.CookieSecure)

	app.router = httpapi.NewRouter(h, tokens, logger)
	app.server = httpapi.NewHTTPServer(c.EndpointAddrHTTP, app.router, logger)
	return app, nil
}

// Close releases the database handle, if any.
func (app *App) Close() {
	if app.closer != nil {
		if err := app.closer.Close(); err != nil {
			app.logger.Warn(context.Background(), "close storage", "error", err)
		}
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run migrates the store and serves until ctx is cancelled or a
// termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.Close()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.StorageDriver)

	app.initSignalHandler(cancelFunc)

	if err := app.manager.RunMigrations(ctx); err != nil {
		app.logger.Error(ctx, "migrations failed", "error", err)
		return err
	}

	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, "http server failed", "error", err)
		return err
	}

	app.logger.Info(ctx, "App stopped")
	return nil
}
