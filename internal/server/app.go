// Package server wires the VidKeeper application together: storage,
// services and the HTTP server, and runs it until a termination signal.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/vidkeeper/internal/cryptox"
	"github.com/dmitrijs2005/vidkeeper/internal/logging"
	"github.com/dmitrijs2005/vidkeeper/internal/server/auth"
	"github.com/dmitrijs2005/vidkeeper/internal/server/config"
	"github.com/dmitrijs2005/vidkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/vidkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/vidkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/vidkeeper/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(c.LogBackend, os.Stdout)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	accounts := services.NewAccountService(db, rm, cryptox.NewArgon2idHasher())
	videos := services.NewVideoService(db, rm)

	srv, err := httpapi.NewServer(
		httpapi.Options{
			Address:        c.EndpointAddrHTTP,
			RequestTimeout: c.RequestTimeout,
			CookieSecure:   c.CookieSecure,
		},
		logger,
		auth.NewSessionManager([]byte(c.SecretKey), c.SessionValidityDuration),
		httpapi.Services{
			Accounts: accounts,
			Videos:   videos,
			Gate:     services.NewGate(accounts),
			Exports:  services.NewExportService(videos, c),
		},
		db,
		metrics.New(),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	if c.ExportsToS3() {
		logger.Info(ctx, "exports go to object storage", "bucket", c.S3Bucket)
	}

	return &App{config: c, logger: logger, db: db, server: srv}, nil
}

// Run serves until SIGINT, SIGTERM or SIGQUIT, then closes the database.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting app...")

	err := app.server.Run(ctx)
	if err != nil {
		app.logger.Error(ctx, "http server stopped", logging.ErrorArgs(err)...)
	}

	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error(ctx, "closing database", logging.ErrorArgs(cerr)...)
	}

	app.logger.Info(ctx, "App stopped")
	return err
}
