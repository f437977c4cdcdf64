// Package server wires the gallerysync application together: configuration,
// logging, the PostgreSQL metadata store, the object store, the
// synchronization services and the HTTP API. It also handles graceful
// shutdown on SIGINT, SIGTERM and SIGQUIT.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/gallerysync/internal/logging"
	"github.com/dmitrijs2005/gallerysync/internal/server/config"
	"github.com/dmitrijs2005/gallerysync/internal/server/executor"
	"github.com/dmitrijs2005/gallerysync/internal/server/httpapi"
	"github.com/dmitrijs2005/gallerysync/internal/server/objectstore"
	"github.com/dmitrijs2005/gallerysync/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gallerysync/internal/server/services"
	"github.com/dmitrijs2005/gallerysync/internal/server/thumbnail"
)

var (
	openDB = func(dsn string) (*sql.DB, error) {
		return sql.Open("pgx", dsn)
	}
	newRepositoryManager = repomanager.NewPostgresRepositoryManager
	newObjectStore       = objectstore.New
)

type runner interface {
	Run(ctx context.Context) error
}

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server runner
}

// NewApp opens the database, applies migrations and builds every service.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(c.LogFormat, os.Stdout, c.Debug)

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := newRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	store, err := newObjectStore(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("object store init error: %w", err)
	}

	exec := executor.New(store, c.OperationTimeout, logger.With("module", "executor"))
	renderer := thumbnail.NewRenderer(c.ThumbnailWidth)

	uploads := services.NewUploadService(db, rm, exec, renderer, c, logger.With("module", "uploads"))
	deletions := services.NewDeletionService(db, rm, exec, c, logger.With("module", "deletions"))

	srv := httpapi.NewHTTPServer(c.HTTPAddr, logger, uploads, deletions, c.SecretKey, c.MaxUploadSize)

	return &App{config: c, logger: logger, db: db, server: srv}, nil
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// closes the database.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting app...", "object_store", app.config.ObjectStore)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.server.Run(ctx)
	})

	err := g.Wait()

	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error(ctx, "failed to close database", "error", cerr)
	}

	if err != nil {
		app.logger.Error(ctx, "app stopped with error", "error", err)
		return err
	}

	app.logger.Info(ctx, "App stopped")
	return nil
}
