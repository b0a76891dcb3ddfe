// Package server wires the scanvault HTTP server: configuration, logging,
// the database and its migrations, blob storage and the REST API, and runs
// it until SIGINT or SIGTERM.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/scanvault/internal/logging"
	"github.com/dmitrijs2005/scanvault/internal/server/config"
	"github.com/dmitrijs2005/scanvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/scanvault/internal/server/rest"
	"github.com/dmitrijs2005/scanvault/internal/server/services"
	"github.com/dmitrijs2005/scanvault/internal/server/storage"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *rest.Server
}

// openDB and newGateway are seams for tests.
var (
	openDB     = repomanager.Open
	newGateway = storage.New
)

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.LogFormat, c.LogLevel)

	db, rm, err := openDB(ctx, c.DatabaseDriver, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db migrations error: %w", err)
	}

	gw, err := newGateway(ctx, c, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	h := rest.NewHandler(rest.Deps{
		Users:         services.NewUserService(db, rm, c, logger),
		Scans:         services.NewScanService(db, rm, gw, logger),
		Tags:          services.NewTagService(db, rm, logger),
		Projects:      services.NewProjectService(db, rm, logger),
		Ping:          db.PingContext,
		Logger:        logger,
		MaxUploadSize: c.MaxUploadSize,
	})

	opts := rest.RouterOptions{
		CORSOrigins:   c.CORSOrigins,
		AuthRateLimit: c.AuthRateLimit,
		Metrics:       rest.NewMetrics(),
	}
	if local, ok := gw.(*storage.LocalGateway); ok {
		opts.LocalRoot = local.Root()
	}

	srv := rest.NewServer(c.HTTPAddr, rest.NewRouter(h, opts), c.ShutdownTimeout, logger)

	return &App{config: c, logger: logger, db: db, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run blocks until the server stops, then closes the database.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...",
		"database", app.config.DatabaseDriver, "storage", app.config.StorageBackend)

	app.initSignalHandler(cancelFunc)

	err := app.server.Run(ctx)
	if err != nil {
		app.logger.Error(ctx, "http server", "error", err)
	}

	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error(ctx, "close database", "error", cerr)
	}
	app.logger.Info(ctx, "App stopped")

	return err
}
