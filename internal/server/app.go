// Package server wires storage, services and the HTTP API together and runs
// them until a termination signal arrives.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/ashdiag/internal/buildinfo"
	"github.com/dmitrijs2005/ashdiag/internal/logging"
	"github.com/dmitrijs2005/ashdiag/internal/server/config"
	"github.com/dmitrijs2005/ashdiag/internal/server/httpapi"
	"github.com/dmitrijs2005/ashdiag/internal/server/notify"
	"github.com/dmitrijs2005/ashdiag/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/ashdiag/internal/server/services"
)

// newRepositoryManager is swapped in tests.
var newRepositoryManager = repomanager.New

type App struct {
	config *config.Config
	logger logging.Logger
	repos  repomanager.RepositoryManager
	server *httpapi.Server
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	return newApp(c, logger)
}

func newApp(c *config.Config, logger logging.Logger) (*App, error) {
	rm, err := newRepositoryManager(c.StorageDriver, c.DataDir, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}
	if err := rm.RunMigrations(context.Background()); err != nil {
		closeRepos(logger, rm)
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	notifier, err := notify.New(c, logger)
	if err != nil {
		closeRepos(logger, rm)
		return nil, fmt.Errorf("notifier init error: %w", err)
	}

	proxies, err := httpapi.ParseTrustedProxies(c.TrustedProxies)
	if err != nil {
		closeRepos(logger, rm)
		return nil, fmt.Errorf("http init error: %w", err)
	}

	keys := services.NewKeyService(rm.Keys(), c, logger)
	sessions := services.NewSessionService(rm.Sessions(), c, logger)
	diagnostics := services.NewDiagnosticService(rm.Diagnostics(), rm.Keys(), logger)
	limiter := services.NewAttemptLimiter(rm.Attempts(), c, logger)

	h := httpapi.NewHandler(httpapi.Services{
		Redemption:  services.NewRedemptionService(keys, sessions, diagnostics, limiter, notifier, logger),
		Keys:        keys,
		Sessions:    sessions,
		Diagnostics: diagnostics,
		Admin:       services.NewAdminService(c, logger),
	}, httpapi.Options{AllowedOrigins: c.AllowedOrigins, TrustedProxies: proxies}, logger)

	return &App{
		config: c,
		logger: logger,
		repos:  rm,
		server: httpapi.NewServer(c.HTTPAddr, httpapi.NewRouter(h), logger),
	}, nil
}

func closeRepos(logger logging.Logger, rm repomanager.RepositoryManager) {
	if err := rm.Close(); err != nil {
		logger.Error(context.Background(), "closing storage", "error", err)
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

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...",
		"version", buildinfo.Version,
		"commit", buildinfo.Commit,
		"storage", app.config.StorageDriver,
	)

	app.initSignalHandler(cancelFunc)

	err := app.server.Run(ctx)
	closeRepos(app.logger, app.repos)
	if err != nil {
		app.logger.Error(ctx, "http server failed", "error", err)
		return err
	}
	app.logger.Info(ctx, "App stopped")
	return nil
}
