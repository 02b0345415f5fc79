package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"

	"git-insights/internal/api"
	"git-insights/internal/config"
	"git-insights/internal/github"
	"git-insights/internal/model"
	"git-insights/internal/scheduler"
	"git-insights/internal/store"
	"git-insights/internal/syncer"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Application startup error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Initialize structured logger
	logLevel := new(slog.LevelVar)
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// 2. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setLogLevel(cfg.LogLevel, logLevel)
	logger.Info("Configuration loaded successfully")

	// 3. Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 4. Connect to the database and run migrations. Request handling and
	// background sync each own an independent pool so a long sync run never
	// starves a request waiting for a connection.
	apiPool, err := pgxpool.New(ctx, cfg.DBURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database (api pool): %w", err)
	}
	defer apiPool.Close()

	syncPool, err := pgxpool.New(ctx, cfg.DBURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database (sync pool): %w", err)
	}
	defer syncPool.Close()
	logger.Info("Database connections established")

	if err := runMigrations(cfg.DBURL); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	logger.Info("Database migrations applied successfully")

	// 5. Initialize application components
	apiAccounts := store.New[model.Account, *model.Account](apiPool, logger)
	apiRepos := store.New[model.Repository, *model.Repository](apiPool, logger)
	syncAccounts := store.New[model.Account, *model.Account](syncPool, logger)
	syncRepos := store.New[model.Repository, *model.Repository](syncPool, logger)

	// One metrics client per sync run; a failure here aborts that run only.
	clientFactory := func() (syncer.MetricsClient, error) {
		return github.NewClient(cfg.GithubToken, cfg.GithubCACert, logger)
	}
	appSyncer := syncer.New(syncAccounts, syncRepos, clientFactory, logger)

	router := api.NewRouter(apiAccounts, apiRepos, apiPool, logger)
	srv := &http.Server{
		Addr:    net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler: router,
	}

	// 6. Start the scheduler and the HTTP server
	go scheduler.Run(ctx, logger, "github metrics sync", cfg.SyncInitialDelay, cfg.SyncInterval,
		func(taskCtx context.Context) {
			if err := appSyncer.Run(taskCtx); err != nil {
				logger.Error("Sync run failed", "error", err)
			}
		})

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	// 7. Wait for shutdown signal or a server failure
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		if !errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		logger.Warn("Shutdown timeout exceeded, forcing close")
		_ = srv.Close()
	}

	logger.Info("Server stopped gracefully")
	return nil
}

func runMigrations(dbURL string) error {
	m, err := migrate.New("file://migrations", dbURL)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func setLogLevel(level string, v *slog.LevelVar) {
	switch level {
	case "debug":
		v.Set(slog.LevelDebug)
	case "warn":
		v.Set(slog.LevelWarn)
	case "error":
		v.Set(slog.LevelError)
	default:
		v.Set(slog.LevelInfo)
	}
}
