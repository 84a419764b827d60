package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lending-service/internal/api"
	"lending-service/internal/config"
	"lending-service/internal/infrastructure/database/postgres"
	"lending-service/internal/infrastructure/monitoring"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	shutdownTimeout    = 20 * time.Second
	serverExitDeadline = 5 * time.Second
)

func runServe(configPath string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	return withDatabase(ctx, configPath, func(ctx context.Context, app *application) error {
		if app.cfg.Database.AutoMigrate {
			if _, err := runMigrations(ctx, app); err != nil {
				return err
			}
		}
		if app.cfg.Database.SeedOnStart {
			if _, err := runSeed(ctx, app); err != nil {
				return err
			}
		}

		if pool, ok := app.db.(*pgxpool.Pool); ok {
			stats := func() monitoring.PoolStats { return pool.Stat() }
			if err := monitoring.RegisterPoolCollector(prometheus.DefaultRegisterer, stats); err != nil {
				app.logger.Warn("Failed to register pool metrics", "error", err)
			}
		}

		publisher, closePublisher := initializePublisher(app.cfg.RabbitMQ, app.logger)
		defer closePublisher()

		services := initializeServices(app.db, publisher, app.loc, app.logger)
		health := func(ctx context.Context) error { return postgres.Ping(ctx, app.db) }
		router := api.SetupRouter(ctx, services, health, app.cfg, app.logger)

		srv, serverErrors, shutdownChan := startServer(app.cfg, router, app.logger)
		return handleShutdown(srv, shutdownChan, serverErrors, app.logger)
	})
}

func startServer(cfg *config.Config, router http.Handler, logger *slog.Logger) (*http.Server, <-chan error, <-chan os.Signal) {
	logger.Info("Setting up HTTP server...", "port", cfg.Server.Port)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", srv.Addr)
		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			serverErrors <- err
			return
		}
		logger.Info("Server closed gracefully.")
		serverErrors <- nil
	}()
	return srv, serverErrors, shutdownChan
}

func handleShutdown(srv *http.Server, shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) error {
	logger.Info("Waiting for shutdown signal or server error...")

	select {
	case sig := <-shutdownChan:
		logger.Info("Shutdown signal received.", "signal", sig.String())
	case err := <-serverErrors:
		if err != nil {
			logger.Error("Server exited unexpectedly before signal", "error", err)
			return err
		}
		logger.Info("Server goroutine finished before signal.")
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger.Info("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", "error", err)
		if err := srv.Close(); err != nil {
			logger.Error("HTTP server forced close failed", "error", err)
		}
	} else {
		logger.Info("HTTP server gracefully stopped.")
	}

	select {
	case err := <-serverErrors:
		if err != nil {
			logger.Warn("Server goroutine exited with unexpected error after shutdown", "error", err)
		}
	case <-time.After(serverExitDeadline):
		logger.Warn("Timed out waiting for server goroutine confirmation.")
	}

	logger.Info("Application shutdown process complete.")
	return nil
}
