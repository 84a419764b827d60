package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lending-service/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultMaxConns   = 10
	applicationName   = "lending-service"
	pingTimeout       = 5 * time.Second
	connectAttempts   = 5
	connectRetryDelay = time.Second
)

var errEmptyDatabaseURL = errors.New("database URL is empty in configuration")

type pinger interface {
	Ping(ctx context.Context) error
}

// NewConnectionPool opens a pgx pool and waits until the server answers,
// retrying a few times so the service can start alongside its database.
func NewConnectionPool(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := configurePool(cfg)
	if err != nil {
		return nil, err
	}

	logger.Info("Connecting to PostgreSQL",
		"host", poolConfig.ConnConfig.Host,
		"db", poolConfig.ConnConfig.Database,
		"maxConns", poolConfig.MaxConns)
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := waitForDatabase(ctx, pool, connectAttempts, connectRetryDelay, logger); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("Connected to PostgreSQL")
	return pool, nil
}

func configurePool(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	if cfg.URL == "" {
		return nil, errEmptyDatabaseURL
	}
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = defaultMaxConns
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute
	if _, ok := poolConfig.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	return poolConfig, nil
}

// waitForDatabase pings db up to attempts times, sleeping delay between tries.
func waitForDatabase(ctx context.Context, db pinger, attempts int, delay time.Duration, logger *slog.Logger) error {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		lastErr = db.Ping(pingCtx)
		cancel()
		if lastErr == nil {
			return nil
		}

		logger.Warn("Database not reachable yet", "attempt", attempt, "maxAttempts", attempts, "error", lastErr)
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for database: %w", ctx.Err())
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("database unreachable after %d attempts: %w", attempts, lastErr)
}
