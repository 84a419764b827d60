package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"

	"lending-service/internal/pkg/apperrors"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// migrationLockID serialises concurrent migrate runs (several replicas starting at once).
const migrationLockID int64 = 7_420_118_001

const (
	lockMigrationsSQL = `SELECT pg_advisory_xact_lock($1)`

	createMigrationsTableSQL = `
        CREATE TABLE IF NOT EXISTS schema_migrations (
            version    VARCHAR(255) PRIMARY KEY,
            applied_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
        )`

	migrationAppliedSQL = `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`

	recordMigrationSQL = `INSERT INTO schema_migrations (version) VALUES ($1)`
)

type migration struct {
	Version string
	SQL     string
}

func loadMigrations() ([]migration, error) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("reading embedded migrations: %w", err)
	}

	migrations := make([]migration, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		body, err := migrationFS.ReadFile(path.Join("migrations", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}
		migrations = append(migrations, migration{
			Version: strings.TrimSuffix(entry.Name(), ".sql"),
			SQL:     string(body),
		})
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}

// Migrate applies every embedded migration not yet recorded in
// schema_migrations, all inside one transaction.
func Migrate(ctx context.Context, db DBPool, logger *slog.Logger) (applied int, err error) {
	logger = logger.With("component", "Migrator")

	migrations, err := loadMigrations()
	if err != nil {
		return 0, err
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rollback(ctx, tx, logger)

	if _, err := tx.Exec(ctx, lockMigrationsSQL, migrationLockID); err != nil {
		return 0, fmt.Errorf("%w: acquiring migration lock: %w", apperrors.ErrDatabase, err)
	}
	if _, err := tx.Exec(ctx, createMigrationsTableSQL); err != nil {
		return 0, fmt.Errorf("%w: creating schema_migrations: %w", apperrors.ErrDatabase, err)
	}

	for _, m := range migrations {
		var done bool
		if err := tx.QueryRow(ctx, migrationAppliedSQL, m.Version).Scan(&done); err != nil {
			return 0, fmt.Errorf("%w: checking migration %s: %w", apperrors.ErrDatabase, m.Version, err)
		}
		if done {
			logger.DebugContext(ctx, "Migration already applied", "version", m.Version)
			continue
		}

		if _, err := tx.Exec(ctx, m.SQL); err != nil {
			return 0, fmt.Errorf("%w: applying migration %s: %w", apperrors.ErrDatabase, m.Version, err)
		}
		if _, err := tx.Exec(ctx, recordMigrationSQL, m.Version); err != nil {
			return 0, fmt.Errorf("%w: recording migration %s: %w", apperrors.ErrDatabase, m.Version, err)
		}
		logger.InfoContext(ctx, "Migration applied", "version", m.Version)
		applied++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%w: committing migrations: %w", apperrors.ErrDatabase, err)
	}
	logger.InfoContext(ctx, "Schema is up to date", "applied", applied, "known", len(migrations))
	return applied, nil
}
