package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.up.sql
var migrationFiles embed.FS

// Execer is the subset of a pool or connection the migrator needs.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Migrate applies every embedded *.up.sql file not yet recorded in
// schema_migrations, in lexical order.
func Migrate(ctx context.Context, db Execer, log zerolog.Logger) error {
	return migrate(ctx, db, migrationFiles, log)
}

func migrate(ctx context.Context, db Execer, files fs.FS, log zerolog.Logger) error {
	_, err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	names, err := upMigrations(files)
	if err != nil {
		return err
	}

	log.Debug().Int("count", len(names)).Msg("found migrations")

	query := "SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)"

	for _, migration := range names {
		var exists bool

		if err := db.QueryRow(ctx, query, migration).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check migration %s: %w", migration, err)
		}

		if exists {
			log.Debug().Str("version", migration).Msg("migration already applied")
			continue
		}

		sqlBytes, err := fs.ReadFile(files, "migrations/"+migration)
		if err != nil {
			return fmt.Errorf("failed to read sql file %s: %w", migration, err)
		}

		if _, err := db.Exec(ctx, string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to apply sql file %s: %w", migration, err)
		}

		_, err = db.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", migration)
		if err != nil {
			return fmt.Errorf("failed to record migration %s: %w", migration, err)
		}

		log.Info().Str("version", migration).Msg("migration applied")
	}

	return nil
}

func upMigrations(files fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(files, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			names = append(names, entry.Name())
		}
	}

	sort.Strings(names)
	return names, nil
}
