package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/creature-forge/internal/domain"
)

// SchemaVersion is the current schema version of the local database.
// Upgrades are additive only: a migration never drops or rewrites data.
const SchemaVersion = 2

// Store provides durable local persistence for the three game collections:
// creatures, settings and session scores. It owns the records exclusively;
// callers hold read-through copies only.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the SQLite database at path and brings the schema
// to the current version. Opening an already-initialized database is a no-op
// beyond the version check, and concurrent opens of the same path converge
// on the same schema without erroring.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty database path", domain.ErrStoreInit)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: creating database directory: %v", domain.ErrStoreInit, err)
		}
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", domain.ErrStoreInit, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: pinging database: %v", domain.ErrStoreInit, err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: migrating schema: %v", domain.ErrStoreInit, err)
	}

	return s, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// migrations maps a target schema version to the statements that reach it
// from the previous version. Every statement is idempotent, so re-running a
// step against an already-upgraded database is a no-op.
var migrations = map[int][]string{
	1: {
		`CREATE TABLE IF NOT EXISTS creatures (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			rarity TEXT NOT NULL,
			score INTEGER NOT NULL,
			image_url TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	},
	2: {
		`CREATE TABLE IF NOT EXISTS session_scores (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			score INTEGER NOT NULL,
			nickname TEXT NOT NULL,
			date TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_session_scores_score ON session_scores(score DESC, id ASC)`,
	},
}

// migrate brings the schema up to SchemaVersion
func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY)`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}

	var current int
	err = s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for v := current + 1; v <= SchemaVersion; v++ {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("beginning migration %d: %w", v, err)
		}

		for _, stmt := range migrations[v] {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				tx.Rollback()
				return fmt.Errorf("executing migration %d: %w", v, err)
			}
		}

		// INSERT OR IGNORE keeps concurrent openers from tripping over each
		// other when both attempt the same upgrade step.
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO schema_migrations (version) VALUES (?)`, v); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", v, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", v, err)
		}
	}

	if s.logger != nil && current < SchemaVersion {
		s.logger.Info("store migrations completed", "from", current, "to", SchemaVersion)
	}
	return nil
}
