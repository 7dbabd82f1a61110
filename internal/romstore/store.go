// Package romstore persists scraped ROM records in SQLite.
package romstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/XSAM/otelsql"
	"go.opentelemetry.io/otel/attribute"
	_ "modernc.org/sqlite"
)

// Store wraps a SQLite database holding ROM records and their assets.
type Store struct {
	conn *sql.DB
	path string
}

// Open opens or creates a store at the given path.
func Open(ctx context.Context, path string) (*Store, error) {
	conn, err := otelsql.Open("sqlite", path,
		otelsql.WithAttributes(attribute.String("db.system", "sqlite")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// modernc sqlite serializes writers; one connection avoids SQLITE_BUSY.
	conn.SetMaxOpenConns(1)

	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{conn: conn, path: path}
	if err := s.migrate(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Conn returns the underlying database connection.
func (s *Store) Conn() *sql.DB {
	return s.conn
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs database migrations up to the current schema version.
func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	var version int
	err := s.conn.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	if version < 1 {
		if err := s.migrateV1(ctx); err != nil {
			return err
		}
	}

	return nil
}

// migrateV1 creates the initial schema.
func (s *Store) migrateV1(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS roms (
			id TEXT PRIMARY KEY,
			path TEXT UNIQUE NOT NULL,
			platform TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			year TEXT NOT NULL DEFAULT '',
			genre TEXT NOT NULL DEFAULT '',
			developer TEXT NOT NULL DEFAULT '',
			players TEXT NOT NULL DEFAULT '',
			rating TEXT NOT NULL DEFAULT '',
			plot TEXT NOT NULL DEFAULT '',
			metadata_source TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			scraped_at DATETIME
		);

		CREATE INDEX IF NOT EXISTS idx_roms_platform ON roms(platform);

		CREATE TABLE IF NOT EXISTS rom_assets (
			rom_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			path TEXT NOT NULL,
			PRIMARY KEY (rom_id, kind),
			FOREIGN KEY(rom_id) REFERENCES roms(id) ON DELETE CASCADE
		);

		INSERT INTO schema_version (version) VALUES (1);
	`

	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute v1 migration: %w", err)
	}

	return nil
}
