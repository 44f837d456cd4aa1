package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"boardx/internal/domain"
)

// DB wraps the SQLite database connection.
type DB struct {
	conn *sqlx.DB
	path string
}

// New opens (or creates) the SQLite file at dbPath.
// The schema is not touched until Setup is called.
func New(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, domain.NewStorageError("open", fmt.Errorf("create db directory: %w", err))
	}

	conn, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, domain.NewStorageError("open", err)
	}
	// One connection: SQLite has a single writer, and PRAGMA data_version is per connection.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, domain.NewStorageError("open", err)
	}

	return &DB{conn: conn, path: dbPath}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// Conn returns the underlying database connection.
func (db *DB) Conn() *sqlx.DB {
	return db.conn
}

// Setup creates the tables if missing. It is safe to call repeatedly and never
// modifies existing rows.
func (db *DB) Setup(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS blocks (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL DEFAULT 'label',
			data TEXT NOT NULL DEFAULT '',
			x REAL NOT NULL DEFAULT 0,
			y REAL NOT NULL DEFAULT 0,
			width REAL NOT NULL DEFAULT 0,
			height REAL NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_blocks_xy ON blocks(x, y)`,
		`CREATE TABLE IF NOT EXISTS app_settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL DEFAULT ''
		)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.ExecContext(ctx, m); err != nil {
			return domain.NewStorageError("setup", fmt.Errorf("migration failed: %s: %w", m[:40], err))
		}
	}
	return nil
}

// DataVersion returns SQLite's data_version for this connection. It changes
// only when another connection (usually another process) commits.
func (db *DB) DataVersion(ctx context.Context) (int64, error) {
	var v int64
	if err := db.conn.QueryRowContext(ctx, `PRAGMA data_version`).Scan(&v); err != nil {
		return 0, domain.NewStorageError("data_version", err)
	}
	return v, nil
}

// Checkpoint folds the WAL back into the main database file and truncates it.
func (db *DB) Checkpoint(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`)
	return domain.NewStorageError("checkpoint", err)
}
