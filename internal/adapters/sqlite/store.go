package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store owns the shared SQLite handle used by every persistence adapter.
// One database file holds the hash index, review queue, snapshots,
// documents and batches so a crawl commits against a single WAL.
type Store struct {
	db *sql.DB
}

// Open creates (or reuses) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Pragmas + schema in one batch to cut round-trips.
	_, err = db.Exec(`
		PRAGMA synchronous = NORMAL;
		PRAGMA busy_timeout = 5000;
		PRAGMA foreign_keys = ON;

		CREATE TABLE IF NOT EXISTS hash_index (
			digest TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			size INTEGER NOT NULL,
			mtime INTEGER NOT NULL,
			customer_root TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS review_items (
			id TEXT PRIMARY KEY,
			mtime INTEGER NOT NULL,
			customer TEXT NOT NULL DEFAULT '',
			project TEXT NOT NULL DEFAULT '',
			confidence REAL NOT NULL,
			payload TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			operation_type TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			payload TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			payload TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS batches (
			id TEXT PRIMARY KEY,
			payload TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_review_mtime ON review_items(mtime);
		CREATE INDEX IF NOT EXISTS idx_snapshots_op ON snapshots(operation_type, created_at);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_digest ON documents(digest);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("setup database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
