package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"docsort/internal/domain"
	"docsort/internal/ports"
)

// HashIndex is the digest → primary-location store backed by the shared
// database. Put upserts synchronously so an acknowledged write survives a
// crash.
type HashIndex struct {
	db *sql.DB
}

var _ ports.HashIndex = (*HashIndex)(nil)

// NewHashIndex returns the hash index view of the store.
func NewHashIndex(store *Store) *HashIndex {
	return &HashIndex{db: store.db}
}

// Load reads the full index into a map keyed by digest.
func (h *HashIndex) Load() (map[string]domain.ContentRecord, error) {
	rows, err := h.db.Query(`SELECT digest, path, size, mtime, customer_root FROM hash_index`)
	if err != nil {
		return nil, fmt.Errorf("load hash index: %w", err)
	}
	defer rows.Close()

	index := make(map[string]domain.ContentRecord)
	for rows.Next() {
		var rec domain.ContentRecord
		var mtime int64
		if err := rows.Scan(&rec.Digest, &rec.Path, &rec.Size, &mtime, &rec.CustomerRoot); err != nil {
			return nil, fmt.Errorf("scan hash index row: %w", err)
		}
		rec.MTime = time.Unix(0, mtime)
		index[rec.Digest] = rec
	}
	return index, rows.Err()
}

// Get returns the record for digest or domain.ErrNotFound.
func (h *HashIndex) Get(digest string) (*domain.ContentRecord, error) {
	row := h.db.QueryRow(`SELECT digest, path, size, mtime, customer_root FROM hash_index WHERE digest = ?`, digest)

	var rec domain.ContentRecord
	var mtime int64
	if err := row.Scan(&rec.Digest, &rec.Path, &rec.Size, &mtime, &rec.CustomerRoot); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get hash index entry: %w", err)
	}
	rec.MTime = time.Unix(0, mtime)
	return &rec, nil
}

// Put inserts or replaces the record for its digest.
func (h *HashIndex) Put(rec domain.ContentRecord) error {
	_, err := h.db.Exec(`
		INSERT INTO hash_index (digest, path, size, mtime, customer_root)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(digest) DO UPDATE SET
			path = excluded.path,
			size = excluded.size,
			mtime = excluded.mtime,
			customer_root = excluded.customer_root`,
		rec.Digest, rec.Path, rec.Size, rec.MTime.UnixNano(), rec.CustomerRoot)
	if err != nil {
		return fmt.Errorf("put hash index entry: %w", err)
	}
	return nil
}
