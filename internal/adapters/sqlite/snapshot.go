package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"docsort/internal/domain"
	"docsort/internal/ports"
)

// SnapshotStore persists snapshots as immutable JSON payloads with the
// operation type and creation time denormalized for listing.
type SnapshotStore struct {
	db *sql.DB
}

var _ ports.SnapshotStore = (*SnapshotStore)(nil)

// NewSnapshotStore returns the snapshot view of the store.
func NewSnapshotStore(store *Store) *SnapshotStore {
	return &SnapshotStore{db: store.db}
}

// Save inserts the snapshot. Saving an existing id fails; snapshots are
// never rewritten.
func (s *SnapshotStore) Save(snapshot domain.Snapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO snapshots (id, operation_type, created_at, payload)
		VALUES (?, ?, ?, ?)`,
		snapshot.ID, string(snapshot.OperationType), snapshot.Timestamp.UnixNano(), string(payload))
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// Get returns the snapshot with the given id or domain.ErrNotFound.
func (s *SnapshotStore) Get(id string) (*domain.Snapshot, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM snapshots WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	var snapshot domain.Snapshot
	if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snapshot, nil
}

// List returns snapshots newest first, optionally filtered by operation
// type and creation time. limit <= 0 means no limit.
func (s *SnapshotStore) List(op domain.OperationType, since time.Time, limit int) ([]domain.Snapshot, error) {
	query := `SELECT payload FROM snapshots WHERE 1=1`
	var args []any
	if op != "" {
		query += ` AND operation_type = ?`
		args = append(args, string(op))
	}
	if !since.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, since.UnixNano())
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []domain.Snapshot
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		var snapshot domain.Snapshot
		if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, rows.Err()
}

// Delete removes a snapshot; deleting a missing id is not an error.
func (s *SnapshotStore) Delete(id string) error {
	if _, err := s.db.Exec(`DELETE FROM snapshots WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}
