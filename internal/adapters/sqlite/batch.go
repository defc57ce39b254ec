package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"docsort/internal/domain"
	"docsort/internal/ports"
)

// BatchStore persists processing-batch aggregates.
type BatchStore struct {
	db *sql.DB
}

var _ ports.BatchStore = (*BatchStore)(nil)

// NewBatchStore returns the batch view of the store.
func NewBatchStore(store *Store) *BatchStore {
	return &BatchStore{db: store.db}
}

// Save inserts or replaces the batch.
func (s *BatchStore) Save(batch domain.ProcessingBatch) error {
	payload, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO batches (id, payload) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload`,
		batch.ID, string(payload))
	if err != nil {
		return fmt.Errorf("save batch: %w", err)
	}
	return nil
}

// Get returns the batch with the given id or domain.ErrNotFound.
func (s *BatchStore) Get(id string) (*domain.ProcessingBatch, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM batches WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get batch: %w", err)
	}
	var batch domain.ProcessingBatch
	if err := json.Unmarshal([]byte(payload), &batch); err != nil {
		return nil, fmt.Errorf("decode batch: %w", err)
	}
	return &batch, nil
}

// SetState restores the counters captured in a snapshot.
func (s *BatchStore) SetState(id string, state domain.BatchState) error {
	batch, err := s.Get(id)
	if err != nil {
		return err
	}
	batch.Status = state.Status
	batch.ProcessedFiles = state.ProcessedFiles
	batch.FailedFiles = state.FailedFiles
	return s.Save(*batch)
}
