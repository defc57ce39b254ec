package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"docsort/internal/domain"
	"docsort/internal/ports"
)

// ReviewStore persists pending review items. The full item lives in a JSON
// payload; filter columns are denormalized alongside it.
type ReviewStore struct {
	db *sql.DB
}

var _ ports.ReviewStore = (*ReviewStore)(nil)

// NewReviewStore returns the review queue view of the store.
func NewReviewStore(store *Store) *ReviewStore {
	return &ReviewStore{db: store.db}
}

// Add inserts a pending item.
func (s *ReviewStore) Add(item domain.ReviewItem) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode review item: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO review_items (id, mtime, customer, project, confidence, payload)
		VALUES (?, ?, ?, ?, ?, ?)`,
		item.ID, item.MTime.UnixNano(), item.Customer, item.Project, item.Confidence, string(payload))
	if err != nil {
		return fmt.Errorf("insert review item: %w", err)
	}
	return nil
}

// Get returns the item with the given id or domain.ErrNotFound.
func (s *ReviewStore) Get(id string) (*domain.ReviewItem, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM review_items WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get review item: %w", err)
	}
	var item domain.ReviewItem
	if err := json.Unmarshal([]byte(payload), &item); err != nil {
		return nil, fmt.Errorf("decode review item: %w", err)
	}
	return &item, nil
}

// List returns matching items, newest file mtime first.
func (s *ReviewStore) List(filter ports.ReviewFilter) ([]domain.ReviewItem, error) {
	query := `SELECT payload FROM review_items WHERE 1=1`
	var args []any
	if filter.Customer != "" {
		query += ` AND customer = ?`
		args = append(args, filter.Customer)
	}
	if filter.Project != "" {
		query += ` AND project = ?`
		args = append(args, filter.Project)
	}
	if filter.MinConfidence > 0 {
		query += ` AND confidence >= ?`
		args = append(args, filter.MinConfidence)
	}
	if filter.MaxConfidence > 0 {
		query += ` AND confidence <= ?`
		args = append(args, filter.MaxConfidence)
	}
	query += ` ORDER BY mtime DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list review items: %w", err)
	}
	defer rows.Close()

	var items []domain.ReviewItem
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan review item: %w", err)
		}
		var item domain.ReviewItem
		if err := json.Unmarshal([]byte(payload), &item); err != nil {
			return nil, fmt.Errorf("decode review item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Delete removes the item; deleting a missing id is not an error.
func (s *ReviewStore) Delete(id string) error {
	if _, err := s.db.Exec(`DELETE FROM review_items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete review item: %w", err)
	}
	return nil
}
