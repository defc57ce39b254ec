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

// DocumentStore persists processed documents with digest lookup for the
// dedup short-circuit.
type DocumentStore struct {
	db *sql.DB
}

var _ ports.DocumentStore = (*DocumentStore)(nil)

// NewDocumentStore returns the document view of the store.
func NewDocumentStore(store *Store) *DocumentStore {
	return &DocumentStore{db: store.db}
}

// Save inserts or replaces the document.
func (s *DocumentStore) Save(doc domain.Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO documents (id, digest, payload) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET digest = excluded.digest, payload = excluded.payload`,
		doc.ID, doc.Digest, string(payload))
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

// Get returns the document with the given id or domain.ErrNotFound.
func (s *DocumentStore) Get(id string) (*domain.Document, error) {
	return s.one(`SELECT payload FROM documents WHERE id = ?`, id)
}

// GetByDigest returns the document holding the given content digest or
// domain.ErrNotFound.
func (s *DocumentStore) GetByDigest(digest string) (*domain.Document, error) {
	return s.one(`SELECT payload FROM documents WHERE digest = ?`, digest)
}

func (s *DocumentStore) one(query string, arg any) (*domain.Document, error) {
	var payload string
	err := s.db.QueryRow(query, arg).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	var doc domain.Document
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}

// SetState restores the mutable fields captured in a snapshot.
func (s *DocumentStore) SetState(id string, state domain.FileState) error {
	doc, err := s.Get(id)
	if err != nil {
		return err
	}
	doc.Status = state.Status
	doc.Metadata = state.Metadata
	doc.Tags = state.Tags
	if state.Classification != "" {
		doc.Category = state.Classification
	}
	doc.UpdatedAt = time.Now()
	return s.Save(*doc)
}
