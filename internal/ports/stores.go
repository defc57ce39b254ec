package ports

import (
	"time"

	"docsort/internal/domain"
)

// HashIndex is the persisted digest → primary-location store. Every Put must
// be durable before it returns; a crash mid-crawl may lose in-memory state
// but never an acknowledged index write.
type HashIndex interface {
	// Load returns the full index for in-memory caching at crawl start.
	Load() (map[string]domain.ContentRecord, error)
	Get(digest string) (*domain.ContentRecord, error)
	Put(record domain.ContentRecord) error
}

// ReviewFilter narrows a pending-review listing.
type ReviewFilter struct {
	Customer      string
	Project       string
	MinConfidence float64
	MaxConfidence float64
}

// ReviewStore holds low-confidence classification suggestions until an
// operator confirms or discards them.
type ReviewStore interface {
	Add(item domain.ReviewItem) error
	Get(id string) (*domain.ReviewItem, error)
	// List returns matching items sorted by file mtime, newest first.
	List(filter ReviewFilter) ([]domain.ReviewItem, error)
	Delete(id string) error
}

// SnapshotStore persists one immutable record per snapshot id.
type SnapshotStore interface {
	Save(snapshot domain.Snapshot) error
	Get(id string) (*domain.Snapshot, error)
	// List filters by operation type (empty means all) and creation time,
	// newest first, up to limit entries.
	List(op domain.OperationType, since time.Time, limit int) ([]domain.Snapshot, error)
	Delete(id string) error
}

// DocumentStore persists processed documents keyed by id, with digest lookup
// for the dedup short-circuit.
type DocumentStore interface {
	Save(doc domain.Document) error
	Get(id string) (*domain.Document, error)
	GetByDigest(digest string) (*domain.Document, error)
	// SetState restores the mutable fields captured in a snapshot.
	SetState(id string, state domain.FileState) error
}

// BatchStore persists processing-batch aggregates.
type BatchStore interface {
	Save(batch domain.ProcessingBatch) error
	Get(id string) (*domain.ProcessingBatch, error)
	SetState(id string, state domain.BatchState) error
}

// FeedbackLog is the append-only record of confirmed classifications.
type FeedbackLog interface {
	Append(record domain.FeedbackRecord) error
}
