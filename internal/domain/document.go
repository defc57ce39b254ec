package domain

import "time"

// ProcessingStatus tracks where a document is in its lifecycle
type ProcessingStatus string

const (
	StatusPending   ProcessingStatus = "pending"
	StatusProcessed ProcessingStatus = "processed"
	StatusDuplicate ProcessingStatus = "duplicate"
	StatusReview    ProcessingStatus = "review"
	StatusFailed    ProcessingStatus = "failed"
)

// Document is the persisted record for one processed file.
// Digest is the content identity; two documents never share a digest.
type Document struct {
	ID           string            `json:"id"`
	Filename     string            `json:"filename"`
	OriginalPath string            `json:"original_path"`
	TargetPath   string            `json:"target_path"`
	Digest       string            `json:"digest"`
	Category     string            `json:"category"`
	Customer     string            `json:"customer,omitempty"`
	Project      string            `json:"project,omitempty"`
	Status       ProcessingStatus  `json:"status"`
	Tags         []string          `json:"tags,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// ContentRecord is one hash-index entry. Path always points at the primary
// copy of the content, never at a file inside a quarantine directory.
type ContentRecord struct {
	Digest       string    `json:"digest"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	MTime        time.Time `json:"mtime"`
	CustomerRoot string    `json:"customer_root"`
}

// WinsOver reports whether a newly observed file with the given mtime and
// size should displace the current primary. Newer mtime wins; on an exact
// tie the larger file wins.
func (r ContentRecord) WinsOver(mtime time.Time, size int64) bool {
	if !r.MTime.Equal(mtime) {
		return r.MTime.After(mtime)
	}
	return r.Size >= size
}

// DuplicateEntry describes a file sitting in a customer quarantine folder.
type DuplicateEntry struct {
	CustomerRoot string    `json:"customer_root"`
	Filename     string    `json:"filename"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	MTime        time.Time `json:"mtime"`
}

// ReviewItem is a low-confidence classification suggestion awaiting human
// confirmation. It is owned by the review store until confirmed or rejected.
type ReviewItem struct {
	ID                string            `json:"id"`
	OriginalPath      string            `json:"original_path"`
	Filename          string            `json:"filename"`
	Size              int64             `json:"size"`
	MTime             time.Time         `json:"mtime"`
	SuggestedCategory string            `json:"suggested_category"`
	Confidence        float64           `json:"confidence"`
	Customer          string            `json:"customer,omitempty"`
	Project           string            `json:"project,omitempty"`
	Tags              []string          `json:"tags,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

// FeedbackRecord is one line of the append-only classification feedback log.
type FeedbackRecord struct {
	ID                string    `json:"id"`
	ChosenCategory    string    `json:"chosen_category"`
	SuggestedCategory string    `json:"suggested_category"`
	Confidence        float64   `json:"confidence"`
	Customer          string    `json:"customer,omitempty"`
	Project           string    `json:"project,omitempty"`
	Filename          string    `json:"filename"`
	MovedTo           string    `json:"moved_to"`
	Timestamp         time.Time `json:"timestamp"`
}

// ClassificationResult is the outcome of classifying document content,
// whether produced by the model collaborator or by the keyword fallback.
type ClassificationResult struct {
	Category   string            `json:"category"`
	Confidence float64           `json:"confidence"`
	Customer   string            `json:"customer,omitempty"`
	Project    string            `json:"project,omitempty"`
	Tags       []string          `json:"tags,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ProcessingResult is returned for every file fed through the document
// pipeline, including failures.
type ProcessingResult struct {
	Success     bool   `json:"success"`
	DocumentID  string `json:"document_id,omitempty"`
	TargetPath  string `json:"target_path,omitempty"`
	Duplicate   bool   `json:"duplicate"`
	DuplicateOf string `json:"duplicate_of,omitempty"`
	ReviewID    string `json:"review_id,omitempty"`
	Message     string `json:"message,omitempty"`
	Error       string `json:"error,omitempty"`
}

// ProcessingBatch aggregates counters for one batch run.
type ProcessingBatch struct {
	ID             string           `json:"id"`
	Status         ProcessingStatus `json:"status"`
	TotalFiles     int              `json:"total_files"`
	ProcessedFiles int              `json:"processed_files"`
	FailedFiles    int              `json:"failed_files"`
	StartedAt      time.Time        `json:"started_at"`
	CompletedAt    time.Time        `json:"completed_at,omitzero"`
}

// BackupInfo describes one timestamped pre-move copy of a file.
type BackupInfo struct {
	ID           string    `json:"id"`
	OriginalPath string    `json:"original_path"`
	BackupPath   string    `json:"backup_path"`
	Size         int64     `json:"size"`
	CreatedAt    time.Time `json:"created_at"`
}
