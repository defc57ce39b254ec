package domain

import (
	"fmt"
	"strings"
	"time"
)

// OperationType identifies the kind of mutation a snapshot was taken for.
// The set is closed: rollback dispatches exhaustively on it.
type OperationType string

const (
	OpFileProcessing  OperationType = "file_processing"
	OpBatchProcessing OperationType = "batch_processing"
	OpMetadataUpdate  OperationType = "metadata_update"
	OpClassification  OperationType = "classification"
	OpStorageMove     OperationType = "storage_move"
)

// ParseOperationType validates an operation type string.
func ParseOperationType(s string) (OperationType, error) {
	switch op := OperationType(strings.ToLower(s)); op {
	case OpFileProcessing, OpBatchProcessing, OpMetadataUpdate, OpClassification, OpStorageMove:
		return op, nil
	default:
		return "", fmt.Errorf("unknown operation type %q", s)
	}
}

// FileState is the persisted document state captured for one file id.
type FileState struct {
	Status         ProcessingStatus  `json:"status"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	Tags           []string          `json:"tags,omitempty"`
	Classification string            `json:"classification,omitempty"`
}

// StorageState records whether a file existed in object storage when the
// snapshot was taken, plus its object metadata.
type StorageState struct {
	Exists   bool              `json:"exists"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// BatchState captures a processing batch's aggregate counters.
type BatchState struct {
	Status         ProcessingStatus `json:"status"`
	ProcessedFiles int              `json:"processed_files"`
	FailedFiles    int              `json:"failed_files"`
}

// Snapshot is the pre-operation state for a set of files. It is immutable
// once persisted and consumed read-only by rollback.
type Snapshot struct {
	ID            string                  `json:"id"`
	OperationType OperationType           `json:"operation_type"`
	Timestamp     time.Time               `json:"timestamp"`
	Description   string                  `json:"description,omitempty"`
	FileIDs       []string                `json:"file_ids"`
	BatchID       string                  `json:"batch_id,omitempty"`
	Metadata      map[string]string       `json:"metadata,omitempty"`
	OriginalPaths map[string]string       `json:"original_paths"`
	TargetPaths   map[string]string       `json:"target_paths"`
	DatabaseState map[string]FileState    `json:"database_state"`
	BatchState    *BatchState             `json:"batch_state,omitempty"`
	StorageState  map[string]StorageState `json:"storage_state"`
}

// RollbackResult summarizes one rollback run. Per-file failures are
// collected here instead of aborting sibling restores.
type RollbackResult struct {
	Success       bool          `json:"success"`
	Message       string        `json:"message"`
	FilesRestored int           `json:"files_restored"`
	FilesFailed   int           `json:"files_failed"`
	Errors        []string      `json:"errors,omitempty"`
	Duration      time.Duration `json:"duration"`
}
