package rollback

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"docsort/internal/adapters/filesystem"
	"docsort/internal/domain"
	"docsort/internal/ports"
)

// SnapshotRequest describes the state to capture before a mutation runs.
// Path maps are keyed by file id; StorageKeys names the object-storage keys
// to record for each file.
type SnapshotRequest struct {
	Operation     domain.OperationType
	Description   string
	FileIDs       []string
	BatchID       string
	Metadata      map[string]string
	OriginalPaths map[string]string
	TargetPaths   map[string]string
	StorageKeys   map[string]string
}

// Service creates snapshots before mutations and restores them on demand.
// Object storage is optional; without it storage state is simply not
// captured.
type Service struct {
	snapshots ports.SnapshotStore
	documents ports.DocumentStore
	batches   ports.BatchStore
	objects   ports.ObjectStore
	retention time.Duration
}

// New creates the service. objects may be nil.
func New(snapshots ports.SnapshotStore, documents ports.DocumentStore, batches ports.BatchStore, objects ports.ObjectStore, retentionDays int) *Service {
	return &Service{
		snapshots: snapshots,
		documents: documents,
		batches:   batches,
		objects:   objects,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
	}
}

// Create captures the current state for the request's files and persists it
// as an immutable snapshot.
func (s *Service) Create(ctx context.Context, req SnapshotRequest) (*domain.Snapshot, error) {
	if _, err := domain.ParseOperationType(string(req.Operation)); err != nil {
		return nil, err
	}

	snapshot := domain.Snapshot{
		ID:            uuid.NewString(),
		OperationType: req.Operation,
		Timestamp:     time.Now(),
		Description:   req.Description,
		FileIDs:       req.FileIDs,
		BatchID:       req.BatchID,
		Metadata:      req.Metadata,
		OriginalPaths: req.OriginalPaths,
		TargetPaths:   req.TargetPaths,
		DatabaseState: make(map[string]domain.FileState),
		StorageState:  make(map[string]domain.StorageState),
	}
	if snapshot.OriginalPaths == nil {
		snapshot.OriginalPaths = map[string]string{}
	}
	if snapshot.TargetPaths == nil {
		snapshot.TargetPaths = map[string]string{}
	}

	for _, id := range req.FileIDs {
		doc, err := s.documents.Get(id)
		if err != nil {
			// New files have no stored state yet.
			continue
		}
		snapshot.DatabaseState[id] = domain.FileState{
			Status:         doc.Status,
			Metadata:       doc.Metadata,
			Tags:           doc.Tags,
			Classification: doc.Category,
		}
	}

	if req.BatchID != "" {
		if batch, err := s.batches.Get(req.BatchID); err == nil {
			snapshot.BatchState = &domain.BatchState{
				Status:         batch.Status,
				ProcessedFiles: batch.ProcessedFiles,
				FailedFiles:    batch.FailedFiles,
			}
		}
	}

	if s.objects != nil {
		for id, key := range req.StorageKeys {
			snapshot.StorageState[id] = s.captureStorage(ctx, key)
		}
	}

	if err := s.snapshots.Save(snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (s *Service) captureStorage(ctx context.Context, key string) domain.StorageState {
	exists, err := s.objects.Exists(ctx, key)
	if err != nil {
		return domain.StorageState{Error: err.Error()}
	}
	state := domain.StorageState{Exists: exists}
	if exists {
		meta, err := s.objects.Metadata(ctx, key)
		if err != nil {
			state.Error = err.Error()
		} else {
			state.Metadata = meta
		}
	}
	return state
}

// Rollback restores the state captured in the snapshot. File failures are
// collected per file; sibling restores continue.
func (s *Service) Rollback(ctx context.Context, snapshotID string) (*domain.RollbackResult, error) {
	snapshot, err := s.snapshots.Get(snapshotID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result := &domain.RollbackResult{}

	// The operation type set is closed; every member restores here, each
	// touching only the state its operation mutates.
	switch snapshot.OperationType {
	case domain.OpFileProcessing:
		s.restoreFiles(snapshot, result)
		s.restoreDatabase(snapshot, result, restoreAll)
	case domain.OpStorageMove:
		s.restoreFiles(snapshot, result)
	case domain.OpBatchProcessing:
		s.restoreFiles(snapshot, result)
		s.restoreDatabase(snapshot, result, restoreAll)
		s.restoreBatch(snapshot, result)
	case domain.OpMetadataUpdate:
		s.restoreDatabase(snapshot, result, restoreMetadata)
	case domain.OpClassification:
		s.restoreDatabase(snapshot, result, restoreClassification)
	default:
		return nil, fmt.Errorf("unknown operation type %q", snapshot.OperationType)
	}

	result.Duration = time.Since(start)
	result.Success = result.FilesFailed == 0
	if result.Success {
		result.Message = fmt.Sprintf("restored snapshot %s", snapshot.ID)
	} else {
		result.Message = fmt.Sprintf("restored snapshot %s with %d failures", snapshot.ID, result.FilesFailed)
	}
	return result, nil
}

// restoreFiles moves files back from their target paths to where they were
// observed. A target that no longer exists counts as failed unless the
// original is already back in place.
func (s *Service) restoreFiles(snapshot *domain.Snapshot, result *domain.RollbackResult) {
	for id, original := range snapshot.OriginalPaths {
		target, ok := snapshot.TargetPaths[id]
		if !ok || target == "" || target == original {
			continue
		}
		if _, err := os.Stat(target); os.IsNotExist(err) {
			if _, err := os.Stat(original); err == nil {
				continue
			}
			result.FilesFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: target %s missing", id, target))
			continue
		}
		if _, err := filesystem.MoveFile(target, original); err != nil {
			result.FilesFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", id, err))
			continue
		}
		result.FilesRestored++
	}
}

// restoreScope selects which document fields a database restore writes back.
type restoreScope int

const (
	restoreAll restoreScope = iota
	restoreMetadata
	restoreClassification
)

func (s *Service) restoreDatabase(snapshot *domain.Snapshot, result *domain.RollbackResult, scope restoreScope) {
	for id, saved := range snapshot.DatabaseState {
		state := saved
		if scope != restoreAll {
			// Partial restores overlay the saved fields on the document's
			// current state so unrelated fields survive.
			current, err := s.documents.Get(id)
			if err != nil {
				result.FilesFailed++
				result.Errors = append(result.Errors, fmt.Sprintf("%s: restore state: %v", id, err))
				continue
			}
			state = domain.FileState{
				Status:         current.Status,
				Metadata:       current.Metadata,
				Tags:           current.Tags,
				Classification: current.Category,
			}
			switch scope {
			case restoreMetadata:
				state.Metadata = saved.Metadata
				state.Tags = saved.Tags
			case restoreClassification:
				state.Classification = saved.Classification
			}
		}
		if err := s.documents.SetState(id, state); err != nil {
			result.FilesFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: restore state: %v", id, err))
		}
	}
}

func (s *Service) restoreBatch(snapshot *domain.Snapshot, result *domain.RollbackResult) {
	if snapshot.BatchID == "" || snapshot.BatchState == nil {
		return
	}
	if err := s.batches.SetState(snapshot.BatchID, *snapshot.BatchState); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("batch %s: %v", snapshot.BatchID, err))
	}
}

// List returns snapshots matching the filter, newest first.
func (s *Service) List(op domain.OperationType, since time.Time, limit int) ([]domain.Snapshot, error) {
	return s.snapshots.List(op, since, limit)
}

// Get returns one snapshot by id.
func (s *Service) Get(id string) (*domain.Snapshot, error) {
	return s.snapshots.Get(id)
}

// Cleanup deletes snapshots older than the retention window and returns how
// many were removed.
func (s *Service) Cleanup() (int, error) {
	all, err := s.snapshots.List("", time.Time{}, 0)
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-s.retention)
	removed := 0
	for _, snapshot := range all {
		if snapshot.Timestamp.Before(cutoff) {
			if err := s.snapshots.Delete(snapshot.ID); err != nil {
				log.Printf("snapshot cleanup: %s: %v", snapshot.ID, err)
				continue
			}
			removed++
		}
	}
	return removed, nil
}
