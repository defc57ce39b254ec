package rollback

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsort/internal/domain"
	"docsort/internal/ports"
)

// memStores bundle in-memory fakes for the service's collaborators.
type memSnapshots struct {
	saved map[string]domain.Snapshot
}

func (m *memSnapshots) Save(s domain.Snapshot) error {
	if m.saved == nil {
		m.saved = map[string]domain.Snapshot{}
	}
	m.saved[s.ID] = s
	return nil
}

func (m *memSnapshots) Get(id string) (*domain.Snapshot, error) {
	s, ok := m.saved[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (m *memSnapshots) List(op domain.OperationType, since time.Time, limit int) ([]domain.Snapshot, error) {
	var out []domain.Snapshot
	for _, s := range m.saved {
		if op != "" && s.OperationType != op {
			continue
		}
		if !since.IsZero() && s.Timestamp.Before(since) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *memSnapshots) Delete(id string) error {
	delete(m.saved, id)
	return nil
}

type memDocs struct {
	docs   map[string]domain.Document
	states map[string]domain.FileState
}

func (m *memDocs) Save(doc domain.Document) error {
	if m.docs == nil {
		m.docs = map[string]domain.Document{}
	}
	m.docs[doc.ID] = doc
	return nil
}

func (m *memDocs) Get(id string) (*domain.Document, error) {
	doc, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

func (m *memDocs) GetByDigest(digest string) (*domain.Document, error) {
	for _, doc := range m.docs {
		if doc.Digest == digest {
			return &doc, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memDocs) SetState(id string, state domain.FileState) error {
	if _, ok := m.docs[id]; !ok {
		return domain.ErrNotFound
	}
	if m.states == nil {
		m.states = map[string]domain.FileState{}
	}
	m.states[id] = state
	return nil
}

type memBatches struct {
	batches map[string]domain.ProcessingBatch
	states  map[string]domain.BatchState
}

func (m *memBatches) Save(b domain.ProcessingBatch) error {
	if m.batches == nil {
		m.batches = map[string]domain.ProcessingBatch{}
	}
	m.batches[b.ID] = b
	return nil
}

func (m *memBatches) Get(id string) (*domain.ProcessingBatch, error) {
	b, ok := m.batches[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &b, nil
}

func (m *memBatches) SetState(id string, state domain.BatchState) error {
	if m.states == nil {
		m.states = map[string]domain.BatchState{}
	}
	m.states[id] = state
	return nil
}

var _ ports.SnapshotStore = (*memSnapshots)(nil)
var _ ports.DocumentStore = (*memDocs)(nil)
var _ ports.BatchStore = (*memBatches)(nil)

func newService(t *testing.T) (*Service, *memSnapshots, *memDocs, *memBatches) {
	t.Helper()
	snaps := &memSnapshots{}
	docs := &memDocs{}
	batches := &memBatches{}
	return New(snaps, docs, batches, nil, 30), snaps, docs, batches
}

func TestCreateCapturesDocumentState(t *testing.T) {
	svc, snaps, docs, _ := newService(t)
	require.NoError(t, docs.Save(domain.Document{
		ID:       "d1",
		Status:   domain.StatusProcessed,
		Category: "finanzen",
		Tags:     []string{"2024"},
	}))

	snapshot, err := svc.Create(context.Background(), SnapshotRequest{
		Operation:     domain.OpFileProcessing,
		FileIDs:       []string{"d1", "d-new"},
		OriginalPaths: map[string]string{"d1": "/share/a.pdf"},
		TargetPaths:   map[string]string{"d1": "/central/a.pdf"},
	})
	require.NoError(t, err)

	saved := snaps.saved[snapshot.ID]
	assert.Equal(t, domain.OpFileProcessing, saved.OperationType)
	require.Contains(t, saved.DatabaseState, "d1")
	assert.Equal(t, domain.StatusProcessed, saved.DatabaseState["d1"].Status)
	assert.Equal(t, "finanzen", saved.DatabaseState["d1"].Classification)
	// Unknown files are skipped, not failed.
	assert.NotContains(t, saved.DatabaseState, "d-new")
}

func TestCreateRejectsUnknownOperation(t *testing.T) {
	svc, _, _, _ := newService(t)
	_, err := svc.Create(context.Background(), SnapshotRequest{Operation: "undo_everything"})
	assert.Error(t, err)
}

func TestRollbackFileProcessingMovesFilesBack(t *testing.T) {
	svc, snaps, docs, _ := newService(t)
	dir := t.TempDir()
	original := filepath.Join(dir, "share", "scan.pdf")
	target := filepath.Join(dir, "central", "scan.pdf")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
	require.NoError(t, os.WriteFile(target, []byte("moved"), 0o644))

	require.NoError(t, docs.Save(domain.Document{ID: "d1", Status: domain.StatusProcessed}))
	require.NoError(t, snaps.Save(domain.Snapshot{
		ID:            "s1",
		OperationType: domain.OpFileProcessing,
		Timestamp:     time.Now(),
		OriginalPaths: map[string]string{"d1": original},
		TargetPaths:   map[string]string{"d1": target},
		DatabaseState: map[string]domain.FileState{"d1": {Status: domain.StatusPending}},
	}))

	result, err := svc.Rollback(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.FilesRestored)

	if _, err := os.Stat(original); err != nil {
		t.Errorf("file not restored: %v", err)
	}
	assert.Equal(t, domain.StatusPending, docs.states["d1"].Status)
}

func TestRollbackCollectsPerFileErrors(t *testing.T) {
	svc, snaps, docs, _ := newService(t)
	dir := t.TempDir()
	okTarget := filepath.Join(dir, "ok.pdf")
	require.NoError(t, os.WriteFile(okTarget, []byte("x"), 0o644))
	require.NoError(t, docs.Save(domain.Document{ID: "good"}))

	require.NoError(t, snaps.Save(domain.Snapshot{
		ID:            "s1",
		OperationType: domain.OpFileProcessing,
		Timestamp:     time.Now(),
		OriginalPaths: map[string]string{
			"good": filepath.Join(dir, "restored.pdf"),
			"bad":  filepath.Join(dir, "other.pdf"),
		},
		TargetPaths: map[string]string{
			"good": okTarget,
			"bad":  filepath.Join(dir, "vanished.pdf"),
		},
		DatabaseState: map[string]domain.FileState{"good": {Status: domain.StatusPending}},
	}))

	result, err := svc.Rollback(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.FilesRestored)
	assert.Equal(t, 1, result.FilesFailed)
	assert.Len(t, result.Errors, 1)
}

func TestRollbackBatchRestoresCounters(t *testing.T) {
	svc, snaps, _, batches := newService(t)
	require.NoError(t, batches.Save(domain.ProcessingBatch{ID: "b1", ProcessedFiles: 9}))

	require.NoError(t, snaps.Save(domain.Snapshot{
		ID:            "s1",
		OperationType: domain.OpBatchProcessing,
		Timestamp:     time.Now(),
		BatchID:       "b1",
		BatchState:    &domain.BatchState{Status: domain.StatusPending, ProcessedFiles: 0},
	}))

	result, err := svc.Rollback(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, domain.StatusPending, batches.states["b1"].Status)
}

func TestRollbackMetadataRestoresOnlyMetadataAndTags(t *testing.T) {
	svc, snaps, docs, _ := newService(t)
	dir := t.TempDir()
	target := filepath.Join(dir, "keep.pdf")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))
	require.NoError(t, docs.Save(domain.Document{
		ID:       "d1",
		Status:   domain.StatusProcessed,
		Category: "finanzen",
		Metadata: map[string]string{"source": "updated"},
		Tags:     []string{"new"},
	}))

	require.NoError(t, snaps.Save(domain.Snapshot{
		ID:            "s1",
		OperationType: domain.OpMetadataUpdate,
		Timestamp:     time.Now(),
		OriginalPaths: map[string]string{"d1": filepath.Join(dir, "elsewhere.pdf")},
		TargetPaths:   map[string]string{"d1": target},
		DatabaseState: map[string]domain.FileState{"d1": {
			Status:         domain.StatusReview,
			Classification: "unsorted",
			Metadata:       map[string]string{"source": "original"},
			Tags:           []string{"old"},
		}},
	}))

	result, err := svc.Rollback(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, result.Success)
	// File stays put for metadata rollbacks.
	if _, err := os.Stat(target); err != nil {
		t.Errorf("file moved during metadata rollback: %v", err)
	}
	restored := docs.states["d1"]
	assert.Equal(t, map[string]string{"source": "original"}, restored.Metadata)
	assert.Equal(t, []string{"old"}, restored.Tags)
	// Status and classification survive a metadata rollback.
	assert.Equal(t, domain.StatusProcessed, restored.Status)
	assert.Equal(t, "finanzen", restored.Classification)
}

func TestRollbackClassificationRestoresOnlyClassification(t *testing.T) {
	svc, snaps, docs, _ := newService(t)
	require.NoError(t, docs.Save(domain.Document{
		ID:       "d1",
		Status:   domain.StatusProcessed,
		Category: "projekte",
		Metadata: map[string]string{"source": "kept"},
	}))

	require.NoError(t, snaps.Save(domain.Snapshot{
		ID:            "s1",
		OperationType: domain.OpClassification,
		Timestamp:     time.Now(),
		DatabaseState: map[string]domain.FileState{"d1": {
			Status:         domain.StatusReview,
			Classification: "finanzen",
			Metadata:       map[string]string{"source": "stale"},
		}},
	}))

	result, err := svc.Rollback(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, result.Success)
	restored := docs.states["d1"]
	assert.Equal(t, "finanzen", restored.Classification)
	assert.Equal(t, domain.StatusProcessed, restored.Status)
	assert.Equal(t, map[string]string{"source": "kept"}, restored.Metadata)
}

func TestRollbackStorageMoveRestoresFilesOnly(t *testing.T) {
	svc, snaps, docs, _ := newService(t)
	dir := t.TempDir()
	original := filepath.Join(dir, "origin", "clip.mp4")
	target := filepath.Join(dir, "moved", "clip.mp4")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))
	require.NoError(t, docs.Save(domain.Document{ID: "d1", Status: domain.StatusProcessed}))

	require.NoError(t, snaps.Save(domain.Snapshot{
		ID:            "s1",
		OperationType: domain.OpStorageMove,
		Timestamp:     time.Now(),
		OriginalPaths: map[string]string{"d1": original},
		TargetPaths:   map[string]string{"d1": target},
		DatabaseState: map[string]domain.FileState{"d1": {Status: domain.StatusPending}},
	}))

	result, err := svc.Rollback(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.FilesRestored)
	if _, err := os.Stat(original); err != nil {
		t.Errorf("file not restored: %v", err)
	}
	// Document state is untouched by a storage move rollback.
	assert.NotContains(t, docs.states, "d1")
}

func TestRollbackMissingSnapshot(t *testing.T) {
	svc, _, _, _ := newService(t)
	_, err := svc.Rollback(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCleanupRemovesExpired(t *testing.T) {
	svc, snaps, _, _ := newService(t)
	require.NoError(t, snaps.Save(domain.Snapshot{
		ID: "old", OperationType: domain.OpFileProcessing,
		Timestamp: time.Now().Add(-60 * 24 * time.Hour),
	}))
	require.NoError(t, snaps.Save(domain.Snapshot{
		ID: "fresh", OperationType: domain.OpFileProcessing,
		Timestamp: time.Now(),
	}))

	removed, err := svc.Cleanup()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NotContains(t, snaps.saved, "old")
	assert.Contains(t, snaps.saved, "fresh")
}
