package sqlite

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"docsort/internal/domain"
	"docsort/internal/ports"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "docsort.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestHashIndexRoundTrip(t *testing.T) {
	idx := NewHashIndex(openStore(t))

	rec := domain.ContentRecord{
		Digest:       "abc123",
		Path:         "/data/sorted/1234_acme/Projekte/plan.pdf",
		Size:         2048,
		MTime:        time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		CustomerRoot: "1234_acme",
	}
	if err := idx.Put(rec); err != nil {
		t.Fatal(err)
	}

	got, err := idx.Get("abc123")
	if err != nil {
		t.Fatal(err)
	}
	if got.Path != rec.Path || got.Size != rec.Size || !got.MTime.Equal(rec.MTime) {
		t.Errorf("got %+v, want %+v", got, rec)
	}

	// Upsert replaces the primary location.
	rec.Path = "/data/sorted/1234_acme/Archiv/plan.pdf"
	if err := idx.Put(rec); err != nil {
		t.Fatal(err)
	}
	index, err := idx.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(index) != 1 || index["abc123"].Path != rec.Path {
		t.Errorf("load after upsert = %+v", index)
	}

	if _, err := idx.Get("missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing digest error = %v", err)
	}
}

func TestReviewStoreFilterAndOrder(t *testing.T) {
	store := NewReviewStore(openStore(t))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	items := []domain.ReviewItem{
		{ID: "r1", Customer: "1234_acme", Confidence: 0.5, MTime: base},
		{ID: "r2", Customer: "1234_acme", Confidence: 0.7, MTime: base.Add(time.Hour)},
		{ID: "r3", Customer: "5678_other", Confidence: 0.3, MTime: base.Add(2 * time.Hour)},
	}
	for _, item := range items {
		if err := store.Add(item); err != nil {
			t.Fatal(err)
		}
	}

	all, err := store.List(ports.ReviewFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].ID != "r3" || all[2].ID != "r1" {
		t.Errorf("unexpected order: %+v", all)
	}

	acme, err := store.List(ports.ReviewFilter{Customer: "1234_acme", MinConfidence: 0.6})
	if err != nil {
		t.Fatal(err)
	}
	if len(acme) != 1 || acme[0].ID != "r2" {
		t.Errorf("filtered list = %+v", acme)
	}

	if err := store.Delete("r2"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get("r2"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("deleted item error = %v", err)
	}
}

func TestSnapshotStoreListFilters(t *testing.T) {
	store := NewSnapshotStore(openStore(t))
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	snaps := []domain.Snapshot{
		{ID: "s1", OperationType: domain.OpFileProcessing, Timestamp: base},
		{ID: "s2", OperationType: domain.OpBatchProcessing, Timestamp: base.Add(time.Hour)},
		{ID: "s3", OperationType: domain.OpFileProcessing, Timestamp: base.Add(2 * time.Hour)},
	}
	for _, snap := range snaps {
		snap.OriginalPaths = map[string]string{"f1": "/share/a.pdf"}
		snap.DatabaseState = map[string]domain.FileState{"f1": {Status: domain.StatusPending}}
		if err := store.Save(snap); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.Get("s1")
	if err != nil {
		t.Fatal(err)
	}
	if got.OriginalPaths["f1"] != "/share/a.pdf" {
		t.Errorf("payload lost: %+v", got)
	}
	if got.DatabaseState["f1"].Status != domain.StatusPending {
		t.Errorf("database state lost: %+v", got.DatabaseState)
	}

	fileOnly, err := store.List(domain.OpFileProcessing, time.Time{}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(fileOnly) != 2 || fileOnly[0].ID != "s3" {
		t.Errorf("op filter = %+v", fileOnly)
	}

	recent, err := store.List("", base.Add(30*time.Minute), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 || recent[0].ID != "s3" {
		t.Errorf("since+limit = %+v", recent)
	}

	// Snapshots are immutable; a second save of the same id fails.
	if err := store.Save(domain.Snapshot{ID: "s1", OperationType: domain.OpFileProcessing, Timestamp: base}); err == nil {
		t.Error("expected error overwriting snapshot")
	}

	if err := store.Delete("s1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get("s1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("deleted snapshot error = %v", err)
	}
}

func TestDocumentStoreDigestLookupAndState(t *testing.T) {
	store := NewDocumentStore(openStore(t))

	doc := domain.Document{
		ID:       "d1",
		Filename: "invoice.pdf",
		Digest:   "deadbeef",
		Category: "finanzen",
		Status:   domain.StatusProcessed,
		Tags:     []string{"2024"},
	}
	if err := store.Save(doc); err != nil {
		t.Fatal(err)
	}

	byDigest, err := store.GetByDigest("deadbeef")
	if err != nil {
		t.Fatal(err)
	}
	if byDigest.ID != "d1" {
		t.Errorf("digest lookup = %+v", byDigest)
	}

	err = store.SetState("d1", domain.FileState{
		Status:         domain.StatusPending,
		Tags:           nil,
		Classification: "projekte",
	})
	if err != nil {
		t.Fatal(err)
	}
	restored, err := store.Get("d1")
	if err != nil {
		t.Fatal(err)
	}
	if restored.Status != domain.StatusPending || restored.Category != "projekte" || restored.Tags != nil {
		t.Errorf("restored state = %+v", restored)
	}

	if err := store.SetState("missing", domain.FileState{}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing document error = %v", err)
	}
}

func TestBatchStoreState(t *testing.T) {
	store := NewBatchStore(openStore(t))

	batch := domain.ProcessingBatch{
		ID:             "b1",
		Status:         domain.StatusProcessed,
		TotalFiles:     10,
		ProcessedFiles: 10,
		StartedAt:      time.Now(),
	}
	if err := store.Save(batch); err != nil {
		t.Fatal(err)
	}

	err := store.SetState("b1", domain.BatchState{
		Status:         domain.StatusPending,
		ProcessedFiles: 0,
		FailedFiles:    0,
	})
	if err != nil {
		t.Fatal(err)
	}
	got, err := store.Get("b1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.StatusPending || got.ProcessedFiles != 0 || got.TotalFiles != 10 {
		t.Errorf("restored batch = %+v", got)
	}
}
