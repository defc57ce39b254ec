package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"docsort/internal/adapters/filesystem"
	"docsort/internal/adapters/sqlite"
	"docsort/internal/application/commands"
	"docsort/internal/config"
	"docsort/internal/crawler"
	"docsort/internal/domain"
	"docsort/internal/rollback"
)

func newTestServer(t *testing.T) (*httptest.Server, *config.Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Shares:        []string{filepath.Join(dir, "share")},
		CentralBase:   filepath.Join(dir, "central"),
		InternalRoots: []string{"ORGA"},
		Review:        config.ReviewConfig{Threshold: 0.5},
		Snapshots:     config.SnapshotsConfig{RetentionDays: 30},
		Sorting: config.SortingConfig{
			EnableYearSubfolders: true,
			YearFoldersUnder:     []string{"Projekte", "Archiv"},
		},
		Processing: config.ProcessingConfig{
			Workers: 2,
			CategoryPaths: map[string]string{
				"finanzen": "{customer}/Archiv/{year}",
				"projekte": "{customer}/Projekte/{project}/{year}",
				"personal": "{customer}/Archiv/{year}",
				"footage":  "{customer}/Projekte/{project}/{year}",
				"unsorted": "{customer}/Allgemein",
			},
		},
	}
	if err := os.MkdirAll(cfg.Shares[0], 0o755); err != nil {
		t.Fatal(err)
	}

	store, err := sqlite.Open(filepath.Join(dir, "docsort.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	index := sqlite.NewHashIndex(store)
	review := sqlite.NewReviewStore(store)
	documents := sqlite.NewDocumentStore(store)
	batches := sqlite.NewBatchStore(store)
	snapshots := sqlite.NewSnapshotStore(store)
	feedback := filesystem.NewFeedbackLog(filepath.Join(dir, "feedback.jsonl"))

	rollbacks := rollback.New(snapshots, documents, batches, nil, cfg.Snapshots.RetentionDays)
	cr := crawler.New(cfg, index)
	orch := commands.NewOrchestrator(cfg, documents, index, review, nil, rollbacks, nil, nil)

	srv := New(cfg, cr, review, documents, index, batches, feedback, rollbacks, orch)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts, cfg
}

func getJSON(t *testing.T, url string, wantStatus int) map[string]any {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s status = %d, want %d", url, resp.StatusCode, wantStatus)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	return body
}

func postJSON(t *testing.T, url string, payload any, wantStatus int) map[string]any {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("POST %s status = %d, want %d", url, resp.StatusCode, wantStatus)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	return body
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)
	body := getJSON(t, ts.URL+"/health", http.StatusOK)
	if body["status"] != "ok" {
		t.Errorf("health = %+v", body)
	}
}

func TestCrawlerEndpoints(t *testing.T) {
	ts, cfg := newTestServer(t)

	body := getJSON(t, ts.URL+"/crawler/status", http.StatusOK)
	if body["running"] != false || body["stop_requested"] != false {
		t.Errorf("initial status = %+v", body)
	}

	// Stop while idle is a no-op.
	body = postJSON(t, ts.URL+"/crawler/stop", nil, http.StatusOK)
	if body["status"] != "idle" {
		t.Errorf("stop while idle = %+v", body)
	}

	// Seed a file and run a crawl.
	path := filepath.Join(cfg.Shares[0], "1234_acme", "projekt_a", "plan.pdf")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("plan"), 0o644); err != nil {
		t.Fatal(err)
	}

	postJSON(t, ts.URL+"/crawler/start", nil, http.StatusOK)

	deadline := time.Now().Add(5 * time.Second)
	for {
		body = getJSON(t, ts.URL+"/crawler/status", http.StatusOK)
		if body["running"] == false && body["finished_at"] != nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("crawl did not finish")
		}
		time.Sleep(20 * time.Millisecond)
	}

	stats := getJSON(t, ts.URL+"/crawler/stats", http.StatusOK)
	if stats["processed"] != float64(1) {
		t.Errorf("stats = %+v", stats)
	}
}

func TestDuplicateEndpoints(t *testing.T) {
	ts, cfg := newTestServer(t)

	body := getJSON(t, ts.URL+"/duplicates", http.StatusOK)
	if body["total"] != float64(0) {
		t.Errorf("expected empty quarantine, got %+v", body)
	}

	// An empty delete request is rejected outright.
	postJSON(t, ts.URL+"/duplicates/delete", map[string]any{"paths": []string{}}, http.StatusBadRequest)

	stray := filepath.Join(cfg.CentralBase, "1234_acme", "Projekte", "keep.pdf")
	if err := os.MkdirAll(filepath.Dir(stray), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(stray, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	dup := filepath.Join(cfg.CentralBase, "1234_acme", domain.QuarantineFolder, "dup.pdf")
	if err := os.MkdirAll(filepath.Dir(dup), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dup, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	body = getJSON(t, ts.URL+"/duplicates?limit=10&offset=0", http.StatusOK)
	if body["total"] != float64(1) {
		t.Errorf("quarantine total = %v", body["total"])
	}

	// Paths outside a quarantine folder fail individually while the rest of
	// the request goes through.
	body = postJSON(t, ts.URL+"/duplicates/delete", map[string]any{"paths": []string{dup, stray}}, http.StatusOK)
	deleted, _ := body["deleted"].([]any)
	if len(deleted) != 1 || deleted[0] != dup {
		t.Errorf("deleted = %v", body["deleted"])
	}
	failed, _ := body["failed"].(map[string]any)
	if _, ok := failed[stray]; !ok {
		t.Errorf("failed = %v", body["failed"])
	}
	if _, err := os.Stat(dup); !os.IsNotExist(err) {
		t.Error("duplicate not deleted")
	}
	if _, err := os.Stat(stray); err != nil {
		t.Error("non-quarantine file was deleted")
	}
}

func TestProcessAndReviewFlow(t *testing.T) {
	ts, cfg := newTestServer(t)

	// High keyword confidence (0.6) clears the 0.5 threshold and files the
	// document.
	path := filepath.Join(cfg.Shares[0], "1234_acme", "rechnung.txt")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("Rechnung Nr. 1, invoice total amount"), 0o644); err != nil {
		t.Fatal(err)
	}

	body := postJSON(t, ts.URL+"/process", map[string]string{"path": path}, http.StatusOK)
	if body["success"] != true || body["document_id"] == "" {
		t.Fatalf("process result = %+v", body)
	}

	// The same content processed again short-circuits as a duplicate.
	again := filepath.Join(cfg.Shares[0], "copy.txt")
	if err := os.WriteFile(again, []byte("Rechnung Nr. 1, invoice total amount"), 0o644); err != nil {
		t.Fatal(err)
	}
	body = postJSON(t, ts.URL+"/process", map[string]string{"path": again}, http.StatusOK)
	if body["duplicate"] != true {
		t.Errorf("expected duplicate result, got %+v", body)
	}

	// Unclassifiable content parks in review.
	vague := filepath.Join(cfg.Shares[0], "vague.txt")
	if err := os.WriteFile(vague, []byte("hello there"), 0o644); err != nil {
		t.Fatal(err)
	}
	body = postJSON(t, ts.URL+"/process", map[string]string{"path": vague}, http.StatusOK)
	reviewID, _ := body["review_id"].(string)
	if reviewID == "" {
		t.Fatalf("expected review routing, got %+v", body)
	}

	pending := getJSON(t, ts.URL+"/classification/pending", http.StatusOK)
	if pending["count"] != float64(1) {
		t.Errorf("pending count = %v", pending["count"])
	}

	// Download the pending file for inspection.
	resp, err := http.Get(ts.URL + "/classification/download?id=" + reviewID)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("download status = %d", resp.StatusCode)
	}

	// Confirm it under an explicit category.
	postJSON(t, ts.URL+"/classification/confirm", map[string]string{
		"id":       reviewID,
		"category": "personal",
	}, http.StatusOK)

	pending = getJSON(t, ts.URL+"/classification/pending", http.StatusOK)
	if pending["count"] != float64(0) {
		t.Errorf("pending after confirm = %v", pending["count"])
	}

	// Confirming twice is a 404.
	postJSON(t, ts.URL+"/classification/confirm", map[string]string{"id": reviewID}, http.StatusNotFound)
}

func TestSnapshotEndpoints(t *testing.T) {
	ts, cfg := newTestServer(t)

	body := getJSON(t, ts.URL+"/snapshots", http.StatusOK)
	if body["count"] != float64(0) {
		t.Errorf("initial snapshots = %+v", body)
	}

	// Processing a file creates a snapshot.
	path := filepath.Join(cfg.Shares[0], "invoice.txt")
	if err := os.WriteFile(path, []byte("invoice total amount due"), 0o644); err != nil {
		t.Fatal(err)
	}
	processed := postJSON(t, ts.URL+"/process", map[string]string{"path": path}, http.StatusOK)
	target, _ := processed["target_path"].(string)
	if target == "" {
		t.Fatalf("process result = %+v", processed)
	}

	body = getJSON(t, ts.URL+"/snapshots?operation=file_processing", http.StatusOK)
	if body["count"] != float64(1) {
		t.Fatalf("snapshots = %+v", body)
	}
	snaps := body["snapshots"].([]any)
	id := snaps[0].(map[string]any)["id"].(string)

	// Unknown operation filter is a 400.
	getJSON(t, ts.URL+"/snapshots?operation=undo", http.StatusBadRequest)

	// Roll the processing back; the file returns to its original path.
	result := postJSON(t, ts.URL+"/snapshots/"+id+"/rollback", nil, http.StatusOK)
	if result["success"] != true {
		t.Errorf("rollback = %+v", result)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file not restored: %v", err)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Error("target still present after rollback")
	}

	// Missing snapshot is a 404.
	postJSON(t, ts.URL+"/snapshots/nope/rollback", nil, http.StatusNotFound)
}
