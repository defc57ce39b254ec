package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"docsort/internal/application"
	"docsort/internal/application/commands"
	"docsort/internal/config"
	"docsort/internal/crawler"
	"docsort/internal/ports"
	"docsort/internal/rollback"
)

// Server exposes the ingest daemon's HTTP API.
type Server struct {
	cfg       *config.Config
	crawler   *crawler.Crawler
	review    ports.ReviewStore
	documents ports.DocumentStore
	index     ports.HashIndex
	batches   ports.BatchStore
	feedback  ports.FeedbackLog
	rollbacks *rollback.Service
	orch      *commands.Orchestrator
	baseCtx   context.Context
}

// New creates a Server wired to the application services.
func New(cfg *config.Config, cr *crawler.Crawler, review ports.ReviewStore, documents ports.DocumentStore,
	index ports.HashIndex, batches ports.BatchStore, feedback ports.FeedbackLog,
	rollbacks *rollback.Service, orch *commands.Orchestrator) *Server {
	return &Server{
		cfg:       cfg,
		crawler:   cr,
		review:    review,
		documents: documents,
		index:     index,
		batches:   batches,
		feedback:  feedback,
		rollbacks: rollbacks,
		orch:      orch,
		baseCtx:   context.Background(),
	}
}

// Routes returns the HTTP handler for the API endpoints.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /crawler/start", s.handleCrawlerStart)
	mux.HandleFunc("POST /crawler/stop", s.handleCrawlerStop)
	mux.HandleFunc("GET /crawler/status", s.handleCrawlerStatus)
	mux.HandleFunc("GET /crawler/stats", s.handleCrawlerStats)

	mux.HandleFunc("GET /duplicates", s.handleListDuplicates)
	mux.HandleFunc("POST /duplicates/promote", s.handlePromoteDuplicate)
	mux.HandleFunc("POST /duplicates/move", s.handleMoveDuplicate)
	mux.HandleFunc("POST /duplicates/delete", s.handleDeleteDuplicates)

	mux.HandleFunc("GET /classification/pending", s.handlePendingReviews)
	mux.HandleFunc("POST /classification/confirm", s.handleConfirmReview)
	mux.HandleFunc("POST /classification/discard", s.handleDiscardReview)
	mux.HandleFunc("GET /classification/download", s.handleDownloadPending)

	mux.HandleFunc("POST /process", s.handleProcess)
	mux.HandleFunc("POST /process/batch", s.handleProcessBatch)

	mux.HandleFunc("GET /snapshots", s.handleListSnapshots)
	mux.HandleFunc("GET /snapshots/{id}", s.handleGetSnapshot)
	mux.HandleFunc("POST /snapshots/{id}/rollback", s.handleRollback)

	return mux
}

// Start runs the HTTP server until the provided context is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.baseCtx = ctx

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		} else {
			errCh <- nil
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return <-errCh
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":          "ok",
		"crawler_running": s.crawler.Status().Running,
	})
}

func (s *Server) handleCrawlerStart(w http.ResponseWriter, r *http.Request) {
	if err := s.crawler.Start(s.baseCtx); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, s.crawler.Status())
}

func (s *Server) handleCrawlerStop(w http.ResponseWriter, r *http.Request) {
	if err := s.crawler.Stop(); err != nil {
		// Stopping an idle crawler is a no-op, not a conflict.
		if errors.Is(err, application.ErrCrawlNotRunning) {
			writeJSON(w, map[string]string{"status": "idle"})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, s.crawler.Status())
}

func (s *Server) handleCrawlerStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.crawler.Status())
}

func (s *Server) handleCrawlerStats(w http.ResponseWriter, r *http.Request) {
	status := s.crawler.Status()
	if status.Stats == nil {
		writeJSON(w, map[string]any{})
		return
	}
	writeJSON(w, status.Stats)
}

func (s *Server) handleListDuplicates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	offset := 0
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			offset = n
		}
	}

	cmd := commands.NewListDuplicatesCommand(s.cfg, q.Get("customer"), limit, offset)
	result, err := cmd.Execute(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, result)
}

func (s *Server) handlePromoteDuplicate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Path string `json:"path"`
	}
	if !decodeBody(w, r, &payload) {
		return
	}
	cmd := commands.NewPromoteDuplicateCommand(s.cfg, s.index, s.crawler, payload.Path)
	result, err := cmd.Execute(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, result)
}

func (s *Server) handleMoveDuplicate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Path      string `json:"path"`
		TargetDir string `json:"target_dir"`
	}
	if !decodeBody(w, r, &payload) {
		return
	}
	cmd := commands.NewMoveDuplicateCommand(s.crawler, payload.Path, payload.TargetDir)
	moved, err := cmd.Execute(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"moved_to": moved})
}

func (s *Server) handleDeleteDuplicates(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Paths []string `json:"paths"`
	}
	if !decodeBody(w, r, &payload) {
		return
	}
	cmd := commands.NewDeleteDuplicatesCommand(s.crawler, payload.Paths)
	result, err := cmd.Execute(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, result)
}

func (s *Server) handlePendingReviews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ports.ReviewFilter{
		Customer: q.Get("customer"),
		Project:  q.Get("project"),
	}
	if v := q.Get("min_confidence"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MinConfidence = f
		}
	}
	if v := q.Get("max_confidence"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MaxConfidence = f
		}
	}

	items, err := s.review.List(filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"pending": items, "count": len(items)})
}

func (s *Server) handleConfirmReview(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ID       string `json:"id"`
		Category string `json:"category"`
		Customer string `json:"customer"`
		Project  string `json:"project"`
	}
	if !decodeBody(w, r, &payload) {
		return
	}
	cmd := commands.NewConfirmReviewCommand(s.cfg, s.review, s.documents, s.index, s.feedback,
		payload.ID, payload.Category, payload.Customer, payload.Project)
	result, err := cmd.Execute(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, result)
}

func (s *Server) handleDiscardReview(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ID string `json:"id"`
	}
	if !decodeBody(w, r, &payload) {
		return
	}
	cmd := commands.NewDiscardReviewCommand(s.review, payload.ID)
	if err := cmd.Execute(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"discarded": payload.ID})
}

// handleDownloadPending streams the original file of a pending review item
// so an operator can inspect it before confirming.
func (s *Server) handleDownloadPending(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing id parameter", http.StatusBadRequest)
		return
	}
	item, err := s.review.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", item.Filename))
	http.ServeFile(w, r, item.OriginalPath)
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Path string `json:"path"`
	}
	if !decodeBody(w, r, &payload) {
		return
	}
	cmd := commands.NewProcessDocumentCommand(s.orch, payload.Path)
	result, err := cmd.Execute(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, result)
}

func (s *Server) handleProcessBatch(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Paths   []string `json:"paths"`
		Workers int      `json:"workers"`
	}
	if !decodeBody(w, r, &payload) {
		return
	}
	cmd := commands.NewProcessBatchCommand(s.orch, s.batches, s.rollbacks, payload.Paths, payload.Workers)
	result, err := cmd.Execute(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, result)
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var since time.Time
	if v := q.Get("since"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid since parameter: %v", err), http.StatusBadRequest)
			return
		}
		since = parsed
	}
	limit := 0
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	cmd := commands.NewListSnapshotsCommand(s.rollbacks, q.Get("operation"), since, limit)
	snapshots, err := cmd.Execute(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"snapshots": snapshots, "count": len(snapshots)})
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.rollbacks.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, snapshot)
}

func (s *Server) handleRollback(w http.ResponseWriter, r *http.Request) {
	cmd := commands.NewRollbackSnapshotCommand(s.rollbacks, r.PathValue("id"))
	result, err := cmd.Execute(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, result)
}

// decodeBody decodes a JSON request body, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil {
		http.Error(w, "missing request body", http.StatusBadRequest)
		return false
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, fmt.Sprintf("invalid payload: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

// writeError maps application errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var verr *application.ValidationError
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
	case errors.Is(err, application.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, application.ErrCrawlRunning), errors.Is(err, application.ErrCrawlNotRunning):
		status = http.StatusConflict
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf("encode response: %v", err), http.StatusInternalServerError)
	}
}
