package commands

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"docsort/internal/adapters/filesystem"
	"docsort/internal/application"
	"docsort/internal/config"
	"docsort/internal/domain"
	"docsort/internal/ports"
	"docsort/internal/rollback"
)

// contentSampleSize bounds how much of a file is read for classification.
const contentSampleSize = 64 << 10

// Orchestrator runs the full document pipeline: dedup short-circuit,
// classification with keyword fallback, review routing, snapshot, optional
// backup, move and persistence. Backups and object storage are optional.
type Orchestrator struct {
	cfg        *config.Config
	documents  ports.DocumentStore
	index      ports.HashIndex
	review     ports.ReviewStore
	classifier ports.Classifier
	snapshots  *rollback.Service
	backups    *filesystem.BackupManager
	objects    ports.ObjectStore
}

// NewOrchestrator wires the pipeline. classifier, backups and objects may
// be nil.
func NewOrchestrator(cfg *config.Config, documents ports.DocumentStore, index ports.HashIndex,
	review ports.ReviewStore, classifier ports.Classifier, snapshots *rollback.Service,
	backups *filesystem.BackupManager, objects ports.ObjectStore) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		documents:  documents,
		index:      index,
		review:     review,
		classifier: classifier,
		snapshots:  snapshots,
		backups:    backups,
		objects:    objects,
	}
}

// ProcessDocument feeds one file through the pipeline. The returned result
// is non-nil for every outcome, including failures.
func (o *Orchestrator) ProcessDocument(ctx context.Context, path string) *domain.ProcessingResult {
	info, err := os.Stat(path)
	if err != nil {
		return failure(err)
	}

	digest, err := filesystem.DigestFile(path)
	if err != nil {
		return failure(err)
	}

	// Dedup short-circuit: known content is never processed twice.
	if existing, err := o.documents.GetByDigest(digest); err == nil {
		return &domain.ProcessingResult{
			Success:     true,
			Duplicate:   true,
			DuplicateOf: existing.ID,
			Message:     fmt.Sprintf("content already stored as %s", existing.ID),
		}
	}

	result := o.classify(ctx, path)
	customer := result.Customer
	if customer == "" {
		customer = domain.CustomerRoot(path, o.cfg.InternalRoots)
	}

	// Low-confidence suggestions park in the review queue instead of
	// moving the file.
	if result.Confidence < o.cfg.Review.Threshold {
		item := domain.ReviewItem{
			ID:                uuid.NewString(),
			OriginalPath:      path,
			Filename:          filepath.Base(path),
			Size:              info.Size(),
			MTime:             info.ModTime(),
			SuggestedCategory: result.Category,
			Confidence:        result.Confidence,
			Customer:          customer,
			Project:           result.Project,
			Tags:              result.Tags,
			Metadata:          result.Metadata,
			CreatedAt:         time.Now(),
		}
		if err := o.review.Add(item); err != nil {
			return failure(err)
		}
		return &domain.ProcessingResult{
			Success:  true,
			ReviewID: item.ID,
			Message:  fmt.Sprintf("confidence %.2f below threshold, queued for review", result.Confidence),
		}
	}

	docID := uuid.NewString()
	target := o.targetPath(result.Category, customer, result.Project, info.ModTime(), filepath.Base(path))

	snapReq := rollback.SnapshotRequest{
		Operation:     domain.OpFileProcessing,
		Description:   fmt.Sprintf("process %s", filepath.Base(path)),
		FileIDs:       []string{docID},
		OriginalPaths: map[string]string{docID: path},
		TargetPaths:   map[string]string{docID: target},
	}
	if o.objects != nil {
		snapReq.StorageKeys = map[string]string{docID: objectKey(o.cfg.CentralBase, target)}
	}
	if _, err := o.snapshots.Create(ctx, snapReq); err != nil {
		return failure(fmt.Errorf("snapshot: %w", err))
	}

	if o.backups != nil && o.cfg.Backup.Enabled {
		if _, err := o.backups.Create(path); err != nil {
			return failure(fmt.Errorf("backup: %w", err))
		}
	}

	moved, err := filesystem.MoveFile(path, target)
	if err != nil {
		return failure(err)
	}

	now := time.Now()
	doc := domain.Document{
		ID:           docID,
		Filename:     filepath.Base(moved),
		OriginalPath: path,
		TargetPath:   moved,
		Digest:       digest,
		Category:     result.Category,
		Customer:     customer,
		Project:      result.Project,
		Status:       domain.StatusProcessed,
		Tags:         result.Tags,
		Metadata:     result.Metadata,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := o.documents.Save(doc); err != nil {
		return failure(err)
	}
	if err := o.index.Put(domain.ContentRecord{
		Digest:       digest,
		Path:         moved,
		Size:         info.Size(),
		MTime:        info.ModTime(),
		CustomerRoot: customer,
	}); err != nil {
		return failure(err)
	}

	if o.objects != nil {
		key := objectKey(o.cfg.CentralBase, moved)
		if err := o.objects.Upload(ctx, moved, key); err != nil {
			log.Printf("mirror %s: %v", key, err)
		}
	}

	return &domain.ProcessingResult{
		Success:    true,
		DocumentID: docID,
		TargetPath: moved,
		Message:    fmt.Sprintf("filed as %s", result.Category),
	}
}

// classify asks the model when one is reachable and falls back to the
// keyword rules otherwise.
func (o *Orchestrator) classify(ctx context.Context, path string) *domain.ClassificationResult {
	content := readContentSample(path)

	if o.classifier != nil && o.classifier.IsAvailable(ctx) {
		result, err := o.classifier.Classify(ctx, content, filepath.Ext(path))
		if err == nil {
			return result
		}
		log.Printf("classifier failed for %s, using keyword fallback: %v", path, err)
	}
	fallback := domain.ClassifyContent(content)
	return &fallback
}

// targetPath expands the category's path template under the central base.
func (o *Orchestrator) targetPath(category, customer, project string, mtime time.Time, filename string) string {
	template, ok := o.cfg.Processing.CategoryPaths[category]
	if !ok {
		template = "{customer}/" + domain.CategorySubfolder(category) + "/{year}"
	}
	rel := domain.ExpandPathTemplate(template, customer, project, mtime.Year())
	return filepath.Join(o.cfg.CentralBase, rel, filename)
}

func failure(err error) *domain.ProcessingResult {
	return &domain.ProcessingResult{Error: err.Error()}
}

// objectKey derives a bucket key from the target path, relative to the
// central tree.
func objectKey(centralBase, path string) string {
	rel, err := filepath.Rel(centralBase, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	return filepath.ToSlash(rel)
}

// readContentSample returns the head of the file as text, or empty when the
// content looks binary.
func readContentSample(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	buf := make([]byte, contentSampleSize)
	n, _ := f.Read(buf)
	buf = buf[:n]

	probe := buf
	if len(probe) > 512 {
		probe = probe[:512]
	}
	if bytes.ContainsRune(probe, 0) {
		return ""
	}
	return string(buf)
}

// ProcessDocumentCommand runs one file through the pipeline
type ProcessDocumentCommand struct {
	orch *Orchestrator
	Path string
}

// NewProcessDocumentCommand creates a new ProcessDocumentCommand
func NewProcessDocumentCommand(orch *Orchestrator, path string) *ProcessDocumentCommand {
	return &ProcessDocumentCommand{orch: orch, Path: path}
}

// Validate checks if the process operation is valid
func (c *ProcessDocumentCommand) Validate() error {
	if err := application.ValidateRequired("path", c.Path); err != nil {
		return err
	}
	info, err := os.Stat(c.Path)
	if err != nil {
		return &application.ValidationError{Field: "path", Message: fmt.Sprintf("cannot access %s", c.Path)}
	}
	if info.IsDir() {
		return &application.ValidationError{Field: "path", Message: "path is a directory"}
	}
	return nil
}

// Execute runs the process document command
func (c *ProcessDocumentCommand) Execute(ctx context.Context) (*domain.ProcessingResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c.orch.ProcessDocument(ctx, c.Path), nil
}

// ProcessBatchResult contains the batch aggregate and per-file results
type ProcessBatchResult struct {
	Batch   domain.ProcessingBatch
	Results []domain.ProcessingResult
}

// ProcessBatchCommand runs a set of files through the pipeline with a fixed
// worker pool
type ProcessBatchCommand struct {
	orch      *Orchestrator
	batches   ports.BatchStore
	snapshots *rollback.Service
	Paths     []string
	Workers   int
}

// NewProcessBatchCommand creates a new ProcessBatchCommand. workers <= 0
// uses the configured default.
func NewProcessBatchCommand(orch *Orchestrator, batches ports.BatchStore, snapshots *rollback.Service, paths []string, workers int) *ProcessBatchCommand {
	if workers <= 0 {
		workers = orch.cfg.Processing.Workers
	}
	return &ProcessBatchCommand{
		orch:      orch,
		batches:   batches,
		snapshots: snapshots,
		Paths:     paths,
		Workers:   workers,
	}
}

// Validate checks if the batch operation is valid
func (c *ProcessBatchCommand) Validate() error {
	if len(c.Paths) == 0 {
		return &application.ValidationError{Field: "paths", Message: "at least one path is required"}
	}
	for _, p := range c.Paths {
		if strings.TrimSpace(p) == "" {
			return &application.ValidationError{Field: "paths", Message: "empty path in batch"}
		}
	}
	return nil
}

// Execute runs the batch command
func (c *ProcessBatchCommand) Execute(ctx context.Context) (*ProcessBatchResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	batch := domain.ProcessingBatch{
		ID:         uuid.NewString(),
		Status:     domain.StatusPending,
		TotalFiles: len(c.Paths),
		StartedAt:  time.Now(),
	}
	if err := c.batches.Save(batch); err != nil {
		return nil, err
	}

	// Jobs carry indexes so repeated paths still get one result per input.
	jobs := make(chan int)
	results := make([]domain.ProcessingResult, len(c.Paths))

	var wg sync.WaitGroup
	for w := 0; w < c.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = *c.orch.ProcessDocument(ctx, c.Paths[i])
			}
		}()
	}
	for i := range c.Paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	// The batch snapshot records every file the batch touched, while the
	// stored batch still holds its pre-completion counters.
	fileIDs := make([]string, 0, len(results))
	originals := make(map[string]string, len(results))
	targets := make(map[string]string, len(results))
	for i, r := range results {
		if r.DocumentID == "" {
			continue
		}
		fileIDs = append(fileIDs, r.DocumentID)
		originals[r.DocumentID] = c.Paths[i]
		targets[r.DocumentID] = r.TargetPath
	}
	if len(fileIDs) > 0 {
		if _, err := c.snapshots.Create(ctx, rollback.SnapshotRequest{
			Operation:     domain.OpBatchProcessing,
			Description:   fmt.Sprintf("batch of %d files", len(c.Paths)),
			BatchID:       batch.ID,
			FileIDs:       fileIDs,
			OriginalPaths: originals,
			TargetPaths:   targets,
		}); err != nil {
			return nil, fmt.Errorf("snapshot: %w", err)
		}
	}

	for _, r := range results {
		if r.Error != "" {
			batch.FailedFiles++
		} else {
			batch.ProcessedFiles++
		}
	}
	batch.Status = domain.StatusProcessed
	if batch.FailedFiles > 0 && batch.ProcessedFiles == 0 {
		batch.Status = domain.StatusFailed
	}
	batch.CompletedAt = time.Now()
	if err := c.batches.Save(batch); err != nil {
		return nil, err
	}

	return &ProcessBatchResult{Batch: batch, Results: results}, nil
}
