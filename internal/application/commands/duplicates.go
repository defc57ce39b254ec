package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"docsort/internal/adapters/filesystem"
	"docsort/internal/application"
	"docsort/internal/config"
	"docsort/internal/domain"
)

// defaultDuplicatesPage bounds a duplicates listing when no limit is given.
const defaultDuplicatesPage = 50

// ListDuplicatesResult is one page of quarantined files plus the total match
// count before paging.
type ListDuplicatesResult struct {
	Entries []domain.DuplicateEntry `json:"duplicates"`
	Total   int                     `json:"total"`
	Limit   int                     `json:"limit"`
	Offset  int                     `json:"offset"`
}

// ListDuplicatesCommand lists quarantined files across the central tree,
// newest first
type ListDuplicatesCommand struct {
	cfg      *config.Config
	Customer string
	Limit    int
	Offset   int
}

// NewListDuplicatesCommand creates a new ListDuplicatesCommand. Customer
// narrows the listing when non-empty; limit <= 0 uses the default page size.
func NewListDuplicatesCommand(cfg *config.Config, customer string, limit, offset int) *ListDuplicatesCommand {
	if limit <= 0 {
		limit = defaultDuplicatesPage
	}
	if offset < 0 {
		offset = 0
	}
	return &ListDuplicatesCommand{cfg: cfg, Customer: customer, Limit: limit, Offset: offset}
}

// Execute runs the list duplicates command
func (c *ListDuplicatesCommand) Execute(ctx context.Context) (*ListDuplicatesResult, error) {
	all, err := filesystem.ListQuarantined(c.cfg.CentralBase)
	if err != nil {
		return nil, err
	}

	var matched []domain.DuplicateEntry
	for _, e := range all {
		if c.Customer != "" && e.CustomerRoot != c.Customer {
			continue
		}
		matched = append(matched, e)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].MTime.Equal(matched[j].MTime) {
			return matched[i].MTime.After(matched[j].MTime)
		}
		return matched[i].Path < matched[j].Path
	})

	result := &ListDuplicatesResult{Total: len(matched), Limit: c.Limit, Offset: c.Offset}
	if c.Offset < len(matched) {
		end := c.Offset + c.Limit
		if end > len(matched) {
			end = len(matched)
		}
		result.Entries = matched[c.Offset:end]
	}
	return result, nil
}

// guardQuarantinePath validates that path points inside a quarantine folder.
func guardQuarantinePath(field, path string) error {
	if err := application.ValidateRequired(field, path); err != nil {
		return err
	}
	if filepath.Base(filepath.Dir(path)) != domain.QuarantineFolder {
		return &application.ValidationError{
			Field:   field,
			Message: fmt.Sprintf("%s is not inside a %s folder", path, domain.QuarantineFolder),
		}
	}
	return nil
}

// MoveDuplicateCommand moves a quarantined file into an explicit target
// directory, keeping its filename
type MoveDuplicateCommand struct {
	guard     application.CrawlGuard
	Path      string
	TargetDir string
}

// NewMoveDuplicateCommand creates a new MoveDuplicateCommand
func NewMoveDuplicateCommand(guard application.CrawlGuard, path, targetDir string) *MoveDuplicateCommand {
	return &MoveDuplicateCommand{guard: guard, Path: path, TargetDir: targetDir}
}

// Validate checks if the move operation is valid
func (c *MoveDuplicateCommand) Validate() error {
	if err := guardQuarantinePath("path", c.Path); err != nil {
		return err
	}
	return application.ValidateRequired("target_dir", c.TargetDir)
}

// Execute runs the move duplicate command
func (c *MoveDuplicateCommand) Execute(ctx context.Context) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	if c.guard.IsRunning() {
		return "", &application.ConflictError{Operation: "move duplicate"}
	}
	moved, err := filesystem.MoveFile(c.Path, filepath.Join(c.TargetDir, filepath.Base(c.Path)))
	if err != nil {
		return "", err
	}
	return moved, nil
}

// DeleteDuplicatesResult accounts for every requested path.
type DeleteDuplicatesResult struct {
	Deleted []string          `json:"deleted"`
	Failed  map[string]string `json:"failed,omitempty"`
}

// DeleteDuplicatesCommand removes quarantined files permanently. Failures
// are collected per path, never aborting the rest of the request
type DeleteDuplicatesCommand struct {
	guard application.CrawlGuard
	Paths []string
}

// NewDeleteDuplicatesCommand creates a new DeleteDuplicatesCommand
func NewDeleteDuplicatesCommand(guard application.CrawlGuard, paths []string) *DeleteDuplicatesCommand {
	return &DeleteDuplicatesCommand{guard: guard, Paths: paths}
}

// Validate checks if the delete operation is valid
func (c *DeleteDuplicatesCommand) Validate() error {
	if len(c.Paths) == 0 {
		return &application.ValidationError{Field: "paths", Message: "at least one path is required"}
	}
	return nil
}

// Execute runs the delete duplicates command
func (c *DeleteDuplicatesCommand) Execute(ctx context.Context) (*DeleteDuplicatesResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.guard.IsRunning() {
		return nil, &application.ConflictError{Operation: "delete duplicates"}
	}

	result := &DeleteDuplicatesResult{Deleted: []string{}, Failed: map[string]string{}}
	for _, path := range c.Paths {
		if err := guardQuarantinePath("paths", path); err != nil {
			result.Failed[path] = err.Error()
			continue
		}
		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				result.Failed[path] = "not found"
			} else {
				result.Failed[path] = err.Error()
			}
			continue
		}
		result.Deleted = append(result.Deleted, path)
	}
	return result, nil
}
