package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"docsort/internal/adapters/filesystem"
	"docsort/internal/application"
	"docsort/internal/config"
	"docsort/internal/domain"
	"docsort/internal/ports"
)

// PromoteDuplicateResult contains the outcome of a promotion
type PromoteDuplicateResult struct {
	PromotedPath   string
	DemotedPath    string
	AdoptedMissing bool
	Message        string
}

// PromoteDuplicateCommand makes a quarantined file the primary copy of its
// content. The current primary moves to its own customer's quarantine; a
// primary that vanished from disk is simply replaced.
type PromoteDuplicateCommand struct {
	cfg   *config.Config
	index ports.HashIndex
	guard application.CrawlGuard
	Path  string
}

// NewPromoteDuplicateCommand creates a new PromoteDuplicateCommand
func NewPromoteDuplicateCommand(cfg *config.Config, index ports.HashIndex, guard application.CrawlGuard, path string) *PromoteDuplicateCommand {
	return &PromoteDuplicateCommand{cfg: cfg, index: index, guard: guard, Path: path}
}

// Validate checks if the promote operation is valid
func (c *PromoteDuplicateCommand) Validate() error {
	return guardQuarantinePath("path", c.Path)
}

// Execute runs the promote duplicate command
func (c *PromoteDuplicateCommand) Execute(ctx context.Context) (*PromoteDuplicateResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.guard.IsRunning() {
		return nil, &application.ConflictError{Operation: "promote duplicate"}
	}

	info, err := os.Stat(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, application.ErrNotFound
		}
		return nil, err
	}

	digest, err := filesystem.DigestFile(c.Path)
	if err != nil {
		return nil, err
	}

	result := &PromoteDuplicateResult{}

	// The promoted file takes over the primary's exact position when an
	// index record exists; only orphans get classified from scratch.
	var dest, customer string
	existing, err := c.index.Get(digest)
	switch {
	case err == nil:
		dest = existing.Path
		customer = existing.CustomerRoot
		if _, statErr := os.Stat(existing.Path); statErr == nil {
			// Demote the current primary into its customer's quarantine.
			demoteDir := filesystem.QuarantineDir(c.cfg.CentralBase, existing.CustomerRoot)
			demoted, moveErr := filesystem.MoveFile(existing.Path, filepath.Join(demoteDir, filepath.Base(existing.Path)))
			if moveErr != nil {
				return nil, fmt.Errorf("demote primary: %w", moveErr)
			}
			result.DemotedPath = demoted
		} else {
			result.AdoptedMissing = true
		}
	case errors.Is(err, domain.ErrNotFound):
		// Orphaned quarantine file, adopt it as a fresh primary.
		result.AdoptedMissing = true
		customer = domain.CustomerRoot(c.Path, c.cfg.InternalRoots)
		targetDir := domain.TargetDir(c.cfg.CentralBase, customer, domain.Subfolder(c.Path),
			c.cfg.Sorting.EnableYearSubfolders, c.cfg.Sorting.YearFoldersUnder, info.ModTime())
		dest = filepath.Join(targetDir, filepath.Base(c.Path))
	default:
		return nil, err
	}

	promoted, err := filesystem.MoveFile(c.Path, dest)
	if err != nil {
		return nil, err
	}

	if err := c.index.Put(domain.ContentRecord{
		Digest:       digest,
		Path:         promoted,
		Size:         info.Size(),
		MTime:        info.ModTime(),
		CustomerRoot: customer,
	}); err != nil {
		return nil, err
	}

	result.PromotedPath = promoted
	if result.AdoptedMissing {
		result.Message = fmt.Sprintf("Adopted %s as primary", filepath.Base(promoted))
	} else {
		result.Message = fmt.Sprintf("Promoted %s, previous primary quarantined", filepath.Base(promoted))
	}
	return result, nil
}
