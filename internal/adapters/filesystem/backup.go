package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"docsort/internal/domain"
)

// BackupManager keeps timestamped pre-move copies under a single directory
// and prunes them by age.
type BackupManager struct {
	dir       string
	retention time.Duration
}

// NewBackupManager creates a manager writing under dir. Copies older than
// retentionDays are eligible for cleanup.
func NewBackupManager(dir string, retentionDays int) *BackupManager {
	return &BackupManager{
		dir:       dir,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
	}
}

// Create copies path into the backup directory under a timestamped name and
// returns the backup record.
func (m *BackupManager) Create(path string) (*domain.BackupInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat backup source: %w", err)
	}
	if err := EnsureDir(m.dir); err != nil {
		return nil, err
	}

	now := time.Now()
	name := fmt.Sprintf("%s_%s", now.Format("20060102_150405"), filepath.Base(path))
	dst, err := CopyFile(path, filepath.Join(m.dir, name))
	if err != nil {
		return nil, fmt.Errorf("create backup: %w", err)
	}

	return &domain.BackupInfo{
		ID:           uuid.NewString(),
		OriginalPath: path,
		BackupPath:   dst,
		Size:         info.Size(),
		CreatedAt:    now,
	}, nil
}

// Cleanup deletes backups older than the retention window and returns how
// many were removed.
func (m *BackupManager) Cleanup() (int, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read backup directory: %w", err)
	}

	cutoff := time.Now().Add(-m.retention)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(m.dir, entry.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}
