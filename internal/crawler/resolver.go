package crawler

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"docsort/internal/adapters/filesystem"
	"docsort/internal/domain"
)

// Resolution describes how a digest collision was settled.
type Resolution struct {
	// NewIsPrimary is true when the observed file displaced the indexed
	// primary (or adopted a missing one).
	NewIsPrimary bool
	// QuarantinedPath is where the losing copy landed, empty when the
	// primary was missing and nothing moved.
	QuarantinedPath string
}

// Resolver settles digest collisions between an indexed primary and a newly
// observed file. The newer mtime wins; on a tie the larger file wins; on an
// exact tie the indexed primary stays.
type Resolver struct {
	centralBase string
}

// NewResolver creates a resolver quarantining under centralBase.
func NewResolver(centralBase string) *Resolver {
	return &Resolver{centralBase: centralBase}
}

// Resolve compares the observed file against the indexed record and moves
// the losing copy into a quarantine folder. The observed file's quarantine
// is its own customer bucket; a displaced primary quarantines next to where
// it lived.
func (r *Resolver) Resolve(existing domain.ContentRecord, path string, size int64, mtime time.Time, customer string) (Resolution, error) {
	if existing.WinsOver(mtime, size) {
		dst := filepath.Join(filesystem.QuarantineDir(r.centralBase, customer), filepath.Base(path))
		moved, err := filesystem.MoveFile(path, dst)
		if err != nil {
			return Resolution{}, fmt.Errorf("quarantine duplicate %s: %w", path, err)
		}
		return Resolution{QuarantinedPath: moved}, nil
	}

	// The observed file wins. A primary that vanished is adopted in place;
	// otherwise the old primary moves to its own customer's quarantine.
	if _, err := os.Stat(existing.Path); os.IsNotExist(err) {
		return Resolution{NewIsPrimary: true}, nil
	}

	quarantine := filesystem.QuarantineDir(r.centralBase, existing.CustomerRoot)
	if existing.CustomerRoot == "" {
		quarantine = filesystem.PrimaryQuarantineDir(r.centralBase, existing.Path)
	}
	dst := filepath.Join(quarantine, filepath.Base(existing.Path))
	moved, err := filesystem.MoveFile(existing.Path, dst)
	if err != nil {
		return Resolution{}, fmt.Errorf("quarantine displaced primary %s: %w", existing.Path, err)
	}
	return Resolution{NewIsPrimary: true, QuarantinedPath: moved}, nil
}
