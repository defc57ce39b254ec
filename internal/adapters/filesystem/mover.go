package filesystem

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"docsort/internal/domain"
)

// EnsureDir creates dir and any missing parents.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}

// UniquePath returns path if nothing exists there, otherwise the first
// name_N variant (suffix before the extension) that is free.
func UniquePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	for n := 1; ; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// MoveFile moves src to dst, creating dst's directory. Rename is tried
// first; cross-device moves fall back to copy then delete. The returned
// path may carry a _N suffix when dst was already taken.
func MoveFile(src, dst string) (string, error) {
	if err := EnsureDir(filepath.Dir(dst)); err != nil {
		return "", err
	}
	dst = UniquePath(dst)

	if err := os.Rename(src, dst); err == nil {
		return dst, nil
	}
	if err := copyFile(src, dst); err != nil {
		return "", err
	}
	if err := os.Remove(src); err != nil {
		return "", fmt.Errorf("remove source after copy: %w", err)
	}
	return dst, nil
}

// CopyFile copies src to dst, creating dst's directory and resolving name
// collisions the same way MoveFile does.
func CopyFile(src, dst string) (string, error) {
	if err := EnsureDir(filepath.Dir(dst)); err != nil {
		return "", err
	}
	dst = UniquePath(dst)
	if err := copyFile(src, dst); err != nil {
		return "", err
	}
	return dst, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("copy to %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close destination: %w", err)
	}
	// Keep the original mtime so dedup tie-breaks survive quarantine moves.
	_ = os.Chtimes(dst, info.ModTime(), info.ModTime())
	return nil
}

// QuarantineDir returns the duplicate quarantine folder for a customer in
// the central tree.
func QuarantineDir(centralBase, customerRoot string) string {
	return filepath.Join(centralBase, customerRoot, domain.QuarantineFolder)
}

// PrimaryQuarantineDir returns the quarantine folder for a displaced primary
// location. The primary's customer directory is assumed to be the parent of
// its subfolder; when the layout is too shallow the central fallback bucket
// is used instead.
func PrimaryQuarantineDir(centralBase, primaryPath string) string {
	customerDir := filepath.Dir(filepath.Dir(primaryPath))
	if customerDir == "." || customerDir == string(filepath.Separator) {
		return QuarantineDir(centralBase, domain.FallbackCustomer)
	}
	return filepath.Join(customerDir, domain.QuarantineFolder)
}

// ListQuarantined walks every _duplicates folder under centralBase and
// returns the files found there.
func ListQuarantined(centralBase string) ([]domain.DuplicateEntry, error) {
	var entries []domain.DuplicateEntry
	err := filepath.WalkDir(centralBase, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Base(filepath.Dir(path)) != domain.QuarantineFolder {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(centralBase, path)
		customer := domain.FallbackCustomer
		if parts := strings.Split(rel, string(filepath.Separator)); len(parts) > 1 {
			customer = parts[0]
		}
		entries = append(entries, domain.DuplicateEntry{
			Path:         path,
			Filename:     d.Name(),
			CustomerRoot: customer,
			Size:         info.Size(),
			MTime:        info.ModTime(),
		})
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("walk quarantine folders: %w", err)
	}
	return entries, nil
}
