package filesystem

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"docsort/internal/domain"
)

// FeedbackLog appends confirmed classifications to a JSON-lines file, one
// record per line.
type FeedbackLog struct {
	mu   sync.Mutex
	path string
}

// NewFeedbackLog creates a log writing to path.
func NewFeedbackLog(path string) *FeedbackLog {
	return &FeedbackLog{path: path}
}

// Append writes one record. The timestamp is set here when the caller left
// it zero.
func (l *FeedbackLog) Append(record domain.FeedbackRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}

	if err := EnsureDir(filepath.Dir(l.path)); err != nil {
		return err
	}
	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open feedback log: %w", err)
	}
	defer f.Close()

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode feedback record: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append feedback record: %w", err)
	}
	return nil
}
