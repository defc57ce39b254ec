package application

import (
	"fmt"

	"docsort/internal/domain"
)

// Sentinel errors for common conditions
var (
	ErrNotFound        = domain.ErrNotFound
	ErrCrawlRunning    = domain.ErrCrawlRunning
	ErrCrawlNotRunning = domain.ErrCrawlNotRunning
)

// ValidationError represents a validation failure with details
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConflictError represents an operation rejected because of an active crawl
type ConflictError struct {
	Operation string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("cannot %s while a crawl is running", e.Operation)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrCrawlRunning
}

// ProcessingError represents a per-file pipeline failure
type ProcessingError struct {
	Path   string
	Reason string
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("cannot process %s: %s", e.Path, e.Reason)
}
