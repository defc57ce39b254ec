package application

import "docsort/internal/domain"

// Re-export domain types for use by adapters
type (
	Document             = domain.Document
	DuplicateEntry       = domain.DuplicateEntry
	ReviewItem           = domain.ReviewItem
	ClassificationResult = domain.ClassificationResult
	ProcessingResult     = domain.ProcessingResult
	Snapshot             = domain.Snapshot
	RollbackResult       = domain.RollbackResult
)

// CrawlGuard reports whether a crawl is active. Mutating duplicate
// operations are rejected while one runs.
type CrawlGuard interface {
	IsRunning() bool
}
