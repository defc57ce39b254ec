package ports

import (
	"context"

	"docsort/internal/domain"
)

// Classifier is the classification model collaborator. Implementations may
// fail or be unreachable; callers fall back to the deterministic keyword
// rules in the domain package.
type Classifier interface {
	Classify(ctx context.Context, content, fileExt string) (*domain.ClassificationResult, error)
	IsAvailable(ctx context.Context) bool
}
