package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"docsort/internal/adapters/filesystem"
	"docsort/internal/application"
	"docsort/internal/config"
	"docsort/internal/domain"
	"docsort/internal/ports"
)

// ConfirmReviewResult contains the outcome of confirming a review item
type ConfirmReviewResult struct {
	Document *domain.Document
	Message  string
}

// ConfirmReviewCommand files a reviewed document under the operator's
// chosen category and records the decision in the feedback log
type ConfirmReviewCommand struct {
	cfg       *config.Config
	review    ports.ReviewStore
	documents ports.DocumentStore
	index     ports.HashIndex
	feedback  ports.FeedbackLog
	ReviewID  string
	Category  string
	Customer  string
	Project   string
}

// NewConfirmReviewCommand creates a new ConfirmReviewCommand. Category,
// Customer and Project override the suggestion when non-empty.
func NewConfirmReviewCommand(cfg *config.Config, review ports.ReviewStore, documents ports.DocumentStore,
	index ports.HashIndex, feedback ports.FeedbackLog, reviewID, category, customer, project string) *ConfirmReviewCommand {
	return &ConfirmReviewCommand{
		cfg:       cfg,
		review:    review,
		documents: documents,
		index:     index,
		feedback:  feedback,
		ReviewID:  reviewID,
		Category:  category,
		Customer:  customer,
		Project:   project,
	}
}

// Validate checks if the confirm operation is valid
func (c *ConfirmReviewCommand) Validate() error {
	if err := application.ValidateRequired("reviewID", c.ReviewID); err != nil {
		return err
	}
	if c.Category != "" {
		return application.ValidateCategory("category", c.Category)
	}
	return nil
}

// Execute runs the confirm review command
func (c *ConfirmReviewCommand) Execute(ctx context.Context) (*ConfirmReviewResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	item, err := c.review.Get(c.ReviewID)
	if err != nil {
		return nil, err
	}

	category := strings.ToLower(c.Category)
	if category == "" {
		category = item.SuggestedCategory
	}
	customer := c.Customer
	if customer == "" {
		customer = item.Customer
	}
	project := c.Project
	if project == "" {
		project = item.Project
	}

	if customer == "" {
		customer = domain.FallbackCustomer
	}

	digest, err := filesystem.DigestFile(item.OriginalPath)
	if err != nil {
		return nil, fmt.Errorf("hash reviewed file: %w", err)
	}

	// Confirmed files land exactly where a crawl would put them.
	targetDir := domain.TargetDir(c.cfg.CentralBase, customer, domain.CategorySubfolder(category),
		c.cfg.Sorting.EnableYearSubfolders, c.cfg.Sorting.YearFoldersUnder, item.MTime)
	moved, err := filesystem.MoveFile(item.OriginalPath, filepath.Join(targetDir, item.Filename))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	doc := domain.Document{
		ID:           uuid.NewString(),
		Filename:     filepath.Base(moved),
		OriginalPath: item.OriginalPath,
		TargetPath:   moved,
		Digest:       digest,
		Category:     category,
		Customer:     customer,
		Project:      project,
		Status:       domain.StatusProcessed,
		Tags:         item.Tags,
		Metadata:     item.Metadata,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := c.documents.Save(doc); err != nil {
		return nil, err
	}
	if err := c.index.Put(domain.ContentRecord{
		Digest:       digest,
		Path:         moved,
		Size:         item.Size,
		MTime:        item.MTime,
		CustomerRoot: customer,
	}); err != nil {
		return nil, err
	}

	if err := c.feedback.Append(domain.FeedbackRecord{
		ID:                item.ID,
		ChosenCategory:    category,
		SuggestedCategory: item.SuggestedCategory,
		Confidence:        item.Confidence,
		Customer:          customer,
		Project:           project,
		Filename:          item.Filename,
		MovedTo:           moved,
	}); err != nil {
		return nil, fmt.Errorf("record feedback: %w", err)
	}

	if err := c.review.Delete(item.ID); err != nil {
		return nil, err
	}

	return &ConfirmReviewResult{
		Document: &doc,
		Message:  fmt.Sprintf("Filed %s as %s", item.Filename, category),
	}, nil
}

// DiscardReviewCommand drops a pending review item without moving its file
type DiscardReviewCommand struct {
	review   ports.ReviewStore
	ReviewID string
}

// NewDiscardReviewCommand creates a new DiscardReviewCommand
func NewDiscardReviewCommand(review ports.ReviewStore, reviewID string) *DiscardReviewCommand {
	return &DiscardReviewCommand{review: review, ReviewID: reviewID}
}

// Validate checks if the discard operation is valid
func (c *DiscardReviewCommand) Validate() error {
	return application.ValidateRequired("reviewID", c.ReviewID)
}

// Execute runs the discard review command
func (c *DiscardReviewCommand) Execute(ctx context.Context) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if _, err := c.review.Get(c.ReviewID); err != nil {
		return err
	}
	return c.review.Delete(c.ReviewID)
}
