package commands

import (
	"context"
	"time"

	"docsort/internal/application"
	"docsort/internal/domain"
	"docsort/internal/rollback"
)

// RollbackSnapshotCommand restores the state captured in a snapshot
type RollbackSnapshotCommand struct {
	service    *rollback.Service
	SnapshotID string
}

// NewRollbackSnapshotCommand creates a new RollbackSnapshotCommand
func NewRollbackSnapshotCommand(service *rollback.Service, snapshotID string) *RollbackSnapshotCommand {
	return &RollbackSnapshotCommand{service: service, SnapshotID: snapshotID}
}

// Validate checks if the rollback operation is valid
func (c *RollbackSnapshotCommand) Validate() error {
	return application.ValidateRequired("snapshotID", c.SnapshotID)
}

// Execute runs the rollback command
func (c *RollbackSnapshotCommand) Execute(ctx context.Context) (*domain.RollbackResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c.service.Rollback(ctx, c.SnapshotID)
}

// ListSnapshotsCommand lists snapshots newest first
type ListSnapshotsCommand struct {
	service   *rollback.Service
	Operation string
	Since     time.Time
	Limit     int
}

// NewListSnapshotsCommand creates a new ListSnapshotsCommand. Operation
// empty means all types.
func NewListSnapshotsCommand(service *rollback.Service, operation string, since time.Time, limit int) *ListSnapshotsCommand {
	return &ListSnapshotsCommand{service: service, Operation: operation, Since: since, Limit: limit}
}

// Validate checks if the list operation is valid
func (c *ListSnapshotsCommand) Validate() error {
	return application.ValidateOperationType("operation", c.Operation)
}

// Execute runs the list snapshots command
func (c *ListSnapshotsCommand) Execute(ctx context.Context) ([]domain.Snapshot, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c.service.List(domain.OperationType(c.Operation), c.Since, c.Limit)
}
