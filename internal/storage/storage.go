package storage

import (
	"context"

	"github.com/lanewatch/lanewatch/internal/core/model"
)

// Storage persists registry state beyond process memory. The core calls it
// best-effort: a failure is logged and recorded, never surfaced to the
// caller of a registry operation.
type Storage interface {
	// Connect establishes the backend connection.
	Connect(ctx context.Context) error

	// StoreHeartbeat persists the post-update snapshot of a service record.
	StoreHeartbeat(ctx context.Context, serviceID string, record *model.ServiceRecord) error

	// StoreError persists a collaborator failure record.
	StoreError(ctx context.Context, errRecord *model.ErrorRecord) error

	// Close releases the backend connection.
	Close() error
}
