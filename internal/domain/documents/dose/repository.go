package dose

import (
	"context"

	"pharmapos/internal/core/id"
)

// Repository defines persistence for pending doses.
type Repository interface {
	Create(ctx context.Context, p *PendingDose) error

	GetByID(ctx context.Context, pendingID id.ID) (*PendingDose, error)

	// ListUnresolved returns unresolved records, newest first.
	ListUnresolved(ctx context.Context) ([]*PendingDose, error)

	// Delete removes the record after resolution.
	Delete(ctx context.Context, pendingID id.ID) error
}
