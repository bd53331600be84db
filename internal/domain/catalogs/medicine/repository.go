package medicine

import (
	"context"
	"time"

	"pharmapos/internal/core/id"
)

// Repository defines persistence for the medicine catalog.
type Repository interface {
	Create(ctx context.Context, m *Medicine) error

	// Update persists all mutable fields with optimistic locking on Version.
	Update(ctx context.Context, m *Medicine) error

	GetByID(ctx context.Context, medicineID id.ID) (*Medicine, error)

	// List returns all medicines sorted by name.
	List(ctx context.Context) ([]*Medicine, error)

	// Search matches a case-insensitive substring on name or batch,
	// sorted oldest-expiry-first, capped at limit.
	Search(ctx context.Context, query string, limit int) ([]*Medicine, error)

	// Expiring returns medicines whose expiry falls on or before the cutoff.
	Expiring(ctx context.Context, cutoff time.Time) ([]*Medicine, error)

	// Delete removes the medicine row. Historical sale items keep their
	// denormalized snapshots, so no reconciliation happens here.
	Delete(ctx context.Context, medicineID id.ID) error
}
