package sale

import (
	"context"
	"time"

	"pharmapos/internal/core/id"
)

// Filter narrows sale listings for reports and the sales journal.
type Filter struct {
	DateFrom *time.Time
	DateTo   *time.Time

	// Search matches invoice number or customer name, case-insensitive.
	Search string
}

// Repository defines persistence for sale documents.
type Repository interface {
	Create(ctx context.Context, s *Sale) error

	// Update overwrites the header with optimistic locking on Version.
	Update(ctx context.Context, s *Sale) error

	// SaveItems replaces the full item table part of a sale.
	SaveItems(ctx context.Context, saleID id.ID, items []Item) error

	// GetByID returns the header without items.
	GetByID(ctx context.Context, saleID id.ID) (*Sale, error)

	GetItems(ctx context.Context, saleID id.ID) ([]Item, error)

	// GetByInvoiceNo returns the header for an invoice number.
	GetByInvoiceNo(ctx context.Context, invoiceNo string) (*Sale, error)

	// Delete removes the sale and its items.
	Delete(ctx context.Context, saleID id.ID) error

	// List returns headers matching the filter, newest first.
	List(ctx context.Context, filter Filter) ([]*Sale, error)
}
