package medicine

import (
	"context"
	"fmt"
	"time"

	"pharmapos/internal/core/apperror"
	"pharmapos/internal/core/appctx"
	"pharmapos/internal/core/id"
	"pharmapos/internal/core/types"
	"pharmapos/internal/domain/audit"
	"pharmapos/pkg/logger"
)

const (
	searchLimit       = 20
	defaultExpiryDays = 90
)

// Service provides business logic for the medicine catalog.
type Service struct {
	repo  Repository
	audit audit.Recorder
}

// NewService creates a new medicine service.
func NewService(repo Repository, recorder audit.Recorder) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Service{repo: repo, audit: recorder}
}

// List returns all medicines sorted by name.
func (s *Service) List(ctx context.Context) ([]*Medicine, error) {
	return s.repo.List(ctx)
}

// Search matches name or batch, oldest expiry first, at most 20 results.
func (s *Service) Search(ctx context.Context, query string) ([]*Medicine, error) {
	if query == "" {
		return []*Medicine{}, nil
	}
	return s.repo.Search(ctx, query, searchLimit)
}

// Expiring returns medicines expiring within days from now (default 90).
func (s *Service) Expiring(ctx context.Context, days int) ([]*Medicine, error) {
	if days <= 0 {
		days = defaultExpiryDays
	}
	cutoff := time.Now().AddDate(0, 0, days)
	return s.repo.Expiring(ctx, cutoff)
}

// GetByID retrieves a single medicine.
func (s *Service) GetByID(ctx context.Context, medicineID id.ID) (*Medicine, error) {
	return s.repo.GetByID(ctx, medicineID)
}

// Create validates and persists a new medicine from stock intake.
func (s *Service) Create(ctx context.Context, m *Medicine) error {
	if id.IsNil(m.ID) {
		m.ID = id.New()
	}
	if m.PackSize == 0 {
		m.PackSize = DefaultPackSize
	}
	if m.Version == 0 {
		m.Version = 1
	}
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now

	// Intake may hand over a loose count spilling past a strip; fold it in.
	tablets := types.ToTablets(m.Quantity, m.LooseQty, m.PackSize)
	m.Quantity, m.LooseQty = types.FromTablets(tablets, m.PackSize)

	if err := m.Validate(ctx); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return fmt.Errorf("create medicine: %w", err)
	}

	logger.Info(ctx, "medicine created", "id", m.ID, "name", m.Name, "batch", m.Batch)
	return nil
}

// Patch holds a partial update. Nil fields leave the stored value unchanged,
// so a form submitting empty numeric inputs never zeroes prices by accident.
type Patch struct {
	Name         *string
	Batch        *string
	Expiry       *time.Time
	HSN          *string
	MRP          *types.Money
	SellingPrice *types.Money
	CostPrice    *types.Money
	GSTPercent   *types.Money
	PackSize     *int64
	Quantity     *int64
	LooseQty     *int64
	BillImageRef *string
	MaxDiscount  *float64

	// Version, when positive, is the version the client edited; the write
	// fails with a conflict if the row moved on in the meantime.
	Version int
}

// Update applies a partial update with optimistic locking.
func (s *Service) Update(ctx context.Context, medicineID id.ID, patch Patch) (*Medicine, error) {
	m, err := s.repo.GetByID(ctx, medicineID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		m.Name = *patch.Name
	}
	if patch.Batch != nil {
		m.Batch = *patch.Batch
	}
	if patch.Expiry != nil {
		m.Expiry = patch.Expiry
	}
	if patch.HSN != nil {
		m.HSN = patch.HSN
	}
	if patch.MRP != nil {
		m.MRP = *patch.MRP
	}
	if patch.SellingPrice != nil {
		m.SellingPrice = *patch.SellingPrice
	}
	if patch.CostPrice != nil {
		m.CostPrice = *patch.CostPrice
	}
	if patch.GSTPercent != nil {
		m.GSTPercent = *patch.GSTPercent
	}
	if patch.PackSize != nil {
		m.PackSize = *patch.PackSize
	}
	if patch.Quantity != nil {
		m.Quantity = *patch.Quantity
	}
	if patch.LooseQty != nil {
		m.LooseQty = *patch.LooseQty
	}
	if patch.BillImageRef != nil {
		m.BillImageRef = patch.BillImageRef
	}
	if patch.MaxDiscount != nil {
		m.MaxDiscount = *patch.MaxDiscount
	}

	// Re-normalize in case pack size or loose count changed.
	tablets := types.ToTablets(m.Quantity, m.LooseQty, m.PackSize)
	m.Quantity, m.LooseQty = types.FromTablets(tablets, m.PackSize)

	if patch.Version > 0 {
		m.Version = patch.Version
	}
	m.UpdatedAt = time.Now().UTC()

	if err := m.Validate(ctx); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}

	return m, nil
}

// Delete hard-deletes a medicine. Admin only.
func (s *Service) Delete(ctx context.Context, medicineID id.ID) error {
	if !appctx.IsAdmin(ctx) {
		return apperror.NewForbidden("only admin can delete medicines")
	}

	m, err := s.repo.GetByID(ctx, medicineID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, medicineID); err != nil {
		return err
	}

	if err := s.audit.Record(ctx, audit.Entry{
		Action:     audit.ActionDelete,
		EntityType: "medicine",
		EntityID:   medicineID,
		Message:    fmt.Sprintf("deleted medicine %s (batch %s)", m.Name, m.Batch),
	}); err != nil {
		logger.Warn(ctx, "audit write failed", "error", err)
	}

	logger.Info(ctx, "medicine deleted", "id", medicineID, "name", m.Name)
	return nil
}
