// Package stock provides the stock ledger, the single authority for
// mutating medicine stock. All arithmetic runs in the integer tablet
// domain; strip-level sales pass quantity*packSize through the same
// primitive instead of maintaining a separate strip-only path.
package stock

import (
	"context"
	"fmt"

	"pharmapos/internal/core/apperror"
	"pharmapos/internal/core/id"
	"pharmapos/pkg/logger"
)

// Service provides ledger operations.
type Service struct {
	repo Repository
}

// NewService creates a new stock ledger service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CheckAndDeduct removes tabletsNeeded from a medicine's balance.
// The repository performs the check and decrement as one conditional update;
// a rejected write is reported as insufficient stock with the medicine name,
// requested and available counts.
func (s *Service) CheckAndDeduct(ctx context.Context, medicineID id.ID, tabletsNeeded int64) (Balance, error) {
	if tabletsNeeded <= 0 {
		return Balance{}, apperror.NewValidation("tablets to deduct must be positive").
			WithDetail("tablets", tabletsNeeded)
	}

	balance, ok, err := s.repo.DeductTablets(ctx, medicineID, tabletsNeeded)
	if err != nil {
		return Balance{}, fmt.Errorf("deduct tablets: %w", err)
	}
	if !ok {
		// The conditional write refused; read the state for the error report.
		current, err := s.repo.GetBalance(ctx, medicineID)
		if err != nil {
			return Balance{}, err
		}
		return Balance{}, apperror.NewInsufficientStock(current.Name, tabletsNeeded, current.Tablets())
	}

	logger.Debug(ctx, "stock deducted",
		"medicine_id", medicineID,
		"tablets", tabletsNeeded,
		"remaining", balance.Tablets(),
	)

	return balance, nil
}

// Restock adds tablets back, used by returns and sale cancellations.
// Returns are always additive; there is no upper bound to enforce.
func (s *Service) Restock(ctx context.Context, medicineID id.ID, tabletsToAdd int64) (Balance, error) {
	if tabletsToAdd <= 0 {
		return Balance{}, apperror.NewValidation("tablets to restock must be positive").
			WithDetail("tablets", tabletsToAdd)
	}

	balance, err := s.repo.AddTablets(ctx, medicineID, tabletsToAdd)
	if err != nil {
		return Balance{}, fmt.Errorf("restock tablets: %w", err)
	}

	logger.Debug(ctx, "stock restored",
		"medicine_id", medicineID,
		"tablets", tabletsToAdd,
		"total", balance.Tablets(),
	)

	return balance, nil
}

// Availability returns the tablet balance for one medicine.
func (s *Service) Availability(ctx context.Context, medicineID id.ID) (int64, error) {
	balance, err := s.repo.GetBalance(ctx, medicineID)
	if err != nil {
		return 0, err
	}
	return balance.Tablets(), nil
}
