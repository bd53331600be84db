// Package dose provides the two-phase dose dispensing workflow: cash can be
// collected immediately and the medicines itemized later, or both recorded
// at once.
package dose

import (
	"context"
	"time"

	"pharmapos/internal/core/apperror"
	"pharmapos/internal/core/id"
	"pharmapos/internal/core/types"
)

// PendingDose is collected cash awaiting itemization. It holds no stock
// effect; stock moves only at resolution, which deletes the record and
// leaves a sale in its place.
type PendingDose struct {
	ID id.ID `db:"id" json:"id"`

	// Amount is the cash collected up front.
	Amount types.Money `db:"amount" json:"amount"`

	Reason string `db:"reason" json:"reason"`

	Resolved  bool      `db:"resolved" json:"resolved"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Validate checks pending dose invariants.
func (p *PendingDose) Validate(ctx context.Context) error {
	if p.Amount.IsNegative() {
		return apperror.NewValidation("collected amount cannot be negative").
			WithDetail("field", "amount")
	}
	return nil
}
