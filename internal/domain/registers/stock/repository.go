package stock

import (
	"context"

	"pharmapos/internal/core/id"
	"pharmapos/internal/core/types"
)

// Balance is the stock state of one medicine after a ledger operation.
type Balance struct {
	MedicineID id.ID  `db:"id"`
	Name       string `db:"name"`
	Quantity   int64  `db:"quantity"`
	LooseQty   int64  `db:"loose_qty"`
	PackSize   int64  `db:"pack_size"`
}

// Tablets returns the balance in the tablet domain.
func (b Balance) Tablets() int64 {
	return types.ToTablets(b.Quantity, b.LooseQty, b.PackSize)
}

// Repository defines the storage primitives the ledger relies on.
//
// DeductTablets must be a single conditional update: the availability check
// and the decrement happen in one statement, so two concurrent sales of the
// last tablets cannot both pass a pre-check and drive stock negative.
type Repository interface {
	// DeductTablets decrements if the total tablet balance covers the request.
	// Returns ok=false without mutating when it does not.
	DeductTablets(ctx context.Context, medicineID id.ID, tablets int64) (Balance, bool, error)

	// AddTablets increments the tablet balance and re-normalizes the split.
	AddTablets(ctx context.Context, medicineID id.ID, tablets int64) (Balance, error)

	// GetBalance reads the current stock state.
	GetBalance(ctx context.Context, medicineID id.ID) (Balance, error)
}
