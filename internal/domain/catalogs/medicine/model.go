// Package medicine provides the medicine catalog.
package medicine

import (
	"context"
	"time"

	"pharmapos/internal/core/apperror"
	"pharmapos/internal/core/id"
	"pharmapos/internal/core/types"
)

// DefaultPackSize is assumed when stock intake does not specify one.
const DefaultPackSize int64 = 10

// Medicine represents one stocked product with split strip/loose inventory.
// Stock invariant: Quantity >= 0 and 0 <= LooseQty < PackSize at all times;
// only the stock ledger mutates the pair.
type Medicine struct {
	ID id.ID `db:"id" json:"id"`

	Name  string `db:"name" json:"name"`
	Batch string `db:"batch" json:"batch"`

	// Expiry is the batch expiry date.
	Expiry *time.Time `db:"expiry" json:"expiry,omitempty"`

	// HSN is the GST classification code printed on invoices.
	HSN *string `db:"hsn" json:"hsn,omitempty"`

	MRP          types.Money `db:"mrp" json:"mrp"`
	SellingPrice types.Money `db:"selling_price" json:"sellingPrice"`
	CostPrice    types.Money `db:"cost_price" json:"costPrice"`
	GSTPercent   types.Money `db:"gst_percent" json:"gstPercent"`

	// PackSize is tablets per strip.
	PackSize int64 `db:"pack_size" json:"packSize"`

	// Quantity is whole strips in stock.
	Quantity int64 `db:"quantity" json:"quantity"`

	// LooseQty is loose tablets from opened strips.
	LooseQty int64 `db:"loose_qty" json:"looseQty"`

	// BillImageRef points at the purchase bill image in external storage.
	BillImageRef *string `db:"bill_image_ref" json:"billImageRef,omitempty"`

	// MaxDiscount is the highest percentage discount staff may grant.
	MaxDiscount float64 `db:"max_discount" json:"maxDiscount"`

	// Version implements optimistic locking.
	Version int `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewMedicine creates a medicine with defaults applied.
func NewMedicine(name, batch string) *Medicine {
	now := time.Now().UTC()
	return &Medicine{
		ID:           id.New(),
		Name:         name,
		Batch:        batch,
		PackSize:     DefaultPackSize,
		MRP:          types.ZeroMoney(),
		SellingPrice: types.ZeroMoney(),
		CostPrice:    types.ZeroMoney(),
		GSTPercent:   types.ZeroMoney(),
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// TotalTablets returns the stock expressed in the tablet domain.
func (m *Medicine) TotalTablets() int64 {
	return types.ToTablets(m.Quantity, m.LooseQty, m.PackSize)
}

// Validate checks catalog invariants.
func (m *Medicine) Validate(ctx context.Context) error {
	if m.Name == "" {
		return apperror.NewValidation("medicine name is required").
			WithDetail("field", "name")
	}

	if m.PackSize < 1 {
		return apperror.NewValidation("pack size must be at least 1").
			WithDetail("field", "packSize")
	}

	if m.Quantity < 0 {
		return apperror.NewValidation("strip quantity cannot be negative").
			WithDetail("field", "quantity")
	}

	if m.LooseQty < 0 || m.LooseQty >= m.PackSize {
		return apperror.NewValidation("loose quantity must stay within one strip").
			WithDetail("field", "looseQty").
			WithDetail("packSize", m.PackSize)
	}

	for field, v := range map[string]types.Money{
		"mrp":          m.MRP,
		"sellingPrice": m.SellingPrice,
		"costPrice":    m.CostPrice,
		"gstPercent":   m.GSTPercent,
	} {
		if v.IsNegative() {
			return apperror.NewValidation("price fields cannot be negative").
				WithDetail("field", field)
		}
	}

	if m.MaxDiscount < 0 || m.MaxDiscount > 100 {
		return apperror.NewValidation("max discount must be a percentage").
			WithDetail("field", "maxDiscount")
	}

	return nil
}
