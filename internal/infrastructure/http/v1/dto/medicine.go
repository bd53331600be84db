package dto

import (
	"time"

	"pharmapos/internal/core/types"
	"pharmapos/internal/domain/catalogs/medicine"
)

// CreateMedicineRequest for stock intake.
type CreateMedicineRequest struct {
	Name         string       `json:"name" binding:"required"`
	Batch        string       `json:"batch"`
	Expiry       *time.Time   `json:"expiry"`
	HSN          *string      `json:"hsn"`
	MRP          *types.Money `json:"mrp"`
	SellingPrice *types.Money `json:"sellingPrice"`
	CostPrice    *types.Money `json:"costPrice"`
	GSTPercent   *types.Money `json:"gstPercent"`
	PackSize     *int64       `json:"packSize"`
	Quantity     int64        `json:"quantity"`
	LooseQty     int64        `json:"looseQty"`
	BillImageRef *string      `json:"billImageRef"`
	MaxDiscount  *float64     `json:"maxDiscount"`
}

// UpdateMedicineRequest for partial edits. Nil fields stay unchanged;
// absent numerics never zero existing values.
type UpdateMedicineRequest struct {
	Name         *string      `json:"name"`
	Batch        *string      `json:"batch"`
	Expiry       *time.Time   `json:"expiry"`
	HSN          *string      `json:"hsn"`
	MRP          *types.Money `json:"mrp"`
	SellingPrice *types.Money `json:"sellingPrice"`
	CostPrice    *types.Money `json:"costPrice"`
	GSTPercent   *types.Money `json:"gstPercent"`
	PackSize     *int64       `json:"packSize"`
	Quantity     *int64       `json:"quantity"`
	LooseQty     *int64       `json:"looseQty"`
	BillImageRef *string      `json:"billImageRef"`
	MaxDiscount  *float64     `json:"maxDiscount"`
	Version      int          `json:"version" binding:"required,min=1"`
}

// MedicineResponse is the catalog view. CostPrice is nil for staff; only
// admin sees purchase pricing.
type MedicineResponse struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Batch        string       `json:"batch"`
	Expiry       *time.Time   `json:"expiry,omitempty"`
	HSN          *string      `json:"hsn,omitempty"`
	MRP          types.Money  `json:"mrp"`
	SellingPrice types.Money  `json:"sellingPrice"`
	CostPrice    *types.Money `json:"costPrice,omitempty"`
	GSTPercent   types.Money  `json:"gstPercent"`
	PackSize     int64        `json:"packSize"`
	Quantity     int64        `json:"quantity"`
	LooseQty     int64        `json:"looseQty"`
	TotalTablets int64        `json:"totalTablets"`
	BillImageRef *string      `json:"billImageRef,omitempty"`
	MaxDiscount  float64      `json:"maxDiscount"`
	Version      int          `json:"version"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// FromMedicine builds a response, withholding cost price unless allowed.
func FromMedicine(m *medicine.Medicine, includeCost bool) MedicineResponse {
	resp := MedicineResponse{
		ID:           m.ID.String(),
		Name:         m.Name,
		Batch:        m.Batch,
		Expiry:       m.Expiry,
		HSN:          m.HSN,
		MRP:          m.MRP,
		SellingPrice: m.SellingPrice,
		GSTPercent:   m.GSTPercent,
		PackSize:     m.PackSize,
		Quantity:     m.Quantity,
		LooseQty:     m.LooseQty,
		TotalTablets: m.TotalTablets(),
		BillImageRef: m.BillImageRef,
		MaxDiscount:  m.MaxDiscount,
		Version:      m.Version,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if includeCost {
		cost := m.CostPrice
		resp.CostPrice = &cost
	}
	return resp
}

// FromMedicines maps a list.
func FromMedicines(items []*medicine.Medicine, includeCost bool) []MedicineResponse {
	out := make([]MedicineResponse, 0, len(items))
	for _, m := range items {
		out = append(out, FromMedicine(m, includeCost))
	}
	return out
}
