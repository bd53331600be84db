package dto

import (
	"pharmapos/internal/core/apperror"
	"pharmapos/internal/core/id"
	"pharmapos/internal/domain/documents/returns"
)

// ReturnItemRequest is one returned line, matched against the original sale
// by medicine id or, for free-text lines, by name.
type ReturnItemRequest struct {
	MedicineID *string `json:"medicineId"`
	Name       string  `json:"name"`
	Quantity   int64   `json:"quantity" binding:"required,min=1"`
}

// ReturnRequest returns items against a sale.
type ReturnRequest struct {
	Items []ReturnItemRequest `json:"items" binding:"required,min=1"`
}

// ToReturnItems converts request lines to service inputs.
func ToReturnItems(items []ReturnItemRequest) ([]returns.Item, error) {
	out := make([]returns.Item, 0, len(items))
	for _, item := range items {
		ret := returns.Item{Name: item.Name, Quantity: item.Quantity}
		if item.MedicineID != nil && *item.MedicineID != "" {
			medID, err := id.Parse(*item.MedicineID)
			if err != nil {
				return nil, apperror.NewValidation("invalid medicine id").
					WithDetail("medicineId", *item.MedicineID)
			}
			ret.MedicineID = &medID
		}
		out = append(out, ret)
	}
	return out, nil
}
