package dto

import (
	"time"

	"pharmapos/internal/core/apperror"
	"pharmapos/internal/core/id"
	"pharmapos/internal/core/types"
	"pharmapos/internal/domain/documents/dose"
)

// PendingCashRequest records cash collected ahead of itemization.
type PendingCashRequest struct {
	Amount types.Money `json:"amount"`
	Reason string      `json:"reason"`
}

// DoseItemRequest assigns tablets of one medicine.
type DoseItemRequest struct {
	MedicineID  string `json:"medicineId" binding:"required"`
	TabletCount int64  `json:"tabletCount" binding:"required,min=1"`
}

// ResolveDoseRequest itemizes a pending dose.
type ResolveDoseRequest struct {
	PendingID string            `json:"pendingId" binding:"required"`
	Items     []DoseItemRequest `json:"items" binding:"required,min=1"`
}

// DispenseDoseRequest records a one-phase dose.
type DispenseDoseRequest struct {
	Items           []DoseItemRequest `json:"items" binding:"required,min=1"`
	AmountCollected types.Money       `json:"amountCollected"`
	CustomerName    string            `json:"customerName"`
	Reason          string            `json:"reason"`
}

// ToResolveItems converts request lines to service inputs.
func ToResolveItems(items []DoseItemRequest) ([]dose.ResolveItem, error) {
	out := make([]dose.ResolveItem, 0, len(items))
	for _, item := range items {
		medID, err := id.Parse(item.MedicineID)
		if err != nil {
			return nil, apperror.NewValidation("invalid medicine id").
				WithDetail("medicineId", item.MedicineID)
		}
		out = append(out, dose.ResolveItem{MedicineID: medID, TabletCount: item.TabletCount})
	}
	return out, nil
}

// PendingDoseResponse is the pending dose view.
type PendingDoseResponse struct {
	ID        string      `json:"id"`
	Amount    types.Money `json:"amount"`
	Reason    string      `json:"reason,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

// FromPendingDoses maps a list.
func FromPendingDoses(items []*dose.PendingDose) []PendingDoseResponse {
	out := make([]PendingDoseResponse, 0, len(items))
	for _, p := range items {
		out = append(out, PendingDoseResponse{
			ID:        p.ID.String(),
			Amount:    p.Amount,
			Reason:    p.Reason,
			CreatedAt: p.CreatedAt,
		})
	}
	return out
}
