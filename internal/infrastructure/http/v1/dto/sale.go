package dto

import (
	"time"

	"pharmapos/internal/core/apperror"
	"pharmapos/internal/core/id"
	"pharmapos/internal/core/types"
	"pharmapos/internal/domain/documents/sale"
)

// SaleItemRequest is one requested line.
type SaleItemRequest struct {
	MedicineID *string      `json:"medicineId"`
	Name       string       `json:"name"`
	Unit       string       `json:"unit"`
	Quantity   int64        `json:"quantity" binding:"required,min=1"`
	Price      *types.Money `json:"price"`
	Discount   float64      `json:"discount"`
}

// ToItemInput converts the request line to a service input.
func (r SaleItemRequest) ToItemInput() (sale.ItemInput, error) {
	input := sale.ItemInput{
		Name:     r.Name,
		Unit:     types.Unit(r.Unit),
		Quantity: r.Quantity,
		Price:    r.Price,
		Discount: r.Discount,
	}
	if r.MedicineID != nil && *r.MedicineID != "" {
		medID, err := id.Parse(*r.MedicineID)
		if err != nil {
			return sale.ItemInput{}, apperror.NewValidation("invalid medicine id").
				WithDetail("medicineId", *r.MedicineID)
		}
		input.MedicineID = &medID
	}
	return input, nil
}

// CreateSaleRequest for checkout.
type CreateSaleRequest struct {
	CustomerName  string            `json:"customerName"`
	CustomerPhone *string           `json:"customerPhone"`
	DoctorName    *string           `json:"doctorName"`
	PaymentMode   string            `json:"paymentMode"`
	SaleDate      *time.Time        `json:"saleDate"`
	Manual        bool              `json:"manual"`
	Items         []SaleItemRequest `json:"items" binding:"required,min=1"`
}

// UpdateSaleRequest replaces the editable parts of a sale.
type UpdateSaleRequest struct {
	CustomerName  string            `json:"customerName"`
	CustomerPhone *string           `json:"customerPhone"`
	DoctorName    *string           `json:"doctorName"`
	PaymentMode   string            `json:"paymentMode"`
	SaleDate      *time.Time        `json:"saleDate"`
	Items         []SaleItemRequest `json:"items" binding:"required,min=1"`
}

// SaleItemResponse is one frozen line.
type SaleItemResponse struct {
	LineNo     int         `json:"lineNo"`
	MedicineID *string     `json:"medicineId,omitempty"`
	Name       string      `json:"name"`
	Batch      string      `json:"batch,omitempty"`
	Expiry     *time.Time  `json:"expiry,omitempty"`
	HSN        *string     `json:"hsn,omitempty"`
	GSTPercent types.Money `json:"gstPercent"`
	PackSize   int64       `json:"packSize"`
	Unit       string      `json:"unit"`
	Quantity   int64       `json:"quantity"`
	Price      types.Money `json:"price"`
	MRP        types.Money `json:"mrp"`
	Discount   float64     `json:"discount"`
	Total      types.Money `json:"total"`
}

// SaleResponse is the document view.
type SaleResponse struct {
	ID                string             `json:"id"`
	InvoiceNo         string             `json:"invoiceNo"`
	CustomerName      string             `json:"customerName"`
	CustomerPhone     *string            `json:"customerPhone,omitempty"`
	DoctorName        *string            `json:"doctorName,omitempty"`
	OriginalInvoiceNo *string            `json:"originalInvoiceNo,omitempty"`
	PaymentMode       string             `json:"paymentMode"`
	TotalAmount       types.Money        `json:"totalAmount"`
	SaleDate          time.Time          `json:"saleDate"`
	CreatedBy         string             `json:"createdBy,omitempty"`
	Version           int                `json:"version"`
	CreatedAt         time.Time          `json:"createdAt"`
	Items             []SaleItemResponse `json:"items,omitempty"`
}

// FromSale builds the document view.
func FromSale(s *sale.Sale) SaleResponse {
	resp := SaleResponse{
		ID:                s.ID.String(),
		InvoiceNo:         s.InvoiceNo,
		CustomerName:      s.CustomerName,
		CustomerPhone:     s.CustomerPhone,
		DoctorName:        s.DoctorName,
		OriginalInvoiceNo: s.OriginalInvoiceNo,
		PaymentMode:       string(s.PaymentMode),
		TotalAmount:       s.TotalAmount,
		SaleDate:          s.SaleDate,
		CreatedBy:         s.CreatedBy,
		Version:           s.Version,
		CreatedAt:         s.CreatedAt,
	}
	for _, item := range s.Items {
		line := SaleItemResponse{
			LineNo:     item.LineNo,
			Name:       item.Name,
			Batch:      item.Batch,
			Expiry:     item.Expiry,
			HSN:        item.HSN,
			GSTPercent: item.GSTPercent,
			PackSize:   item.PackSize,
			Unit:       string(item.Unit),
			Quantity:   item.Quantity,
			Price:      item.Price,
			MRP:        item.MRP,
			Discount:   item.Discount,
			Total:      item.Total,
		}
		if item.MedicineID != nil {
			medID := item.MedicineID.String()
			line.MedicineID = &medID
		}
		resp.Items = append(resp.Items, line)
	}
	return resp
}

// FromSales maps a header list.
func FromSales(items []*sale.Sale) []SaleResponse {
	out := make([]SaleResponse, 0, len(items))
	for _, s := range items {
		out = append(out, FromSale(s))
	}
	return out
}
