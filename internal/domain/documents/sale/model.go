// Package sale provides the sale document and its recorder service.
package sale

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pharmapos/internal/core/apperror"
	"pharmapos/internal/core/id"
	"pharmapos/internal/core/types"
)

// Invoice prefixes classify sale identity.
const (
	PrefixOfficial = "RP-"   // billed sale, draws from the official sequence
	PrefixCashSale = "CS-"   // unbilled cash sale, timestamp identity
	PrefixDose     = "DOSE-" // dose dispensing
	PrefixManual   = "MAN-"  // manually entered sale
	PrefixReturn   = "RET-"  // return against an earlier sale
)

// NoBillSentinel is the customer name the terminal sends when the buyer
// declines a bill; such sales never advance the official counter.
const NoBillSentinel = "NO BILL"

// PaymentMode is how the customer paid.
type PaymentMode string

const (
	PaymentCash   PaymentMode = "Cash"
	PaymentOnline PaymentMode = "Online"
)

// Sale is one recorded transaction. Line items are frozen snapshots of the
// medicine at sale time; reports never mutate a sale.
type Sale struct {
	ID id.ID `db:"id" json:"id"`

	InvoiceNo string `db:"invoice_no" json:"invoiceNo"`

	// Customer snapshot, denormalized rather than referenced.
	CustomerName  string  `db:"customer_name" json:"customerName"`
	CustomerPhone *string `db:"customer_phone" json:"customerPhone,omitempty"`
	DoctorName    *string `db:"doctor_name" json:"doctorName,omitempty"`

	// OriginalInvoiceNo links RET- records back to the source sale.
	OriginalInvoiceNo *string `db:"original_invoice_no" json:"originalInvoiceNo,omitempty"`

	PaymentMode PaymentMode `db:"payment_mode" json:"paymentMode"`
	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`

	SaleDate  time.Time `db:"sale_date" json:"saleDate"`
	CreatedBy string    `db:"created_by" json:"createdBy"`

	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`

	// Table part: frozen line items.
	Items []Item `db:"-" json:"items"`
}

// Item is a frozen snapshot of a medicine (or free-text entry) at sale time.
type Item struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	// MedicineID is nil for manual free-text entries, which never touch stock.
	MedicineID *id.ID `db:"medicine_id" json:"medicineId,omitempty"`

	Name       string      `db:"name" json:"name"`
	Batch      string      `db:"batch" json:"batch"`
	Expiry     *time.Time  `db:"expiry" json:"expiry,omitempty"`
	HSN        *string     `db:"hsn" json:"hsn,omitempty"`
	GSTPercent types.Money `db:"gst_percent" json:"gstPercent"`
	PackSize   int64       `db:"pack_size" json:"packSize"`
	Unit       types.Unit  `db:"unit" json:"unit"`

	Quantity int64       `db:"quantity" json:"quantity"`
	Price    types.Money `db:"price" json:"price"`
	MRP      types.Money `db:"mrp" json:"mrp"`
	Discount float64     `db:"discount" json:"discount"`
	Total    types.Money `db:"total" json:"total"`
}

// TabletEquivalent returns how many tablets this line moves in the ledger.
func (i Item) TabletEquivalent() int64 {
	return types.TabletEquivalent(i.Quantity, i.Unit, i.PackSize)
}

// LineTotal computes price * quantity reduced by the percentage discount.
func LineTotal(price types.Money, quantity int64, discount float64) types.Money {
	gross := price.Mul(decimal.NewFromInt(quantity))
	if discount <= 0 {
		return gross
	}
	factor := decimal.NewFromInt(100).Sub(decimal.NewFromFloat(discount)).Div(decimal.NewFromInt(100))
	return gross.Mul(factor).Round(2)
}

// HasPrefix reports whether the invoice number carries the given class.
func (s *Sale) HasPrefix(prefix string) bool {
	return strings.HasPrefix(s.InvoiceNo, prefix)
}

// IsOfficial reports whether this sale drew an official invoice number.
func (s *Sale) IsOfficial() bool { return s.HasPrefix(PrefixOfficial) }

// IsReturn reports whether this record is a return transaction.
func (s *Sale) IsReturn() bool { return s.HasPrefix(PrefixReturn) }

// IsDose reports whether this record came from dose dispensing.
func (s *Sale) IsDose() bool { return s.HasPrefix(PrefixDose) }

// RecalculateTotal sums line totals into TotalAmount.
// Dose sales skip this: their total is the cash figure actually collected,
// decoupled from the zero-priced lines.
func (s *Sale) RecalculateTotal() {
	total := decimal.Zero
	for _, item := range s.Items {
		total = total.Add(item.Total)
	}
	s.TotalAmount = total
}

// Validate checks document invariants.
func (s *Sale) Validate(ctx context.Context) error {
	if s.InvoiceNo == "" {
		return apperror.NewValidation("invoice number is required").
			WithDetail("field", "invoiceNo")
	}

	if s.CustomerName == "" {
		return apperror.NewValidation("customer name is required").
			WithDetail("field", "customerName")
	}

	if s.PaymentMode != PaymentCash && s.PaymentMode != PaymentOnline {
		return apperror.NewValidation("payment mode must be Cash or Online").
			WithDetail("field", "paymentMode").
			WithDetail("value", string(s.PaymentMode))
	}

	if len(s.Items) == 0 {
		return apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}

	for i, item := range s.Items {
		if item.Name == "" {
			return apperror.NewValidation("item name is required").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.Quantity <= 0 {
			return apperror.NewValidation("item quantity must be positive").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.Price.IsNegative() {
			return apperror.NewValidation("item price cannot be negative").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
		if item.Unit != types.UnitStrip && item.Unit != types.UnitLoose {
			return apperror.NewValidation("item unit must be strip or loose").
				WithDetail("field", "items").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}
