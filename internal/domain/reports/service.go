// Package reports builds read-only projections over recorded sales.
package reports

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"pharmapos/internal/core/types"
	"pharmapos/internal/domain/documents/sale"
)

// Totals aggregates a sale listing by payment mode. Return records count
// as deductions against their mode and the grand total, never as revenue.
type Totals struct {
	Cash    types.Money `json:"cash"`
	Online  types.Money `json:"online"`
	Grand   types.Money `json:"grand"`
	Returns types.Money `json:"returns"`
}

// Summary is a filtered sale listing with its aggregate totals.
type Summary struct {
	Sales  []*sale.Sale `json:"sales"`
	Totals Totals       `json:"totals"`
}

// Service aggregates sales for reporting. It only reads; projections never
// mutate documents.
type Service struct {
	sales sale.Repository
}

// NewService creates a new report aggregator.
func NewService(sales sale.Repository) *Service {
	return &Service{sales: sales}
}

// SalesSummary lists sales matching the filter and computes totals.
func (s *Service) SalesSummary(ctx context.Context, filter sale.Filter) (*Summary, error) {
	listed, err := s.sales.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}

	totals := Totals{
		Cash:    decimal.Zero,
		Online:  decimal.Zero,
		Grand:   decimal.Zero,
		Returns: decimal.Zero,
	}
	for _, doc := range listed {
		amount := doc.TotalAmount
		if doc.IsReturn() {
			totals.Returns = totals.Returns.Add(amount)
			amount = amount.Neg()
		}
		switch doc.PaymentMode {
		case sale.PaymentOnline:
			totals.Online = totals.Online.Add(amount)
		default:
			totals.Cash = totals.Cash.Add(amount)
		}
		totals.Grand = totals.Grand.Add(amount)
	}

	return &Summary{Sales: listed, Totals: totals}, nil
}
