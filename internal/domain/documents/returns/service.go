// Package returns processes partial or full returns against completed
// sales. A return restores stock and records the monetary adjustment as a
// separate RET- sale; the original document is never modified.
package returns

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pharmapos/internal/core/apperror"
	"pharmapos/internal/core/appctx"
	"pharmapos/internal/core/id"
	"pharmapos/internal/core/tx"
	"pharmapos/internal/core/types"
	"pharmapos/internal/domain/audit"
	"pharmapos/internal/domain/documents/sale"
	"pharmapos/internal/domain/registers/stock"
	"pharmapos/pkg/logger"
)

// Service processes returns. Each return runs in one transaction: restocks
// and the RET- record land together or not at all.
type Service struct {
	sales  sale.Repository
	ledger *stock.Service
	txm    tx.Manager
	audit  audit.Recorder
}

// NewService creates a new return processor.
func NewService(sales sale.Repository, ledger *stock.Service, txm tx.Manager, recorder audit.Recorder) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Service{sales: sales, ledger: ledger, txm: txm, audit: recorder}
}

// Item is one returned line. Matching against the original sale uses
// MedicineID when present, otherwise the line name; price, unit and pack
// size always come from the original snapshot, never from the request.
type Item struct {
	MedicineID *id.ID
	Name       string
	Quantity   int64
}

// Process returns items against a recorded sale. Every returned quantity is
// capped by the originally sold quantity of its matching line; stocked lines
// flow their tablet equivalent back to the ledger.
func (s *Service) Process(ctx context.Context, saleID id.ID, items []Item) (*sale.Sale, error) {
	if len(items) == 0 {
		return nil, apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}

	var doc *sale.Sale
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		original, err := s.sales.GetByID(ctx, saleID)
		if err != nil {
			return err
		}
		soldItems, err := s.sales.GetItems(ctx, saleID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		originalNo := original.InvoiceNo
		doc = &sale.Sale{
			ID:                id.New(),
			InvoiceNo:         fmt.Sprintf("%s%d", sale.PrefixReturn, now.Unix()),
			CustomerName:      original.CustomerName,
			CustomerPhone:     original.CustomerPhone,
			OriginalInvoiceNo: &originalNo,
			PaymentMode:       original.PaymentMode,
			SaleDate:          now,
			CreatedBy:         appctx.GetRole(ctx),
			Version:           1,
			CreatedAt:         now,
			UpdatedAt:         now,
		}

		total := decimal.Zero
		for i, ret := range items {
			if ret.Quantity <= 0 {
				return apperror.NewValidation("return quantity must be positive").
					WithDetail("lineNo", i+1)
			}

			sold, ok := matchLine(soldItems, ret)
			if !ok {
				return apperror.NewValidation("returned item was not part of the sale").
					WithDetail("lineNo", i+1).
					WithDetail("name", ret.Name)
			}
			if ret.Quantity > sold.Quantity {
				return apperror.NewValidation("return quantity exceeds sold quantity").
					WithDetail("name", sold.Name).
					WithDetail("sold", sold.Quantity).
					WithDetail("returned", ret.Quantity)
			}

			if sold.MedicineID != nil {
				tablets := types.TabletEquivalent(ret.Quantity, sold.Unit, sold.PackSize)
				if _, err := s.ledger.Restock(ctx, *sold.MedicineID, tablets); err != nil {
					return err
				}
			}

			lineTotal := sale.LineTotal(sold.Price, ret.Quantity, sold.Discount)
			doc.Items = append(doc.Items, sale.Item{
				LineID:     id.New(),
				LineNo:     i + 1,
				MedicineID: sold.MedicineID,
				Name:       sold.Name,
				Batch:      sold.Batch,
				Expiry:     sold.Expiry,
				HSN:        sold.HSN,
				GSTPercent: sold.GSTPercent,
				PackSize:   sold.PackSize,
				Unit:       sold.Unit,
				Quantity:   ret.Quantity,
				Price:      sold.Price,
				MRP:        sold.MRP,
				Discount:   sold.Discount,
				Total:      lineTotal,
			})
			total = total.Add(lineTotal)
		}
		doc.TotalAmount = total

		if err := doc.Validate(ctx); err != nil {
			return err
		}

		if err := s.sales.Create(ctx, doc); err != nil {
			return fmt.Errorf("create return: %w", err)
		}
		if err := s.sales.SaveItems(ctx, doc.ID, doc.Items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.audit.Record(ctx, audit.Entry{
		Action:     audit.ActionReturn,
		EntityType: "sale",
		EntityID:   saleID,
		Message:    fmt.Sprintf("return %s against %s", doc.InvoiceNo, *doc.OriginalInvoiceNo),
		Details:    map[string]any{"total_return": doc.TotalAmount},
	}); err != nil {
		logger.Warn(ctx, "audit write failed", "error", err)
	}

	logger.Info(ctx, "return processed",
		"invoice_no", doc.InvoiceNo,
		"original_invoice_no", *doc.OriginalInvoiceNo,
		"total_return", doc.TotalAmount,
	)
	return doc, nil
}

// matchLine finds the sold line a returned item refers to.
func matchLine(soldItems []sale.Item, ret Item) (sale.Item, bool) {
	for _, sold := range soldItems {
		if ret.MedicineID != nil {
			if sold.MedicineID != nil && *sold.MedicineID == *ret.MedicineID {
				return sold, true
			}
			continue
		}
		if strings.EqualFold(sold.Name, ret.Name) {
			return sold, true
		}
	}
	return sale.Item{}, false
}
