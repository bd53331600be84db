package dose

import (
	"context"
	"fmt"
	"strings"
	"time"

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

// Service runs the dose workflow. Resolution deducts stock and writes the
// companion sale in one transaction: a shortage on any requested medicine
// rolls back every deduction of the batch and keeps the pending record.
type Service struct {
	pending Repository
	sales   sale.Repository
	ledger  *stock.Service
	txm     tx.Manager
	audit   audit.Recorder
}

// NewService creates a new dose workflow service.
func NewService(
	pending Repository,
	sales sale.Repository,
	ledger *stock.Service,
	txm tx.Manager,
	recorder audit.Recorder,
) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Service{
		pending: pending,
		sales:   sales,
		ledger:  ledger,
		txm:     txm,
		audit:   recorder,
	}
}

// RecordPendingCash stores collected cash with no stock effect.
func (s *Service) RecordPendingCash(ctx context.Context, amount types.Money, reason string) (*PendingDose, error) {
	p := &PendingDose{
		ID:        id.New(),
		Amount:    amount,
		Reason:    strings.TrimSpace(reason),
		CreatedAt: time.Now().UTC(),
	}
	if err := p.Validate(ctx); err != nil {
		return nil, err
	}

	if err := s.pending.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create pending dose: %w", err)
	}

	logger.Info(ctx, "pending dose recorded", "id", p.ID, "amount", p.Amount)
	return p, nil
}

// ListPending returns unresolved doses, newest first.
func (s *Service) ListPending(ctx context.Context) ([]*PendingDose, error) {
	return s.pending.ListUnresolved(ctx)
}

// ResolveItem assigns tablets of one medicine to a dose.
type ResolveItem struct {
	MedicineID  id.ID
	TabletCount int64
}

// Resolve itemizes a pending dose: deducts each requested medicine in the
// tablet domain, writes the companion sale whose total is the cash already
// collected, and deletes the pending record.
func (s *Service) Resolve(ctx context.Context, pendingID id.ID, items []ResolveItem) (*sale.Sale, error) {
	if len(items) == 0 {
		return nil, apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}

	var doc *sale.Sale
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.pending.GetByID(ctx, pendingID)
		if err != nil {
			return err
		}

		doc, err = s.writeDoseSale(ctx, items, p.Amount, p.Reason)
		if err != nil {
			return err
		}

		return s.pending.Delete(ctx, pendingID)
	})
	if err != nil {
		return nil, err
	}

	if err := s.audit.Record(ctx, audit.Entry{
		Action:     audit.ActionResolve,
		EntityType: "pending_dose",
		EntityID:   pendingID,
		Message:    fmt.Sprintf("pending dose resolved into %s", doc.InvoiceNo),
	}); err != nil {
		logger.Warn(ctx, "audit write failed", "error", err)
	}

	logger.Info(ctx, "pending dose resolved",
		"pending_id", pendingID,
		"invoice_no", doc.InvoiceNo,
		"total", doc.TotalAmount,
	)
	return doc, nil
}

// DispenseDirect records a dose where medicines and cash are known at once,
// with no pending phase. The reason doubles as the customer label when no
// name is given.
func (s *Service) DispenseDirect(ctx context.Context, items []ResolveItem, amountCollected types.Money, customerName, reason string) (*sale.Sale, error) {
	if len(items) == 0 {
		return nil, apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}
	if amountCollected.IsNegative() {
		return nil, apperror.NewValidation("collected amount cannot be negative").
			WithDetail("field", "amountCollected")
	}

	customer := strings.TrimSpace(customerName)
	if customer == "" {
		customer = reason
	}

	var doc *sale.Sale
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.writeDoseSale(ctx, items, amountCollected, customer)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "dose dispensed",
		"invoice_no", doc.InvoiceNo,
		"total", doc.TotalAmount,
	)
	return doc, nil
}

// writeDoseSale deducts every requested medicine and persists the companion
// sale. Lines are zero-priced loose tablets; the document total carries the
// collected cash instead of a per-line sum. Must run inside a transaction.
func (s *Service) writeDoseSale(ctx context.Context, items []ResolveItem, amount types.Money, customer string) (*sale.Sale, error) {
	customer = strings.TrimSpace(customer)
	if customer == "" {
		customer = "Dose"
	}

	now := time.Now().UTC()
	doc := &sale.Sale{
		ID:           id.New(),
		InvoiceNo:    doseInvoiceNo(now),
		CustomerName: customer,
		PaymentMode:  sale.PaymentCash,
		TotalAmount:  amount,
		SaleDate:     now,
		CreatedBy:    appctx.GetRole(ctx),
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	for i, item := range items {
		balance, err := s.ledger.CheckAndDeduct(ctx, item.MedicineID, item.TabletCount)
		if err != nil {
			return nil, err
		}

		medID := item.MedicineID
		doc.Items = append(doc.Items, sale.Item{
			LineID:     id.New(),
			LineNo:     i + 1,
			MedicineID: &medID,
			Name:       balance.Name,
			GSTPercent: types.ZeroMoney(),
			PackSize:   balance.PackSize,
			Unit:       types.UnitLoose,
			Quantity:   item.TabletCount,
			Price:      types.ZeroMoney(),
			MRP:        types.ZeroMoney(),
			Total:      types.ZeroMoney(),
		})
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}

	if err := s.sales.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create dose sale: %w", err)
	}
	if err := s.sales.SaveItems(ctx, doc.ID, doc.Items); err != nil {
		return nil, fmt.Errorf("save items: %w", err)
	}

	return doc, nil
}

// doseInvoiceNo builds the DOSE- identity from the last six digits of the
// epoch millisecond clock.
func doseInvoiceNo(t time.Time) string {
	return fmt.Sprintf("%s%06d", sale.PrefixDose, t.UnixMilli()%1_000_000)
}
