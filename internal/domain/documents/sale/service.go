package sale

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
	"pharmapos/internal/domain/catalogs/medicine"
	"pharmapos/internal/domain/policy"
	"pharmapos/internal/domain/registers/stock"
	"pharmapos/pkg/logger"
)

// Sequencer hands out official invoice numbers.
type Sequencer interface {
	Next(ctx context.Context) (string, error)
	Peek(ctx context.Context) (string, error)
}

// Service records sales and keeps the stock ledger consistent with them.
// Every multi-line mutation runs inside one transaction: a shortage on any
// line rolls back the whole document and every deduction made before it.
type Service struct {
	repo      Repository
	medicines medicine.Repository
	ledger    *stock.Service
	sequencer Sequencer
	discounts *policy.DiscountPolicy
	txm       tx.Manager
	audit     audit.Recorder
}

// NewService creates a new sale recorder service.
func NewService(
	repo Repository,
	medicines medicine.Repository,
	ledger *stock.Service,
	sequencer Sequencer,
	discounts *policy.DiscountPolicy,
	txm tx.Manager,
	recorder audit.Recorder,
) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Service{
		repo:      repo,
		medicines: medicines,
		ledger:    ledger,
		sequencer: sequencer,
		discounts: discounts,
		txm:       txm,
		audit:     recorder,
	}
}

// ItemInput is one requested sale line before snapshotting.
type ItemInput struct {
	// MedicineID references stock; nil marks a manual free-text entry.
	MedicineID *id.ID

	// Name is required for manual entries; ignored for stocked items,
	// whose snapshot always comes from the catalog record.
	Name string

	Unit     types.Unit
	Quantity int64

	// Price overrides the medicine selling price when set.
	Price    *types.Money
	Discount float64
}

// CreateInput is a checkout request.
type CreateInput struct {
	CustomerName  string
	CustomerPhone *string
	DoctorName    *string
	PaymentMode   PaymentMode
	SaleDate      *time.Time

	// Manual marks a manually entered (backfilled) sale: MAN- identity,
	// counter untouched.
	Manual bool

	Items []ItemInput
}

// CreateResult identifies the recorded sale.
type CreateResult struct {
	SaleID    id.ID
	InvoiceNo string
}

// Create records a sale, assigns invoice identity and decrements stock for
// every stocked line, all within one transaction.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Sale, error) {
	name := strings.TrimSpace(input.CustomerName)
	noBill := strings.EqualFold(name, NoBillSentinel)
	if name == "" && !noBill {
		return nil, apperror.NewValidation("customer name is required when a bill is requested").
			WithDetail("field", "customerName")
	}
	if noBill {
		name = NoBillSentinel
	}

	saleDate := time.Now().UTC()
	if input.SaleDate != nil {
		saleDate = *input.SaleDate
	}

	doc := &Sale{
		ID:            id.New(),
		CustomerName:  name,
		CustomerPhone: input.CustomerPhone,
		DoctorName:    input.DoctorName,
		PaymentMode:   input.PaymentMode,
		SaleDate:      saleDate,
		CreatedBy:     appctx.GetRole(ctx),
		Version:       1,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		items, err := s.buildItems(ctx, input.Items)
		if err != nil {
			return err
		}
		doc.Items = items
		doc.RecalculateTotal()

		switch {
		case noBill:
			// Unbilled sale: timestamp identity, counter untouched.
			doc.InvoiceNo = fmt.Sprintf("%s%d", PrefixCashSale, time.Now().Unix())
		case input.Manual:
			doc.InvoiceNo = fmt.Sprintf("%s%d", PrefixManual, time.Now().Unix())
		default:
			number, err := s.sequencer.Next(ctx)
			if err != nil {
				return fmt.Errorf("assign invoice number: %w", err)
			}
			doc.InvoiceNo = number
		}

		if err := doc.Validate(ctx); err != nil {
			return err
		}

		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create sale: %w", err)
		}
		if err := s.repo.SaveItems(ctx, doc.ID, doc.Items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}

		return s.deductItems(ctx, doc.Items)
	})
	if err != nil {
		return nil, err
	}

	if err := s.audit.Record(ctx, audit.Entry{
		Action:     audit.ActionCreate,
		EntityType: "sale",
		EntityID:   doc.ID,
		Message:    fmt.Sprintf("sale %s recorded", doc.InvoiceNo),
		Details:    map[string]any{"total": doc.TotalAmount, "items": len(doc.Items)},
	}); err != nil {
		logger.Warn(ctx, "audit write failed", "error", err)
	}

	logger.Info(ctx, "sale created",
		"id", doc.ID,
		"invoice_no", doc.InvoiceNo,
		"total", doc.TotalAmount,
	)
	return doc, nil
}

// UpdateInput replaces the editable parts of a sale.
type UpdateInput struct {
	CustomerName  string
	CustomerPhone *string
	DoctorName    *string
	PaymentMode   PaymentMode
	SaleDate      *time.Time
	Items         []ItemInput
}

// Update overwrites customer, date, payment and the full item array. The
// item quantities are reconciled with the ledger: for each medicine, the
// tablet delta between the stored lines and the replacement lines is applied
// as a deduction or restock in the same transaction, so edits can never
// desynchronize recorded stock from recorded sales.
func (s *Service) Update(ctx context.Context, saleID id.ID, input UpdateInput) (*Sale, error) {
	var doc *Sale

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetByID(ctx, saleID)
		if err != nil {
			return err
		}
		oldItems, err := s.repo.GetItems(ctx, saleID)
		if err != nil {
			return err
		}

		newItems, err := s.buildItems(ctx, input.Items)
		if err != nil {
			return err
		}

		if name := strings.TrimSpace(input.CustomerName); name != "" {
			existing.CustomerName = name
		}
		existing.CustomerPhone = input.CustomerPhone
		existing.DoctorName = input.DoctorName
		if input.PaymentMode != "" {
			existing.PaymentMode = input.PaymentMode
		}
		if input.SaleDate != nil {
			existing.SaleDate = *input.SaleDate
		}
		existing.Items = newItems
		existing.RecalculateTotal()
		existing.UpdatedAt = time.Now().UTC()

		if err := existing.Validate(ctx); err != nil {
			return err
		}

		if err := s.applyStockSwing(ctx, oldItems, newItems); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, existing); err != nil {
			return err
		}
		if err := s.repo.SaveItems(ctx, saleID, newItems); err != nil {
			return fmt.Errorf("save items: %w", err)
		}

		doc = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.audit.Record(ctx, audit.Entry{
		Action:     audit.ActionUpdate,
		EntityType: "sale",
		EntityID:   saleID,
		Message:    fmt.Sprintf("sale %s edited", doc.InvoiceNo),
	}); err != nil {
		logger.Warn(ctx, "audit write failed", "error", err)
	}

	return doc, nil
}

// Delete cancels a sale entirely, restoring the tablet equivalent of every
// stocked line. Admin only.
func (s *Service) Delete(ctx context.Context, saleID id.ID) error {
	if !appctx.IsAdmin(ctx) {
		return apperror.NewForbidden("only admin can cancel sales")
	}

	var invoiceNo string
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetByID(ctx, saleID)
		if err != nil {
			return err
		}
		items, err := s.repo.GetItems(ctx, saleID)
		if err != nil {
			return err
		}
		invoiceNo = existing.InvoiceNo

		for _, item := range items {
			if item.MedicineID == nil {
				continue
			}
			if _, err := s.ledger.Restock(ctx, *item.MedicineID, item.TabletEquivalent()); err != nil {
				return err
			}
		}

		return s.repo.Delete(ctx, saleID)
	})
	if err != nil {
		return err
	}

	if err := s.audit.Record(ctx, audit.Entry{
		Action:     audit.ActionDelete,
		EntityType: "sale",
		EntityID:   saleID,
		Message:    fmt.Sprintf("sale %s cancelled, stock restored", invoiceNo),
	}); err != nil {
		logger.Warn(ctx, "audit write failed", "error", err)
	}

	logger.Info(ctx, "sale cancelled", "id", saleID, "invoice_no", invoiceNo)
	return nil
}

// Get returns a sale with its items.
func (s *Service) Get(ctx context.Context, saleID id.ID) (*Sale, error) {
	doc, err := s.repo.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.GetItems(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	doc.Items = items
	return doc, nil
}

// PeekNextInvoice previews the next official invoice number for display.
func (s *Service) PeekNextInvoice(ctx context.Context) (string, error) {
	return s.sequencer.Peek(ctx)
}

// buildItems turns requested lines into frozen snapshots. Stocked lines are
// snapshotted from the catalog record, not from client-supplied fields, and
// their discount is checked against the medicine's threshold.
func (s *Service) buildItems(ctx context.Context, inputs []ItemInput) ([]Item, error) {
	role := appctx.GetRole(ctx)
	items := make([]Item, 0, len(inputs))

	for i, in := range inputs {
		unit := in.Unit
		if unit == "" {
			unit = types.UnitStrip
		}

		item := Item{
			LineID:   id.New(),
			LineNo:   i + 1,
			Unit:     unit,
			Quantity: in.Quantity,
			Discount: in.Discount,
			PackSize: 1,
		}

		if in.MedicineID != nil {
			m, err := s.medicines.GetByID(ctx, *in.MedicineID)
			if err != nil {
				return nil, err
			}
			if s.discounts != nil {
				if err := s.discounts.Check(m.Name, in.Discount, m.MaxDiscount, role); err != nil {
					return nil, err
				}
			}

			medID := m.ID
			item.MedicineID = &medID
			item.Name = m.Name
			item.Batch = m.Batch
			item.Expiry = m.Expiry
			item.HSN = m.HSN
			item.GSTPercent = m.GSTPercent
			item.PackSize = m.PackSize
			item.MRP = m.MRP
			item.Price = m.SellingPrice
			if in.Price != nil {
				item.Price = *in.Price
			}
		} else {
			if strings.TrimSpace(in.Name) == "" {
				return nil, apperror.NewValidation("manual item name is required").
					WithDetail("lineNo", i+1)
			}
			if in.Price == nil {
				return nil, apperror.NewValidation("manual item price is required").
					WithDetail("lineNo", i+1)
			}
			item.Name = in.Name
			item.Price = *in.Price
			item.MRP = *in.Price
			item.GSTPercent = types.ZeroMoney()
		}

		item.Total = LineTotal(item.Price, item.Quantity, item.Discount)
		items = append(items, item)
	}

	return items, nil
}

// deductItems applies ledger deductions for every stocked line.
func (s *Service) deductItems(ctx context.Context, items []Item) error {
	for _, item := range items {
		if item.MedicineID == nil {
			continue
		}
		if _, err := s.ledger.CheckAndDeduct(ctx, *item.MedicineID, item.TabletEquivalent()); err != nil {
			return err
		}
	}
	return nil
}

// applyStockSwing reconciles the ledger with an edited item array by
// applying the per-medicine tablet delta between old and new lines.
func (s *Service) applyStockSwing(ctx context.Context, oldItems, newItems []Item) error {
	deltas := make(map[id.ID]int64)
	for _, item := range oldItems {
		if item.MedicineID != nil {
			deltas[*item.MedicineID] -= item.TabletEquivalent()
		}
	}
	for _, item := range newItems {
		if item.MedicineID != nil {
			deltas[*item.MedicineID] += item.TabletEquivalent()
		}
	}

	for medicineID, delta := range deltas {
		switch {
		case delta > 0:
			if _, err := s.ledger.CheckAndDeduct(ctx, medicineID, delta); err != nil {
				return err
			}
		case delta < 0:
			if _, err := s.ledger.Restock(ctx, medicineID, -delta); err != nil {
				return err
			}
		}
	}
	return nil
}
