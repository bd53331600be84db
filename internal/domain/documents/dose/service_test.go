package dose

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmapos/internal/core/apperror"
	"pharmapos/internal/core/id"
	"pharmapos/internal/core/types"
	"pharmapos/internal/domain/audit"
	"pharmapos/internal/domain/documents/sale"
	"pharmapos/internal/domain/registers/stock"
)

// --- fakes ---

type memPendingRepo struct {
	byID map[id.ID]*PendingDose
}

func (r *memPendingRepo) Create(_ context.Context, p *PendingDose) error {
	cp := *p
	r.byID[p.ID] = &cp
	return nil
}

func (r *memPendingRepo) GetByID(_ context.Context, pendingID id.ID) (*PendingDose, error) {
	p, ok := r.byID[pendingID]
	if !ok {
		return nil, apperror.NewNotFound("pending dose", pendingID)
	}
	cp := *p
	return &cp, nil
}

func (r *memPendingRepo) ListUnresolved(_ context.Context) ([]*PendingDose, error) {
	out := make([]*PendingDose, 0, len(r.byID))
	for _, p := range r.byID {
		if !p.Resolved {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memPendingRepo) Delete(_ context.Context, pendingID id.ID) error {
	delete(r.byID, pendingID)
	return nil
}

type memSaleRepo struct {
	sales map[id.ID]*sale.Sale
	items map[id.ID][]sale.Item
}

func (r *memSaleRepo) Create(_ context.Context, s *sale.Sale) error {
	cp := *s
	r.sales[s.ID] = &cp
	return nil
}
func (r *memSaleRepo) Update(_ context.Context, s *sale.Sale) error {
	cp := *s
	r.sales[s.ID] = &cp
	return nil
}
func (r *memSaleRepo) SaveItems(_ context.Context, saleID id.ID, items []sale.Item) error {
	r.items[saleID] = append([]sale.Item(nil), items...)
	return nil
}
func (r *memSaleRepo) GetByID(_ context.Context, saleID id.ID) (*sale.Sale, error) {
	s, ok := r.sales[saleID]
	if !ok {
		return nil, apperror.NewNotFound("sale", saleID)
	}
	cp := *s
	return &cp, nil
}
func (r *memSaleRepo) GetItems(_ context.Context, saleID id.ID) ([]sale.Item, error) {
	return append([]sale.Item(nil), r.items[saleID]...), nil
}
func (r *memSaleRepo) GetByInvoiceNo(_ context.Context, invoiceNo string) (*sale.Sale, error) {
	for _, s := range r.sales {
		if s.InvoiceNo == invoiceNo {
			cp := *s
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("sale", invoiceNo)
}
func (r *memSaleRepo) Delete(_ context.Context, saleID id.ID) error {
	delete(r.sales, saleID)
	delete(r.items, saleID)
	return nil
}
func (r *memSaleRepo) List(_ context.Context, _ sale.Filter) ([]*sale.Sale, error) {
	out := make([]*sale.Sale, 0, len(r.sales))
	for _, s := range r.sales {
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

type memStockRepo struct {
	balances map[id.ID]stock.Balance
}

func (r *memStockRepo) DeductTablets(_ context.Context, medicineID id.ID, tablets int64) (stock.Balance, bool, error) {
	b, ok := r.balances[medicineID]
	if !ok {
		return stock.Balance{}, false, apperror.NewNotFound("medicine", medicineID)
	}
	if b.Tablets() < tablets {
		return stock.Balance{}, false, nil
	}
	b.Quantity, b.LooseQty = types.FromTablets(b.Tablets()-tablets, b.PackSize)
	r.balances[medicineID] = b
	return b, true, nil
}

func (r *memStockRepo) AddTablets(_ context.Context, medicineID id.ID, tablets int64) (stock.Balance, error) {
	b, ok := r.balances[medicineID]
	if !ok {
		return stock.Balance{}, apperror.NewNotFound("medicine", medicineID)
	}
	b.Quantity, b.LooseQty = types.FromTablets(b.Tablets()+tablets, b.PackSize)
	r.balances[medicineID] = b
	return b, nil
}

func (r *memStockRepo) GetBalance(_ context.Context, medicineID id.ID) (stock.Balance, error) {
	b, ok := r.balances[medicineID]
	if !ok {
		return stock.Balance{}, apperror.NewNotFound("medicine", medicineID)
	}
	return b, nil
}

// memTx restores stock and pending state when the body fails, mirroring
// the rollback a real transaction provides.
type memTx struct {
	stock   *memStockRepo
	pending *memPendingRepo
}

func (t memTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	stockSnap := make(map[id.ID]stock.Balance, len(t.stock.balances))
	for k, v := range t.stock.balances {
		stockSnap[k] = v
	}
	pendingSnap := make(map[id.ID]*PendingDose, len(t.pending.byID))
	for k, v := range t.pending.byID {
		cp := *v
		pendingSnap[k] = &cp
	}
	if err := fn(ctx); err != nil {
		t.stock.balances = stockSnap
		t.pending.byID = pendingSnap
		return err
	}
	return nil
}

// --- fixture ---

type fixture struct {
	svc       *Service
	pending   *memPendingRepo
	sales     *memSaleRepo
	stockRepo *memStockRepo
	medID     id.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	medID := id.New()
	stockRepo := &memStockRepo{balances: map[id.ID]stock.Balance{
		medID: {
			MedicineID: medID,
			Name:       "Paracetamol 500",
			Quantity:   5,
			LooseQty:   0,
			PackSize:   10,
		},
	}}
	pending := &memPendingRepo{byID: make(map[id.ID]*PendingDose)}
	sales := &memSaleRepo{
		sales: make(map[id.ID]*sale.Sale),
		items: make(map[id.ID][]sale.Item),
	}

	svc := NewService(
		pending,
		sales,
		stock.NewService(stockRepo),
		memTx{stock: stockRepo, pending: pending},
		audit.Nop{},
	)

	return &fixture{svc: svc, pending: pending, sales: sales, stockRepo: stockRepo, medID: medID}
}

// --- tests ---

func TestRecordPendingCashHasNoStockEffect(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.RecordPendingCash(ctx, types.MustMoney("30.00"), "fever tablets")
	require.NoError(t, err)
	assert.False(t, p.Resolved)

	listed, err := f.svc.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, p.ID, listed[0].ID)

	assert.Equal(t, int64(50), f.stockRepo.balances[f.medID].Tablets())
}

func TestRecordPendingCashRejectsNegativeAmount(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.RecordPendingCash(context.Background(), types.MustMoney("-1"), "")
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestResolveDeductsTabletsAndCreatesSale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.RecordPendingCash(ctx, types.MustMoney("30.00"), "fever tablets")
	require.NoError(t, err)

	doc, err := f.svc.Resolve(ctx, p.ID, []ResolveItem{
		{MedicineID: f.medID, TabletCount: 12},
	})
	require.NoError(t, err)

	// 50 tablets - 12 = 38 = 3 strips + 8 loose.
	b := f.stockRepo.balances[f.medID]
	assert.Equal(t, int64(3), b.Quantity)
	assert.Equal(t, int64(8), b.LooseQty)

	assert.True(t, strings.HasPrefix(doc.InvoiceNo, sale.PrefixDose))
	assert.True(t, doc.TotalAmount.Equal(types.MustMoney("30.00")),
		"total carries the collected cash, got %s", doc.TotalAmount)

	require.Len(t, doc.Items, 1)
	assert.Equal(t, "Paracetamol 500", doc.Items[0].Name)
	assert.Equal(t, types.UnitLoose, doc.Items[0].Unit)
	assert.True(t, doc.Items[0].Price.IsZero())
	assert.True(t, doc.Items[0].Total.IsZero())

	listed, err := f.svc.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, listed, "resolved dose must leave the pending list")
}

func TestResolveInsufficientStockKeepsPendingAndStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.RecordPendingCash(ctx, types.MustMoney("30.00"), "fever tablets")
	require.NoError(t, err)

	_, err = f.svc.Resolve(ctx, p.ID, []ResolveItem{
		{MedicineID: f.medID, TabletCount: 51},
	})
	require.Error(t, err)
	require.True(t, apperror.IsInsufficientStock(err))

	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, int64(51), appErr.Details["requested"])
	assert.Equal(t, int64(50), appErr.Details["available"])

	assert.Equal(t, int64(50), f.stockRepo.balances[f.medID].Tablets())
	listed, err := f.svc.ListPending(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 1, "unresolvable dose stays pending")
	assert.Empty(t, f.sales.sales)
}

func TestResolveUnknownPendingFails(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Resolve(context.Background(), id.New(), []ResolveItem{
		{MedicineID: f.medID, TabletCount: 1},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestResolveRequiresItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.RecordPendingCash(ctx, types.MustMoney("10.00"), "")
	require.NoError(t, err)

	_, err = f.svc.Resolve(ctx, p.ID, nil)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestDispenseDirectSkipsPendingPhase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc, err := f.svc.DispenseDirect(ctx, []ResolveItem{
		{MedicineID: f.medID, TabletCount: 5},
	}, types.MustMoney("12.00"), "walk-in patient", "fever dose")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(doc.InvoiceNo, sale.PrefixDose))
	assert.Equal(t, "walk-in patient", doc.CustomerName)
	assert.True(t, doc.TotalAmount.Equal(types.MustMoney("12.00")))
	assert.Equal(t, int64(45), f.stockRepo.balances[f.medID].Tablets())

	listed, err := f.svc.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, listed)
}
