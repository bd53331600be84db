package returns

import (
	"context"
	"strings"
	"testing"
	"time"

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

type memTx struct {
	stock *memStockRepo
	sales *memSaleRepo
}

func (t memTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	stockSnap := make(map[id.ID]stock.Balance, len(t.stock.balances))
	for k, v := range t.stock.balances {
		stockSnap[k] = v
	}
	salesSnap := make(map[id.ID]*sale.Sale, len(t.sales.sales))
	for k, v := range t.sales.sales {
		cp := *v
		salesSnap[k] = &cp
	}
	if err := fn(ctx); err != nil {
		t.stock.balances = stockSnap
		t.sales.sales = salesSnap
		return err
	}
	return nil
}

// --- fixture ---

type fixture struct {
	svc       *Service
	sales     *memSaleRepo
	stockRepo *memStockRepo

	original *sale.Sale
	medA     id.ID // Paracetamol, strip line, sold 10
	medB     id.ID // Cetirizine, loose line, sold 6
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	medA := id.New()
	medB := id.New()
	stockRepo := &memStockRepo{balances: map[id.ID]stock.Balance{
		medA: {MedicineID: medA, Name: "Paracetamol 500", Quantity: 2, LooseQty: 0, PackSize: 10},
		medB: {MedicineID: medB, Name: "Cetirizine", Quantity: 1, LooseQty: 4, PackSize: 10},
	}}
	sales := &memSaleRepo{
		sales: make(map[id.ID]*sale.Sale),
		items: make(map[id.ID][]sale.Item),
	}

	now := time.Now().UTC()
	original := &sale.Sale{
		ID:           id.New(),
		InvoiceNo:    "RP-105",
		CustomerName: "Asha Rao",
		PaymentMode:  sale.PaymentCash,
		TotalAmount:  types.MustMoney("218.00"),
		SaleDate:     now,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	items := []sale.Item{
		{
			LineID: id.New(), LineNo: 1, MedicineID: &medA,
			Name: "Paracetamol 500", PackSize: 10, Unit: types.UnitStrip,
			Quantity: 10, Price: types.MustMoney("20.00"), MRP: types.MustMoney("25.00"),
			GSTPercent: types.ZeroMoney(), Total: types.MustMoney("200.00"),
		},
		{
			LineID: id.New(), LineNo: 2, MedicineID: &medB,
			Name: "Cetirizine", PackSize: 10, Unit: types.UnitLoose,
			Quantity: 6, Price: types.MustMoney("3.00"), MRP: types.MustMoney("3.00"),
			GSTPercent: types.ZeroMoney(), Total: types.MustMoney("18.00"),
		},
	}
	sales.sales[original.ID] = original
	sales.items[original.ID] = items

	svc := NewService(
		sales,
		stock.NewService(stockRepo),
		memTx{stock: stockRepo, sales: sales},
		audit.Nop{},
	)

	return &fixture{
		svc:       svc,
		sales:     sales,
		stockRepo: stockRepo,
		original:  original,
		medA:      medA,
		medB:      medB,
	}
}

// --- tests ---

func TestProcessPartialAndFullReturn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Return 4 of the 10 sold strips and the full loose line.
	doc, err := f.svc.Process(ctx, f.original.ID, []Item{
		{MedicineID: &f.medA, Quantity: 4},
		{MedicineID: &f.medB, Quantity: 6},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(doc.InvoiceNo, sale.PrefixReturn))
	require.NotNil(t, doc.OriginalInvoiceNo)
	assert.Equal(t, "RP-105", *doc.OriginalInvoiceNo)

	// 4*20.00 + 6*3.00 = 98.00.
	assert.True(t, doc.TotalAmount.Equal(types.MustMoney("98.00")),
		"total = %s", doc.TotalAmount)

	// 4 strips back: 20 + 40 = 60 tablets. 6 loose back: 14 + 6 = 20.
	assert.Equal(t, int64(60), f.stockRepo.balances[f.medA].Tablets())
	assert.Equal(t, int64(20), f.stockRepo.balances[f.medB].Tablets())

	// Original sale untouched.
	orig, err := f.sales.GetByID(ctx, f.original.ID)
	require.NoError(t, err)
	assert.True(t, orig.TotalAmount.Equal(types.MustMoney("218.00")))
	assert.Equal(t, "RP-105", orig.InvoiceNo)
}

func TestProcessRejectsQuantityAboveSold(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Process(context.Background(), f.original.ID, []Item{
		{MedicineID: &f.medA, Quantity: 11},
	})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Equal(t, int64(10), appErr.Details["sold"])
	assert.Equal(t, int64(11), appErr.Details["returned"])

	// Nothing restocked, nothing recorded.
	assert.Equal(t, int64(20), f.stockRepo.balances[f.medA].Tablets())
	assert.Len(t, f.sales.sales, 1)
}

func TestProcessRollsBackEarlierRestocksOnFailure(t *testing.T) {
	f := newFixture(t)

	// First line is fine, second overshoots; the first restock must be undone.
	_, err := f.svc.Process(context.Background(), f.original.ID, []Item{
		{MedicineID: &f.medA, Quantity: 2},
		{MedicineID: &f.medB, Quantity: 7},
	})
	require.Error(t, err)

	assert.Equal(t, int64(20), f.stockRepo.balances[f.medA].Tablets())
	assert.Equal(t, int64(14), f.stockRepo.balances[f.medB].Tablets())
}

func TestProcessMatchesManualLinesByName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Add a free-text line with no medicine reference.
	items := f.sales.items[f.original.ID]
	items = append(items, sale.Item{
		LineID: id.New(), LineNo: 3,
		Name: "Thermometer", PackSize: 1, Unit: types.UnitLoose,
		Quantity: 1, Price: types.MustMoney("120.00"), MRP: types.MustMoney("120.00"),
		GSTPercent: types.ZeroMoney(), Total: types.MustMoney("120.00"),
	})
	f.sales.items[f.original.ID] = items

	doc, err := f.svc.Process(ctx, f.original.ID, []Item{
		{Name: "thermometer", Quantity: 1},
	})
	require.NoError(t, err)

	assert.True(t, doc.TotalAmount.Equal(types.MustMoney("120.00")))
	// Free-text lines never touch the ledger.
	assert.Equal(t, int64(20), f.stockRepo.balances[f.medA].Tablets())
}

func TestProcessUnknownItemRejected(t *testing.T) {
	f := newFixture(t)

	unknown := id.New()
	_, err := f.svc.Process(context.Background(), f.original.ID, []Item{
		{MedicineID: &unknown, Quantity: 1},
	})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestProcessUnknownSaleNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Process(context.Background(), id.New(), []Item{
		{MedicineID: &f.medA, Quantity: 1},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}
