package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"pharmapos/internal/core/apperror"
	"pharmapos/internal/core/id"
	"pharmapos/internal/domain/documents/sale"
)

// Compile-time check that SaleRepo implements sale.Repository.
var _ sale.Repository = (*SaleRepo)(nil)

const (
	saleTable     = "sales"
	saleItemTable = "sale_items"
)

// SaleRepo persists sale documents: a header row in sales and the frozen
// line snapshots in sale_items.
type SaleRepo struct {
	txManager  *TxManager
	headerCols []string
	itemCols   []string
}

// NewSaleRepo creates a new sale repository.
func NewSaleRepo(txManager *TxManager) *SaleRepo {
	return &SaleRepo{
		txManager:  txManager,
		headerCols: ExtractDBColumns[sale.Sale](),
		itemCols:   ExtractDBColumns[sale.Item](),
	}
}

func (r *SaleRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create inserts the header row.
func (r *SaleRepo) Create(ctx context.Context, s *sale.Sale) error {
	q := r.builder().
		Insert(saleTable).
		SetMap(StructToMap(s))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

// Update overwrites the header with optimistic locking on version.
func (r *SaleRepo) Update(ctx context.Context, s *sale.Sale) error {
	data := StructToMap(s)
	delete(data, "id")
	delete(data, "version")
	delete(data, "created_at")
	data["updated_at"] = time.Now().UTC()

	q := r.builder().
		Update(saleTable).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": s.ID}).
		Where(squirrel.Eq{"version": s.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update sale: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(saleTable, s.ID.String())
	}
	return nil
}

// SaveItems replaces the full item table part of a sale.
func (r *SaleRepo) SaveItems(ctx context.Context, saleID id.ID, items []sale.Item) error {
	querier := r.txManager.GetQuerier(ctx)

	if _, err := querier.Exec(ctx, `DELETE FROM sale_items WHERE sale_id = $1`, saleID); err != nil {
		return fmt.Errorf("clear items: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	q := r.builder().
		Insert(saleItemTable).
		Columns(append([]string{"sale_id"}, r.itemCols...)...)
	for _, item := range items {
		data := StructToMap(item)
		row := make([]any, 0, len(r.itemCols)+1)
		row = append(row, saleID)
		for _, col := range r.itemCols {
			row = append(row, data[col])
		}
		q = q.Values(row...)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build items insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert items: %w", err)
	}
	return nil
}

// GetByID returns the header without items.
func (r *SaleRepo) GetByID(ctx context.Context, saleID id.ID) (*sale.Sale, error) {
	q := r.builder().
		Select(r.headerCols...).
		From(saleTable).
		Where(squirrel.Eq{"id": saleID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s sale.Sale
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("sale", saleID.String())
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	return &s, nil
}

// GetItems returns the line items of a sale ordered by line number.
func (r *SaleRepo) GetItems(ctx context.Context, saleID id.ID) ([]sale.Item, error) {
	q := r.builder().
		Select(r.itemCols...).
		From(saleItemTable).
		Where(squirrel.Eq{"sale_id": saleID}).
		OrderBy("line_no ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []sale.Item
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	return items, nil
}

// GetByInvoiceNo returns the header for an invoice number.
func (r *SaleRepo) GetByInvoiceNo(ctx context.Context, invoiceNo string) (*sale.Sale, error) {
	q := r.builder().
		Select(r.headerCols...).
		From(saleTable).
		Where(squirrel.Eq{"invoice_no": invoiceNo}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s sale.Sale
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("sale", invoiceNo)
		}
		return nil, fmt.Errorf("get sale by invoice: %w", err)
	}
	return &s, nil
}

// Delete removes the sale and its items.
func (r *SaleRepo) Delete(ctx context.Context, saleID id.ID) error {
	querier := r.txManager.GetQuerier(ctx)

	if _, err := querier.Exec(ctx, `DELETE FROM sale_items WHERE sale_id = $1`, saleID); err != nil {
		return fmt.Errorf("delete items: %w", err)
	}

	result, err := querier.Exec(ctx, `DELETE FROM sales WHERE id = $1`, saleID)
	if err != nil {
		return fmt.Errorf("delete sale: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("sale", saleID.String())
	}
	return nil
}

// List returns headers matching the filter, newest first.
func (r *SaleRepo) List(ctx context.Context, filter sale.Filter) ([]*sale.Sale, error) {
	q := r.builder().
		Select(r.headerCols...).
		From(saleTable)

	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"sale_date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"sale_date": *filter.DateTo})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"invoice_no": pattern},
			squirrel.ILike{"customer_name": pattern},
		})
	}

	q = q.OrderBy("sale_date DESC", "created_at DESC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*sale.Sale
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return items, nil
}
