package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pharmapos/internal/core/apperror"
	"pharmapos/internal/core/id"
	"pharmapos/internal/domain/registers/stock"
)

// Compile-time check that StockRepo implements stock.Repository.
var _ stock.Repository = (*StockRepo)(nil)

// StockRepo mutates the strip/loose stock pair on the medicines table.
// All arithmetic happens in SQL over the old column values, so the
// availability check and the decrement form one atomic statement; two
// concurrent sales of the last tablets cannot both pass the check.
type StockRepo struct {
	txManager *TxManager
}

// NewStockRepo creates a new stock repository.
func NewStockRepo(txManager *TxManager) *StockRepo {
	return &StockRepo{txManager: txManager}
}

// DeductTablets decrements the tablet balance if it covers the request.
// The WHERE clause is the availability check: zero rows affected with an
// existing medicine means insufficient stock, reported as ok=false.
func (r *StockRepo) DeductTablets(ctx context.Context, medicineID id.ID, tablets int64) (stock.Balance, bool, error) {
	var b stock.Balance
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, `
		UPDATE medicines
		SET quantity   = (quantity * pack_size + loose_qty - $2) / pack_size,
		    loose_qty  = (quantity * pack_size + loose_qty - $2) % pack_size,
		    updated_at = now()
		WHERE id = $1
		  AND quantity * pack_size + loose_qty >= $2
		RETURNING id, name, quantity, loose_qty, pack_size
	`, medicineID, tablets).Scan(&b.MedicineID, &b.Name, &b.Quantity, &b.LooseQty, &b.PackSize)
	if err == nil {
		return b, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return stock.Balance{}, false, fmt.Errorf("deduct tablets: %w", err)
	}

	// Refused write: tell a missing medicine apart from a shortage.
	if _, err := r.GetBalance(ctx, medicineID); err != nil {
		return stock.Balance{}, false, err
	}
	return stock.Balance{}, false, nil
}

// AddTablets increments the tablet balance and re-normalizes the split.
func (r *StockRepo) AddTablets(ctx context.Context, medicineID id.ID, tablets int64) (stock.Balance, error) {
	var b stock.Balance
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, `
		UPDATE medicines
		SET quantity   = (quantity * pack_size + loose_qty + $2) / pack_size,
		    loose_qty  = (quantity * pack_size + loose_qty + $2) % pack_size,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, name, quantity, loose_qty, pack_size
	`, medicineID, tablets).Scan(&b.MedicineID, &b.Name, &b.Quantity, &b.LooseQty, &b.PackSize)
	if errors.Is(err, pgx.ErrNoRows) {
		return stock.Balance{}, apperror.NewNotFound("medicine", medicineID.String())
	}
	if err != nil {
		return stock.Balance{}, fmt.Errorf("add tablets: %w", err)
	}
	return b, nil
}

// GetBalance reads the current stock state.
func (r *StockRepo) GetBalance(ctx context.Context, medicineID id.ID) (stock.Balance, error) {
	var b stock.Balance
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, `
		SELECT id, name, quantity, loose_qty, pack_size
		FROM medicines
		WHERE id = $1
	`, medicineID).Scan(&b.MedicineID, &b.Name, &b.Quantity, &b.LooseQty, &b.PackSize)
	if errors.Is(err, pgx.ErrNoRows) {
		return stock.Balance{}, apperror.NewNotFound("medicine", medicineID.String())
	}
	if err != nil {
		return stock.Balance{}, fmt.Errorf("get balance: %w", err)
	}
	return b, nil
}
