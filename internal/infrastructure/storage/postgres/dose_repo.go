package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"pharmapos/internal/core/apperror"
	"pharmapos/internal/core/id"
	"pharmapos/internal/domain/documents/dose"
)

// Compile-time check that DoseRepo implements dose.Repository.
var _ dose.Repository = (*DoseRepo)(nil)

const pendingDoseTable = "pending_doses"

// DoseRepo persists pending doses.
type DoseRepo struct {
	txManager  *TxManager
	selectCols []string
}

// NewDoseRepo creates a new pending dose repository.
func NewDoseRepo(txManager *TxManager) *DoseRepo {
	return &DoseRepo{
		txManager:  txManager,
		selectCols: ExtractDBColumns[dose.PendingDose](),
	}
}

func (r *DoseRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create inserts a pending dose.
func (r *DoseRepo) Create(ctx context.Context, p *dose.PendingDose) error {
	q := r.builder().
		Insert(pendingDoseTable).
		SetMap(StructToMap(p))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert pending dose: %w", err)
	}
	return nil
}

// GetByID retrieves a pending dose by ID.
func (r *DoseRepo) GetByID(ctx context.Context, pendingID id.ID) (*dose.PendingDose, error) {
	q := r.builder().
		Select(r.selectCols...).
		From(pendingDoseTable).
		Where(squirrel.Eq{"id": pendingID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p dose.PendingDose
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("pending dose", pendingID.String())
		}
		return nil, fmt.Errorf("get pending dose: %w", err)
	}
	return &p, nil
}

// ListUnresolved returns unresolved records, newest first.
func (r *DoseRepo) ListUnresolved(ctx context.Context) ([]*dose.PendingDose, error) {
	q := r.builder().
		Select(r.selectCols...).
		From(pendingDoseTable).
		Where(squirrel.Eq{"resolved": false}).
		OrderBy("created_at DESC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*dose.PendingDose
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list pending doses: %w", err)
	}
	return items, nil
}

// Delete removes a pending dose after resolution.
func (r *DoseRepo) Delete(ctx context.Context, pendingID id.ID) error {
	result, err := r.txManager.GetQuerier(ctx).Exec(ctx,
		`DELETE FROM pending_doses WHERE id = $1`, pendingID)
	if err != nil {
		return fmt.Errorf("delete pending dose: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("pending dose", pendingID.String())
	}
	return nil
}
