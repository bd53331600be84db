package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"pharmapos/internal/core/apperror"
	"pharmapos/internal/core/id"
	"pharmapos/internal/domain/catalogs/medicine"
)

// Compile-time check that MedicineRepo implements medicine.Repository.
var _ medicine.Repository = (*MedicineRepo)(nil)

const medicineTable = "medicines"

// MedicineRepo is the PostgreSQL medicine catalog.
type MedicineRepo struct {
	txManager  *TxManager
	selectCols []string
}

// NewMedicineRepo creates a new medicine repository.
func NewMedicineRepo(txManager *TxManager) *MedicineRepo {
	return &MedicineRepo{
		txManager:  txManager,
		selectCols: ExtractDBColumns[medicine.Medicine](),
	}
}

func (r *MedicineRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *MedicineRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder().Select(r.selectCols...).From(medicineTable)
}

// Create inserts a new medicine using its "db" tags.
func (r *MedicineRepo) Create(ctx context.Context, m *medicine.Medicine) error {
	q := r.builder().
		Insert(medicineTable).
		SetMap(StructToMap(m))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewConflict("medicine with this name and batch already exists").
				WithDetail("name", m.Name).
				WithDetail("batch", m.Batch).
				WithCause(err)
		}
		return fmt.Errorf("insert medicine: %w", err)
	}
	return nil
}

// Update persists all mutable fields with optimistic locking on version.
func (r *MedicineRepo) Update(ctx context.Context, m *medicine.Medicine) error {
	data := StructToMap(m)
	delete(data, "id")
	delete(data, "version")
	delete(data, "created_at")
	data["updated_at"] = time.Now().UTC()

	q := r.builder().
		Update(medicineTable).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": m.ID}).
		Where(squirrel.Eq{"version": m.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update medicine: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(medicineTable, m.ID.String())
	}
	return nil
}

// GetByID retrieves a medicine by ID.
func (r *MedicineRepo) GetByID(ctx context.Context, medicineID id.ID) (*medicine.Medicine, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": medicineID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var m medicine.Medicine
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &m, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("medicine", medicineID.String())
		}
		return nil, fmt.Errorf("get medicine: %w", err)
	}
	return &m, nil
}

// List returns all medicines sorted by name.
func (r *MedicineRepo) List(ctx context.Context) ([]*medicine.Medicine, error) {
	q := r.baseSelect().OrderBy("name ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*medicine.Medicine
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list medicines: %w", err)
	}
	return items, nil
}

// Search matches a case-insensitive substring on name or batch, sorted
// oldest expiry first so near-expiry batches are dispensed before fresher
// ones, capped at limit.
func (r *MedicineRepo) Search(ctx context.Context, query string, limit int) ([]*medicine.Medicine, error) {
	pattern := "%" + query + "%"
	q := r.baseSelect().
		Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"batch": pattern},
		}).
		OrderBy("expiry ASC NULLS LAST").
		Limit(uint64(limit))

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*medicine.Medicine
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("search medicines: %w", err)
	}
	return items, nil
}

// Expiring returns medicines whose expiry falls on or before the cutoff.
func (r *MedicineRepo) Expiring(ctx context.Context, cutoff time.Time) ([]*medicine.Medicine, error) {
	q := r.baseSelect().
		Where(squirrel.NotEq{"expiry": nil}).
		Where(squirrel.LtOrEq{"expiry": cutoff}).
		OrderBy("expiry ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*medicine.Medicine
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list expiring medicines: %w", err)
	}
	return items, nil
}

// Delete removes the medicine row. Sale items keep their denormalized
// snapshots, so history survives the delete.
func (r *MedicineRepo) Delete(ctx context.Context, medicineID id.ID) error {
	q := r.builder().
		Delete(medicineTable).
		Where(squirrel.Eq{"id": medicineID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete medicine: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("medicine", medicineID.String())
	}
	return nil
}
