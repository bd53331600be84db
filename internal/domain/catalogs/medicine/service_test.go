package medicine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmapos/internal/core/apperror"
	"pharmapos/internal/core/appctx"
	"pharmapos/internal/core/id"
	"pharmapos/internal/core/types"
)

type memRepo struct {
	medicines map[id.ID]*Medicine
}

func newMemRepo() *memRepo {
	return &memRepo{medicines: make(map[id.ID]*Medicine)}
}

func (r *memRepo) Create(ctx context.Context, m *Medicine) error {
	copied := *m
	r.medicines[m.ID] = &copied
	return nil
}

func (r *memRepo) Update(ctx context.Context, m *Medicine) error {
	existing, ok := r.medicines[m.ID]
	if !ok {
		return apperror.NewNotFound("medicine", m.ID.String())
	}
	if existing.Version != m.Version {
		return apperror.NewConcurrentModification("medicine", m.ID.String())
	}
	copied := *m
	copied.Version++
	r.medicines[m.ID] = &copied
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, medicineID id.ID) (*Medicine, error) {
	m, ok := r.medicines[medicineID]
	if !ok {
		return nil, apperror.NewNotFound("medicine", medicineID.String())
	}
	copied := *m
	return &copied, nil
}

func (r *memRepo) List(ctx context.Context) ([]*Medicine, error) {
	out := make([]*Medicine, 0, len(r.medicines))
	for _, m := range r.medicines {
		copied := *m
		out = append(out, &copied)
	}
	return out, nil
}

func (r *memRepo) Search(ctx context.Context, query string, limit int) ([]*Medicine, error) {
	var out []*Medicine
	for _, m := range r.medicines {
		if strings.Contains(strings.ToLower(m.Name), strings.ToLower(query)) ||
			strings.Contains(strings.ToLower(m.Batch), strings.ToLower(query)) {
			copied := *m
			out = append(out, &copied)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memRepo) Expiring(ctx context.Context, cutoff time.Time) ([]*Medicine, error) {
	var out []*Medicine
	for _, m := range r.medicines {
		if m.Expiry != nil && !m.Expiry.After(cutoff) {
			copied := *m
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memRepo) Delete(ctx context.Context, medicineID id.ID) error {
	if _, ok := r.medicines[medicineID]; !ok {
		return apperror.NewNotFound("medicine", medicineID.String())
	}
	delete(r.medicines, medicineID)
	return nil
}

func adminCtx() context.Context {
	return appctx.WithActor(context.Background(), &appctx.Actor{Role: appctx.RoleAdmin})
}

func staffCtx() context.Context {
	return appctx.WithActor(context.Background(), &appctx.Actor{Role: appctx.RoleStaff})
}

func TestCreateFoldsLooseOverflow(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)

	m := NewMedicine("Paracetamol 500", "B-101")
	m.PackSize = 10
	m.Quantity = 2
	m.LooseQty = 23

	require.NoError(t, svc.Create(adminCtx(), m))

	stored, err := repo.GetByID(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stored.Quantity)
	assert.Equal(t, int64(3), stored.LooseQty)
	assert.Equal(t, int64(43), stored.TotalTablets())
	assert.Equal(t, 1, stored.Version)
}

func TestCreateRejectsBlankName(t *testing.T) {
	svc := NewService(newMemRepo(), nil)

	m := NewMedicine("", "B-101")
	err := svc.Create(adminCtx(), m)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestCreateRejectsNegativePrice(t *testing.T) {
	svc := NewService(newMemRepo(), nil)

	m := NewMedicine("Paracetamol 500", "B-101")
	m.SellingPrice = types.MustMoney("-1")
	err := svc.Create(adminCtx(), m)
	require.Error(t, err)
}

func TestUpdatePartialPatchKeepsOtherFields(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)

	m := NewMedicine("Paracetamol 500", "B-101")
	m.SellingPrice = types.MustMoney("20.00")
	m.MRP = types.MustMoney("25.00")
	m.Quantity = 5
	require.NoError(t, svc.Create(adminCtx(), m))

	price := types.MustMoney("22.50")
	updated, err := svc.Update(adminCtx(), m.ID, Patch{
		SellingPrice: &price,
		Version:      1,
	})
	require.NoError(t, err)

	assert.True(t, updated.SellingPrice.Equal(types.MustMoney("22.50")))
	assert.True(t, updated.MRP.Equal(types.MustMoney("25.00")))
	assert.Equal(t, "Paracetamol 500", updated.Name)
	assert.Equal(t, int64(5), updated.Quantity)
}

func TestUpdateRenormalizesStock(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)

	m := NewMedicine("Paracetamol 500", "B-101")
	m.PackSize = 10
	require.NoError(t, svc.Create(adminCtx(), m))

	loose := int64(27)
	updated, err := svc.Update(adminCtx(), m.ID, Patch{LooseQty: &loose, Version: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Quantity)
	assert.Equal(t, int64(7), updated.LooseQty)
}

func TestUpdateStaleVersionConflicts(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)

	m := NewMedicine("Paracetamol 500", "B-101")
	require.NoError(t, svc.Create(adminCtx(), m))

	name := "Paracetamol 650"
	_, err := svc.Update(adminCtx(), m.ID, Patch{Name: &name, Version: 1})
	require.NoError(t, err)

	// A second editor still holding version 1 loses.
	_, err = svc.Update(adminCtx(), m.ID, Patch{Name: &name, Version: 1})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConcurrentModification, appErr.Code)
}

func TestUpdateUnknownMedicine(t *testing.T) {
	svc := NewService(newMemRepo(), nil)

	name := "Whatever"
	_, err := svc.Update(adminCtx(), id.New(), Patch{Name: &name})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestDeleteRequiresAdmin(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)

	m := NewMedicine("Paracetamol 500", "B-101")
	require.NoError(t, svc.Create(adminCtx(), m))

	err := svc.Delete(staffCtx(), m.ID)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeForbidden, appErr.Code)

	require.NoError(t, svc.Delete(adminCtx(), m.ID))
	_, err = repo.GetByID(context.Background(), m.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestSearchEmptyQueryReturnsNothing(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)

	m := NewMedicine("Paracetamol 500", "B-101")
	require.NoError(t, svc.Create(adminCtx(), m))

	items, err := svc.Search(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestExpiringDefaultsTo90Days(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)

	soon := time.Now().AddDate(0, 0, 30)
	far := time.Now().AddDate(0, 0, 200)

	a := NewMedicine("Amoxicillin", "B-201")
	a.Expiry = &soon
	require.NoError(t, svc.Create(adminCtx(), a))

	b := NewMedicine("Cetirizine", "B-202")
	b.Expiry = &far
	require.NoError(t, svc.Create(adminCtx(), b))

	items, err := svc.Expiring(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Amoxicillin", items[0].Name)
}
