package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pharmapos/internal/domain/catalogs/medicine"
	"pharmapos/internal/domain/documents/sale"
)

func TestExtractDBColumnsMedicine(t *testing.T) {
	cols := ExtractDBColumns[medicine.Medicine]()

	assert.Contains(t, cols, "id")
	assert.Contains(t, cols, "name")
	assert.Contains(t, cols, "quantity")
	assert.Contains(t, cols, "loose_qty")
	assert.Contains(t, cols, "pack_size")
	assert.Contains(t, cols, "max_discount")
}

func TestExtractDBColumnsSkipsUntagged(t *testing.T) {
	cols := ExtractDBColumns[sale.Sale]()

	// Items carries db:"-" and must not become a column.
	assert.NotContains(t, cols, "-")
	assert.NotContains(t, cols, "items")
	assert.Contains(t, cols, "invoice_no")
	assert.Contains(t, cols, "original_invoice_no")
}

func TestStructToMap(t *testing.T) {
	m := medicine.NewMedicine("Paracetamol 500", "B-101")
	m.Quantity = 5
	m.PackSize = 10

	data := StructToMap(m)

	assert.Equal(t, m.ID, data["id"])
	assert.Equal(t, "Paracetamol 500", data["name"])
	assert.Equal(t, int64(5), data["quantity"])
	assert.Equal(t, int64(10), data["pack_size"])
	_, hasItems := data["-"]
	assert.False(t, hasItems)
}

func TestStructToMapNonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
	assert.Nil(t, StructToMap("x"))
}
