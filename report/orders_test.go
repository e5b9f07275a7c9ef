package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"ticketera/store"
)

func TestWriteOrders(t *testing.T) {
	orders := []*store.Order{{
		ID:          "o-1",
		TableNumber: "5",
		Status:      store.StatusPending,
		CreatedAt:   time.Date(2026, 10, 14, 12, 30, 0, 0, time.UTC),
		Items: []*store.OrderItem{
			{Name: "Pasta", Qty: 2, Price: decimal.RequireFromString("16.00")},
			{Name: "Soda", Qty: 1, Price: decimal.RequireFromString("3.50")},
		},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteOrders(&buf, orders, time.UTC))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Pedidos", "Detalle"}, f.GetSheetList())

	rows, err := f.GetRows("Pedidos")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Mesa", rows[0][1])
	assert.Equal(t, []string{"o-1", "5", "PENDING", "2026-10-14 12:30", "2", "35.5"}, rows[1])

	items, err := f.GetRows("Detalle")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Pasta", items[1][2])
	assert.Equal(t, "32", items[1][5])
}

func TestWriteOrdersEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOrders(&buf, nil, nil))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Pedidos")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
