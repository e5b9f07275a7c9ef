package ticket

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketera/store"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func scenarioOrder() *store.Order {
	return &store.Order{
		ID:          "o-1",
		TableNumber: "5",
		CreatedAt:   time.Date(2026, 10, 14, 12, 30, 0, 0, time.UTC),
		Items: []*store.OrderItem{
			{Name: "Pasta", Qty: 2, Price: dec("16.00")},
			{Name: "Soda", Qty: 1, Price: dec("3.50")},
		},
	}
}

func TestBuildScenario(t *testing.T) {
	opts := DefaultOptions()
	opts.Currency = ""
	opts.Location = time.UTC

	tk := Build("Demo", scenarioOrder(), opts)
	assert.Equal(t, "o-1", tk.OrderID)
	assert.Equal(t, "35.50", tk.Total.StringFixed(2))
	assert.Equal(t, "14/10/2026 12:30", tk.Printed)

	lines := strings.Split(tk.Text, "\n")
	assert.Contains(t, lines, "Mesa: 5")
	assert.Contains(t, lines, "Fecha: 14/10/2026 12:30")
	assert.Contains(t, lines, "2x Pasta - 32.00")
	assert.Contains(t, lines, "1x Soda - 3.50")
	assert.Equal(t, "TOTAL: 35.50", lines[len(lines)-2])
}

func TestBuildWithCurrency(t *testing.T) {
	opts := DefaultOptions()
	opts.Location = time.UTC
	tk := Build("Demo", scenarioOrder(), opts)
	assert.Contains(t, tk.Text, "2x Pasta - S/. 32.00")
	assert.Contains(t, tk.Text, "TOTAL: S/. 35.50")
}

func TestBuildTotalMatchesFooter(t *testing.T) {
	items := []Item{
		{Name: "A", Qty: 3, Price: dec("0.333")},
		{Name: "B", Qty: 7, Price: dec("1.10")},
		{Name: "C", Qty: 1, Price: dec("0.005")},
	}
	opts := Options{Location: time.UTC}
	tk := Compose("", "1", time.Now(), items, opts)

	want := decimal.Zero
	for _, it := range items {
		want = want.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Qty))))
	}
	require.Equal(t, want.Round(2).StringFixed(2), tk.Total.StringFixed(2))
	assert.Contains(t, tk.Text, "TOTAL: "+tk.Total.StringFixed(2))
}

func TestBuildTruncatesNames(t *testing.T) {
	items := []Item{{Name: "Lomo Saltado Especial de la Casa", Qty: 1, Price: dec("25")}}
	tk := Compose("Demo", "3", time.Now(), items, Options{NameWidth: 18, Location: time.UTC})
	assert.Contains(t, tk.Text, "1x Lomo Saltado Espec - 25.00")
	assert.Equal(t, "Lomo Saltado Especial de la Casa", tk.Items[0].Name)

	items = []Item{{Name: "Ñoquis con salsa de ají", Qty: 2, Price: dec("10")}}
	tk = Compose("Demo", "3", time.Now(), items, Options{NameWidth: 6, Location: time.UTC})
	assert.Contains(t, tk.Text, "2x Ñoquis - 20.00")
}
