package ticket

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ticketera/store"
)

// Item is one receipt line.
type Item struct {
	Name  string          `json:"name"`
	Qty   int             `json:"qty"`
	Price decimal.Decimal `json:"price"`
}

// Subtotal is qty × unit price.
func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Qty)))
}

// Ticket is the rendered receipt for one order. It is derived fresh from the
// order every time and never persisted.
type Ticket struct {
	OrderID    string          `json:"orderId,omitempty"`
	Restaurant string          `json:"restaurant"`
	Table      string          `json:"table"`
	CreatedAt  time.Time       `json:"createdAt"`
	Printed    string          `json:"printedTime"`
	Items      []Item          `json:"items"`
	Total      decimal.Decimal `json:"total"`
	Text       string          `json:"text"`
}

// Options controls how order lines are composed before formatting.
type Options struct {
	Currency   string
	NameWidth  int
	TimeLayout string
	Location   *time.Location
}

// DefaultOptions matches the config defaults.
func DefaultOptions() Options {
	return Options{
		Currency:   "S/.",
		NameWidth:  18,
		TimeLayout: "02/01/2006 15:04",
		Location:   time.Local,
	}
}

// Build derives a ticket from a persisted order.
func Build(restaurant string, order *store.Order, opts Options) *Ticket {
	items := make([]Item, len(order.Items))
	for i, it := range order.Items {
		items[i] = Item{Name: it.Name, Qty: it.Qty, Price: it.Price}
	}
	return Compose(restaurant, order.TableNumber, order.CreatedAt, items, opts).withOrder(order.ID)
}

// Compose builds a ticket from loose parts; the printer test page uses it
// directly with a fixed sample.
func Compose(restaurant, table string, at time.Time, items []Item, opts Options) *Ticket {
	if opts.NameWidth <= 0 {
		opts.NameWidth = DefaultOptions().NameWidth
	}
	if opts.TimeLayout == "" {
		opts.TimeLayout = DefaultOptions().TimeLayout
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	total := decimal.Zero
	body := make([]string, len(items))
	for i, it := range items {
		total = total.Add(it.Subtotal())
		body[i] = fmt.Sprintf("%dx %s - %s", it.Qty, truncate(it.Name, opts.NameWidth), money(opts.Currency, it.Subtotal()))
	}
	total = total.Round(2)

	printed := at.In(opts.Location).Format(opts.TimeLayout)
	headers := []string{
		"Mesa: " + table,
		"Fecha: " + printed,
	}
	footers := []string{"TOTAL: " + money(opts.Currency, total)}

	return &Ticket{
		Restaurant: restaurant,
		Table:      table,
		CreatedAt:  at,
		Printed:    printed,
		Items:      items,
		Total:      total,
		Text:       Format(restaurant, headers, body, footers),
	}
}

func (t *Ticket) withOrder(id string) *Ticket {
	t.OrderID = id
	return t
}

func money(currency string, d decimal.Decimal) string {
	if currency == "" {
		return d.StringFixed(2)
	}
	return currency + " " + d.StringFixed(2)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
