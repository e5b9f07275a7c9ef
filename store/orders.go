package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StatusPending       = "PENDING"
	StatusInPreparation = "IN_PREPARATION"
	StatusServed        = "SERVED"
	StatusCanceled      = "CANCELED"
)

// ValidStatus reports whether s is one of the order lifecycle states.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInPreparation, StatusServed, StatusCanceled:
		return true
	}
	return false
}

type Order struct {
	ID           string       `json:"id"`
	RestaurantID string       `json:"restaurantId"`
	TableNumber  string       `json:"tableNumber"`
	Status       string       `json:"status"`
	CreatedAt    time.Time    `json:"createdAt"`
	Items        []*OrderItem `json:"items"`
}

type OrderItem struct {
	ID         string          `json:"id"`
	MenuItemID string          `json:"menuItemId"`
	Name       string          `json:"name"`
	Qty        int             `json:"qty"`
	Price      decimal.Decimal `json:"price"`
}

// Subtotal is qty × unit price.
func (i *OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Qty)))
}

// Total sums the line subtotals, rounded to cents.
func (o *Order) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(it.Subtotal())
	}
	return sum.Round(2)
}

// NewOrderLine is one requested line; Price is the unit price captured now.
// A nil Price takes the menu item's current price. An explicit zero is kept.
type NewOrderLine struct {
	MenuItemID string
	Qty        int
	Price      *decimal.Decimal
}

// CreateOrder writes the order and all of its lines atomically. Every menu
// item must belong to restaurantID.
func (db *DB) CreateOrder(ctx context.Context, restaurantID, tableNumber string, lines []NewOrderLine) (*Order, error) {
	order := &Order{
		ID:           uuid.NewString(),
		RestaurantID: restaurantID,
		TableNumber:  tableNumber,
		Status:       StatusPending,
		CreatedAt:    time.Now().UTC(),
	}
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, db.Q(`INSERT INTO orders (id, restaurant_id, table_number, status, created_at) VALUES (?, ?, ?, ?, ?)`),
			order.ID, order.RestaurantID, order.TableNumber, order.Status, order.CreatedAt); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		for pos, l := range lines {
			var name string
			var menuPrice decimal.Decimal
			err := tx.QueryRowContext(ctx, db.Q(`SELECT name, price FROM menu_items WHERE id=? AND restaurant_id=?`), l.MenuItemID, restaurantID).Scan(&name, &menuPrice)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: %s", ErrUnknownMenuItem, l.MenuItemID)
			}
			if err != nil {
				return err
			}
			item := &OrderItem{
				ID:         uuid.NewString(),
				MenuItemID: l.MenuItemID,
				Name:       name,
				Qty:        l.Qty,
				Price:      menuPrice,
			}
			if l.Price != nil {
				item.Price = *l.Price
			}
			if _, err := tx.ExecContext(ctx, db.Q(`INSERT INTO order_items (id, order_id, menu_item_id, qty, price, position) VALUES (?, ?, ?, ?, ?, ?)`),
				item.ID, order.ID, item.MenuItemID, item.Qty, item.Price, pos); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
			order.Items = append(order.Items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (db *DB) GetOrder(ctx context.Context, restaurantID, id string) (*Order, error) {
	var o Order
	err := db.QueryRowContext(ctx, db.Q(`SELECT id, restaurant_id, table_number, status, created_at FROM orders WHERE id=? AND restaurant_id=?`), id, restaurantID).
		Scan(&o.ID, &o.RestaurantID, &o.TableNumber, &o.Status, &o.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	if err := db.loadItems(ctx, []*Order{&o}); err != nil {
		return nil, err
	}
	return &o, nil
}

// ListActiveOrders returns PENDING and IN_PREPARATION orders, oldest first.
func (db *DB) ListActiveOrders(ctx context.Context, restaurantID string) ([]*Order, error) {
	return db.listOrders(ctx, `WHERE restaurant_id=? AND status IN (?, ?) ORDER BY created_at`,
		restaurantID, StatusPending, StatusInPreparation)
}

// ListOrdersSince returns non-canceled orders created at or after since.
func (db *DB) ListOrdersSince(ctx context.Context, restaurantID string, since time.Time) ([]*Order, error) {
	return db.listOrders(ctx, `WHERE restaurant_id=? AND created_at >= ? AND status <> ? ORDER BY created_at`,
		restaurantID, since.UTC(), StatusCanceled)
}

// ListOrders returns the newest orders first, optionally filtered by status.
func (db *DB) ListOrders(ctx context.Context, restaurantID, status string, limit int) ([]*Order, error) {
	if status != "" {
		return db.listOrders(ctx, `WHERE restaurant_id=? AND status=? ORDER BY created_at DESC LIMIT ?`, restaurantID, status, limit)
	}
	return db.listOrders(ctx, `WHERE restaurant_id=? ORDER BY created_at DESC LIMIT ?`, restaurantID, limit)
}

func (db *DB) CountActiveOrders(ctx context.Context, restaurantID string) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, db.Q(`SELECT COUNT(*) FROM orders WHERE restaurant_id=? AND status IN (?, ?)`),
		restaurantID, StatusPending, StatusInPreparation).Scan(&n)
	return n, err
}

func (db *DB) UpdateOrderStatus(ctx context.Context, restaurantID, id, status string) error {
	if !ValidStatus(status) {
		return ErrInvalidStatus
	}
	res, err := db.ExecContext(ctx, db.Q(`UPDATE orders SET status=? WHERE id=? AND restaurant_id=?`), status, id, restaurantID)
	if err != nil {
		return err
	}
	return affected(res)
}

func (db *DB) listOrders(ctx context.Context, where string, args ...any) ([]*Order, error) {
	rows, err := db.QueryContext(ctx, db.Q(`SELECT id, restaurant_id, table_number, status, created_at FROM orders `+where), args...)
	if err != nil {
		return nil, err
	}
	var orders []*Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.RestaurantID, &o.TableNumber, &o.Status, &o.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		orders = append(orders, &o)
	}
	// Close before loading items: sqlite runs on a single connection.
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := db.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (db *DB) loadItems(ctx context.Context, orders []*Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[string]*Order, len(orders))
	args := make([]any, 0, len(orders))
	for _, o := range orders {
		o.Items = []*OrderItem{}
		byID[o.ID] = o
		args = append(args, o.ID)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(orders)), ", ")
	rows, err := db.QueryContext(ctx, db.Q(`SELECT oi.order_id, oi.id, oi.menu_item_id, m.name, oi.qty, oi.price
		FROM order_items oi JOIN menu_items m ON m.id = oi.menu_item_id
		WHERE oi.order_id IN (`+placeholders+`)
		ORDER BY oi.order_id, oi.position`), args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var orderID string
		var it OrderItem
		if err := rows.Scan(&orderID, &it.ID, &it.MenuItemID, &it.Name, &it.Qty, &it.Price); err != nil {
			return err
		}
		if o := byID[orderID]; o != nil {
			o.Items = append(o.Items, &it)
		}
	}
	return rows.Err()
}
