package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Category struct {
	ID           string `json:"id"`
	RestaurantID string `json:"restaurantId"`
	Name         string `json:"name"`
	ItemCount    int    `json:"itemCount"`
}

type MenuItem struct {
	ID           string          `json:"id"`
	RestaurantID string          `json:"restaurantId"`
	CategoryID   string          `json:"categoryId"`
	CategoryName string          `json:"categoryName,omitempty"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	ImageURL     string          `json:"imageUrl,omitempty"`
	IsActive     bool            `json:"isActive"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func (db *DB) CreateCategory(ctx context.Context, c *Category) error {
	c.ID = uuid.NewString()
	_, err := db.ExecContext(ctx, db.Q(`INSERT INTO categories (id, restaurant_id, name) VALUES (?, ?, ?)`),
		c.ID, c.RestaurantID, c.Name)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (db *DB) ListCategories(ctx context.Context, restaurantID string) ([]*Category, error) {
	rows, err := db.QueryContext(ctx, db.Q(`SELECT c.id, c.restaurant_id, c.name, COUNT(m.id)
		FROM categories c LEFT JOIN menu_items m ON m.category_id = c.id
		WHERE c.restaurant_id=?
		GROUP BY c.id, c.restaurant_id, c.name
		ORDER BY c.name`), restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cats []*Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.RestaurantID, &c.Name, &c.ItemCount); err != nil {
			return nil, err
		}
		cats = append(cats, &c)
	}
	return cats, rows.Err()
}

func (db *DB) GetCategory(ctx context.Context, restaurantID, id string) (*Category, error) {
	var c Category
	err := db.QueryRowContext(ctx, db.Q(`SELECT id, restaurant_id, name FROM categories WHERE id=? AND restaurant_id=?`), id, restaurantID).
		Scan(&c.ID, &c.RestaurantID, &c.Name)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// DeleteCategory fails with ErrInUse while items still point at it.
func (db *DB) DeleteCategory(ctx context.Context, restaurantID, id string) error {
	return deleted(db.ExecContext(ctx, db.Q(`DELETE FROM categories WHERE id=? AND restaurant_id=?`), id, restaurantID))
}

func (db *DB) CreateMenuItem(ctx context.Context, m *MenuItem) error {
	if _, err := db.GetCategory(ctx, m.RestaurantID, m.CategoryID); err != nil {
		return err
	}
	m.ID = uuid.NewString()
	m.IsActive = true
	m.CreatedAt = time.Now().UTC()
	_, err := db.ExecContext(ctx, db.Q(`INSERT INTO menu_items (id, restaurant_id, category_id, name, description, price, image_url, is_active, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		m.ID, m.RestaurantID, m.CategoryID, m.Name, m.Description, m.Price, m.ImageURL, m.IsActive, m.CreatedAt)
	return err
}

const menuItemSelect = `SELECT m.id, m.restaurant_id, m.category_id, c.name, m.name, m.description, m.price, m.image_url, m.is_active, m.created_at
	FROM menu_items m JOIN categories c ON c.id = m.category_id`

func (db *DB) ListMenuItems(ctx context.Context, restaurantID string, activeOnly bool) ([]*MenuItem, error) {
	query := menuItemSelect + ` WHERE m.restaurant_id=?`
	args := []any{restaurantID}
	if activeOnly {
		query += ` AND m.is_active=?`
		args = append(args, true)
	}
	query += ` ORDER BY m.created_at DESC`
	rows, err := db.QueryContext(ctx, db.Q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*MenuItem
	for rows.Next() {
		var m MenuItem
		if err := rows.Scan(&m.ID, &m.RestaurantID, &m.CategoryID, &m.CategoryName, &m.Name, &m.Description, &m.Price, &m.ImageURL, &m.IsActive, &m.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &m)
	}
	return items, rows.Err()
}

func (db *DB) GetMenuItem(ctx context.Context, restaurantID, id string) (*MenuItem, error) {
	var m MenuItem
	err := db.QueryRowContext(ctx, db.Q(menuItemSelect+` WHERE m.id=? AND m.restaurant_id=?`), id, restaurantID).
		Scan(&m.ID, &m.RestaurantID, &m.CategoryID, &m.CategoryName, &m.Name, &m.Description, &m.Price, &m.ImageURL, &m.IsActive, &m.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (db *DB) UpdateMenuItem(ctx context.Context, m *MenuItem) error {
	if _, err := db.GetCategory(ctx, m.RestaurantID, m.CategoryID); err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, db.Q(`UPDATE menu_items SET category_id=?, name=?, description=?, price=?, image_url=? WHERE id=? AND restaurant_id=?`),
		m.CategoryID, m.Name, m.Description, m.Price, m.ImageURL, m.ID, m.RestaurantID)
	if err != nil {
		return err
	}
	return affected(res)
}

func (db *DB) SetMenuItemActive(ctx context.Context, restaurantID, id string, active bool) error {
	res, err := db.ExecContext(ctx, db.Q(`UPDATE menu_items SET is_active=? WHERE id=? AND restaurant_id=?`), active, id, restaurantID)
	if err != nil {
		return err
	}
	return affected(res)
}

// DeleteMenuItem fails with ErrInUse once the item appears on an order.
func (db *DB) DeleteMenuItem(ctx context.Context, restaurantID, id string) error {
	return deleted(db.ExecContext(ctx, db.Q(`DELETE FROM menu_items WHERE id=? AND restaurant_id=?`), id, restaurantID))
}

func (db *DB) CountActiveMenuItems(ctx context.Context, restaurantID string) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, db.Q(`SELECT COUNT(*) FROM menu_items WHERE restaurant_id=? AND is_active=?`), restaurantID, true).Scan(&n)
	return n, err
}

func affected(res interface{ RowsAffected() (int64, error) }) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
