package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdmin  = "ADMIN"
	RoleWaiter = "WAITER"
)

type Restaurant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
}

type User struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurantId"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}

var spaceRun = regexp.MustCompile(`\s+`)

// Slugify lowercases name and replaces whitespace runs with a dash.
func Slugify(name string) string {
	return spaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// RegisterRestaurant creates the tenant, its first ADMIN user and a TRIAL
// subscription in one transaction.
func (db *DB) RegisterRestaurant(ctx context.Context, r *Restaurant, admin *User, trialEnds time.Time) error {
	now := time.Now().UTC()
	r.ID = uuid.NewString()
	r.Slug = Slugify(r.Name)
	r.CreatedAt = now
	admin.ID = uuid.NewString()
	admin.RestaurantID = r.ID
	admin.Role = RoleAdmin
	admin.IsActive = true
	admin.CreatedAt = now

	err := db.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, db.Q(`INSERT INTO restaurants (id, name, slug, created_at) VALUES (?, ?, ?, ?)`),
			r.ID, r.Name, r.Slug, r.CreatedAt); err != nil {
			return err
		}
		if err := db.insertUser(ctx, tx, admin); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, db.Q(`INSERT INTO subscriptions (restaurant_id, status, trial_ends_at, updated_at) VALUES (?, ?, ?, ?)`),
			r.ID, SubscriptionTrial, trialEnds.UTC(), now)
		return err
	})
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (db *DB) GetRestaurant(ctx context.Context, id string) (*Restaurant, error) {
	row := db.QueryRowContext(ctx, db.Q(`SELECT id, name, slug, created_at FROM restaurants WHERE id=?`), id)
	return scanRestaurant(row)
}

func (db *DB) GetRestaurantBySlug(ctx context.Context, slug string) (*Restaurant, error) {
	row := db.QueryRowContext(ctx, db.Q(`SELECT id, name, slug, created_at FROM restaurants WHERE slug=?`), slug)
	return scanRestaurant(row)
}

func scanRestaurant(row *sql.Row) (*Restaurant, error) {
	var r Restaurant
	if err := row.Scan(&r.ID, &r.Name, &r.Slug, &r.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

// CreateUser adds a user to an existing restaurant.
func (db *DB) CreateUser(ctx context.Context, u *User) error {
	u.ID = uuid.NewString()
	u.IsActive = true
	u.CreatedAt = time.Now().UTC()
	err := db.insertUser(ctx, db, u)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (db *DB) insertUser(ctx context.Context, ex execer, u *User) error {
	_, err := ex.ExecContext(ctx, db.Q(`INSERT INTO users (id, restaurant_id, name, email, password_hash, role, is_active, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		u.ID, u.RestaurantID, u.Name, strings.ToLower(u.Email), u.PasswordHash, u.Role, u.IsActive, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

const userColumns = `id, restaurant_id, name, email, password_hash, role, is_active, created_at`

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := db.QueryRowContext(ctx, db.Q(`SELECT `+userColumns+` FROM users WHERE email=?`), strings.ToLower(email))
	return scanUser(row)
}

func (db *DB) GetUser(ctx context.Context, restaurantID, id string) (*User, error) {
	row := db.QueryRowContext(ctx, db.Q(`SELECT `+userColumns+` FROM users WHERE id=? AND restaurant_id=?`), id, restaurantID)
	return scanUser(row)
}

func (db *DB) ListUsers(ctx context.Context, restaurantID string) ([]*User, error) {
	rows, err := db.QueryContext(ctx, db.Q(`SELECT `+userColumns+` FROM users WHERE restaurant_id=? ORDER BY created_at`), restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []*User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.RestaurantID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.RestaurantID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}
