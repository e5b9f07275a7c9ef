package store

import (
	"context"
	"errors"
	"time"
)

// PrinterConfig points at a raw-socket (port 9100 style) print device.
type PrinterConfig struct {
	RestaurantID string    `json:"restaurantId"`
	Host         string    `json:"host"`
	Port         int       `json:"port"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Configured reports whether the record names a usable host and port.
func (p *PrinterConfig) Configured() bool {
	return p != nil && p.Host != "" && p.Port > 0 && p.Port <= 65535
}

func (db *DB) UpsertPrinterConfig(ctx context.Context, p *PrinterConfig) error {
	p.UpdatedAt = time.Now().UTC()
	_, err := db.ExecContext(ctx, db.Q(`INSERT INTO printer_configs (restaurant_id, host, port, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (restaurant_id) DO UPDATE SET host=excluded.host, port=excluded.port, updated_at=excluded.updated_at`),
		p.RestaurantID, p.Host, p.Port, p.UpdatedAt)
	return err
}

// GetPrinterConfig returns nil and no error when the tenant has no printer.
func (db *DB) GetPrinterConfig(ctx context.Context, restaurantID string) (*PrinterConfig, error) {
	var p PrinterConfig
	err := db.QueryRowContext(ctx, db.Q(`SELECT restaurant_id, host, port, updated_at FROM printer_configs WHERE restaurant_id=?`), restaurantID).
		Scan(&p.RestaurantID, &p.Host, &p.Port, &p.UpdatedAt)
	if err != nil {
		if err = notFound(err); errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
