package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type OutboxMessage struct {
	ID           string
	Topic        string
	Payload      []byte
	MsgType      string
	RestaurantID string
	Attempts     int
	CreatedAt    time.Time
}

func (db *DB) EnqueueOutbox(ctx context.Context, topic string, payload []byte, msgType, restaurantID string) error {
	_, err := db.ExecContext(ctx, db.Q(`INSERT INTO outbox (id, topic, payload, msg_type, restaurant_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`),
		uuid.NewString(), topic, payload, msgType, restaurantID, time.Now().UTC())
	return err
}

// ListPendingOutbox returns up to limit unsent messages that have failed
// fewer than maxAttempts times. Rows with fewer attempts come first so a run
// of failing rows cannot starve newer ones. maxAttempts <= 0 means no cutoff.
func (db *DB) ListPendingOutbox(ctx context.Context, limit, maxAttempts int) ([]*OutboxMessage, error) {
	query := `SELECT id, topic, payload, msg_type, restaurant_id, attempts, created_at FROM outbox WHERE sent_at IS NULL`
	args := []any{}
	if maxAttempts > 0 {
		query += ` AND attempts < ?`
		args = append(args, maxAttempts)
	}
	query += ` ORDER BY attempts, created_at LIMIT ?`
	args = append(args, limit)
	rows, err := db.QueryContext(ctx, db.Q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var msgs []*OutboxMessage
	for rows.Next() {
		var m OutboxMessage
		if err := rows.Scan(&m.ID, &m.Topic, &m.Payload, &m.MsgType, &m.RestaurantID, &m.Attempts, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, &m)
	}
	return msgs, rows.Err()
}

func (db *DB) AckOutbox(ctx context.Context, id string) error {
	_, err := db.ExecContext(ctx, db.Q(`UPDATE outbox SET sent_at=?, attempts=attempts+1 WHERE id=?`), time.Now().UTC(), id)
	return err
}

func (db *DB) FailOutbox(ctx context.Context, id string) error {
	_, err := db.ExecContext(ctx, db.Q(`UPDATE outbox SET attempts=attempts+1 WHERE id=?`), id)
	return err
}

// PurgeOutbox deletes rows created before cutoff that were either sent or
// gave up after maxAttempts failures.
func (db *DB) PurgeOutbox(ctx context.Context, cutoff time.Time, maxAttempts int) (int64, error) {
	if maxAttempts <= 0 {
		maxAttempts = int(^uint32(0) >> 1)
	}
	res, err := db.ExecContext(ctx, db.Q(`DELETE FROM outbox WHERE created_at < ? AND (sent_at IS NOT NULL OR attempts >= ?)`),
		cutoff.UTC(), maxAttempts)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (db *DB) CountPendingOutbox(ctx context.Context) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM outbox WHERE sent_at IS NULL`).Scan(&n)
	return n, err
}
