package store

import (
	"context"
	"database/sql"
	"time"
)

const (
	SubscriptionTrial    = "TRIAL"
	SubscriptionActive   = "ACTIVE"
	SubscriptionCanceled = "CANCELED"
)

type Subscription struct {
	RestaurantID     string     `json:"restaurantId"`
	Status           string     `json:"status"`
	TrialEndsAt      time.Time  `json:"trialEndsAt"`
	CurrentPeriodEnd *time.Time `json:"currentPeriodEnd,omitempty"`
	ProviderRef      string     `json:"providerRef,omitempty"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

func (db *DB) GetSubscription(ctx context.Context, restaurantID string) (*Subscription, error) {
	var s Subscription
	var periodEnd sql.NullTime
	err := db.QueryRowContext(ctx, db.Q(`SELECT restaurant_id, status, trial_ends_at, current_period_end, provider_ref, updated_at FROM subscriptions WHERE restaurant_id=?`), restaurantID).
		Scan(&s.RestaurantID, &s.Status, &s.TrialEndsAt, &periodEnd, &s.ProviderRef, &s.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	if periodEnd.Valid {
		t := periodEnd.Time
		s.CurrentPeriodEnd = &t
	}
	return &s, nil
}

func (db *DB) UpsertSubscription(ctx context.Context, s *Subscription) error {
	s.UpdatedAt = time.Now().UTC()
	var periodEnd any
	if s.CurrentPeriodEnd != nil {
		periodEnd = s.CurrentPeriodEnd.UTC()
	}
	_, err := db.ExecContext(ctx, db.Q(`INSERT INTO subscriptions (restaurant_id, status, trial_ends_at, current_period_end, provider_ref, updated_at) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (restaurant_id) DO UPDATE SET status=excluded.status, trial_ends_at=excluded.trial_ends_at,
			current_period_end=excluded.current_period_end, provider_ref=excluded.provider_ref, updated_at=excluded.updated_at`),
		s.RestaurantID, s.Status, s.TrialEndsAt.UTC(), periodEnd, s.ProviderRef, s.UpdatedAt)
	return err
}
