// Package substate tracks restaurant subscription status: SQL is the source
// of truth, Redis a write-through cache.
package substate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ticketera/store"
)

// Store is the slice of store.DB the manager uses.
type Store interface {
	GetSubscription(ctx context.Context, restaurantID string) (*store.Subscription, error)
	UpsertSubscription(ctx context.Context, s *store.Subscription) error
}

type Manager struct {
	db         Store
	cache      Cache
	periodDays int
	now        func() time.Time
	log        zerolog.Logger
}

// NewManager builds a manager; cache may be nil.
func NewManager(db Store, cache Cache, periodDays int, log zerolog.Logger) *Manager {
	if periodDays <= 0 {
		periodDays = 30
	}
	return &Manager{db: db, cache: cache, periodDays: periodDays, now: time.Now, log: log}
}

// Get reads from the cache, falls back to SQL and refills the cache.
func (m *Manager) Get(ctx context.Context, tenantID string) (*store.Subscription, error) {
	if m.cache != nil {
		sub, err := m.cache.Get(ctx, tenantID)
		if err == nil && sub != nil {
			return sub, nil
		}
		if err != nil {
			m.log.Debug().Err(err).Str("tenant", tenantID).Msg("cache read failed, using sql")
		}
	}
	sub, err := m.db.GetSubscription(ctx, tenantID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoSubscription
	}
	if err != nil {
		return nil, err
	}
	m.refresh(ctx, sub)
	return sub, nil
}

// Check returns nil when the restaurant may use gated features.
func (m *Manager) Check(ctx context.Context, tenantID string) error {
	sub, err := m.Get(ctx, tenantID)
	if err != nil {
		return err
	}
	return Evaluate(sub, m.now())
}

// Activate marks the subscription ACTIVE for one billing period, creating
// it if needed, and returns the mock payment URL for plan.
func (m *Manager) Activate(ctx context.Context, tenantID, plan, provider string) (*Checkout, error) {
	sub, err := m.Get(ctx, tenantID)
	if errors.Is(err, ErrNoSubscription) {
		sub, err = &store.Subscription{RestaurantID: tenantID}, nil
	}
	if err != nil {
		return nil, err
	}
	now := m.now().UTC()
	end := now.AddDate(0, 0, m.periodDays)
	sub.Status = store.SubscriptionActive
	sub.TrialEndsAt = now
	sub.CurrentPeriodEnd = &end
	sub.ProviderRef = fmt.Sprintf("%s:%s", provider, plan)
	if err := m.save(ctx, sub); err != nil {
		return nil, err
	}
	m.log.Info().Str("tenant", tenantID).Str("plan", plan).Str("provider", provider).Msg("subscription activated")
	return &Checkout{
		PaymentURL:   fmt.Sprintf("https://pay.mock/%s/%s", provider, plan),
		Subscription: sub,
	}, nil
}

// Cancel marks the subscription CANCELED and ends the current period now.
func (m *Manager) Cancel(ctx context.Context, tenantID string) (*store.Subscription, error) {
	sub, err := m.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	end := m.now().UTC()
	sub.Status = store.SubscriptionCanceled
	sub.CurrentPeriodEnd = &end
	if err := m.save(ctx, sub); err != nil {
		return nil, err
	}
	m.log.Info().Str("tenant", tenantID).Msg("subscription canceled")
	return sub, nil
}

// save writes SQL first, then the cache.
func (m *Manager) save(ctx context.Context, sub *store.Subscription) error {
	if err := m.db.UpsertSubscription(ctx, sub); err != nil {
		return err
	}
	m.refresh(ctx, sub)
	return nil
}

func (m *Manager) refresh(ctx context.Context, sub *store.Subscription) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Set(ctx, sub); err != nil {
		m.log.Debug().Err(err).Str("tenant", sub.RestaurantID).Msg("cache write failed")
	}
}

// Invalidate drops the cached value for tenantID.
func (m *Manager) Invalidate(ctx context.Context, tenantID string) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Delete(ctx, tenantID); err != nil {
		m.log.Debug().Err(err).Str("tenant", tenantID).Msg("cache delete failed")
	}
}

// ErrNoCache is returned by PingCache when the manager runs on SQL alone.
var ErrNoCache = errors.New("no cache configured")

// PingCache reports whether the cache is reachable.
func (m *Manager) PingCache(ctx context.Context) error {
	p, ok := m.cache.(interface{ Ping(context.Context) error })
	if !ok {
		return ErrNoCache
	}
	return p.Ping(ctx)
}
