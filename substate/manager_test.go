package substate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketera/store"
)

type memStore struct {
	subs map[string]*store.Subscription
	gets int
}

func (s *memStore) GetSubscription(ctx context.Context, id string) (*store.Subscription, error) {
	s.gets++
	sub, ok := s.subs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *sub
	return &cp, nil
}

func (s *memStore) UpsertSubscription(ctx context.Context, sub *store.Subscription) error {
	cp := *sub
	s.subs[sub.RestaurantID] = &cp
	return nil
}

type memCache struct {
	vals map[string]*store.Subscription
	err  error
}

func (c *memCache) Get(ctx context.Context, id string) (*store.Subscription, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.vals[id], nil
}

func (c *memCache) Set(ctx context.Context, sub *store.Subscription) error {
	if c.err != nil {
		return c.err
	}
	c.vals[sub.RestaurantID] = sub
	return nil
}

func (c *memCache) Delete(ctx context.Context, id string) error {
	delete(c.vals, id)
	return c.err
}

var now = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func newManager(subs map[string]*store.Subscription, cache Cache) (*Manager, *memStore) {
	db := &memStore{subs: subs}
	m := NewManager(db, cache, 30, zerolog.Nop())
	m.now = func() time.Time { return now }
	return m, db
}

func TestEvaluate(t *testing.T) {
	cases := []struct {
		name string
		sub  *store.Subscription
		want error
	}{
		{"missing", nil, ErrNoSubscription},
		{"trial running", &store.Subscription{Status: store.SubscriptionTrial, TrialEndsAt: now.Add(time.Hour)}, nil},
		{"trial expired", &store.Subscription{Status: store.SubscriptionTrial, TrialEndsAt: now.Add(-time.Hour)}, ErrTrialExpired},
		{"active", &store.Subscription{Status: store.SubscriptionActive}, nil},
		{"canceled", &store.Subscription{Status: store.SubscriptionCanceled, TrialEndsAt: now.Add(time.Hour)}, ErrInactive},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Evaluate(tc.sub, now)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCheckUsesCache(t *testing.T) {
	cache := &memCache{vals: map[string]*store.Subscription{}}
	m, db := newManager(map[string]*store.Subscription{
		"r1": {RestaurantID: "r1", Status: store.SubscriptionTrial, TrialEndsAt: now.Add(time.Hour)},
	}, cache)

	require.NoError(t, m.Check(context.Background(), "r1"))
	require.NoError(t, m.Check(context.Background(), "r1"))
	assert.Equal(t, 1, db.gets)
	assert.Contains(t, cache.vals, "r1")

	m.Invalidate(context.Background(), "r1")
	require.NoError(t, m.Check(context.Background(), "r1"))
	assert.Equal(t, 2, db.gets)
}

func TestCheckFallsBackWhenCacheDown(t *testing.T) {
	cache := &memCache{vals: map[string]*store.Subscription{}, err: errors.New("connection refused")}
	m, db := newManager(map[string]*store.Subscription{
		"r1": {RestaurantID: "r1", Status: store.SubscriptionActive},
	}, cache)

	require.NoError(t, m.Check(context.Background(), "r1"))
	require.NoError(t, m.Check(context.Background(), "r1"))
	assert.Equal(t, 2, db.gets)
}

func TestCheckMissing(t *testing.T) {
	m, _ := newManager(map[string]*store.Subscription{}, nil)
	assert.ErrorIs(t, m.Check(context.Background(), "nope"), ErrNoSubscription)
}

func TestActivateAndCancel(t *testing.T) {
	cache := &memCache{vals: map[string]*store.Subscription{}}
	m, db := newManager(map[string]*store.Subscription{
		"r1": {RestaurantID: "r1", Status: store.SubscriptionTrial, TrialEndsAt: now.Add(-time.Hour)},
	}, cache)
	ctx := context.Background()
	assert.ErrorIs(t, m.Check(ctx, "r1"), ErrTrialExpired)

	co, err := m.Activate(ctx, "r1", "pro", "stripe")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.mock/stripe/pro", co.PaymentURL)
	assert.Equal(t, store.SubscriptionActive, db.subs["r1"].Status)
	require.NotNil(t, db.subs["r1"].CurrentPeriodEnd)
	assert.Equal(t, now.AddDate(0, 0, 30), *db.subs["r1"].CurrentPeriodEnd)
	assert.Equal(t, store.SubscriptionActive, cache.vals["r1"].Status)
	require.NoError(t, m.Check(ctx, "r1"))

	sub, err := m.Cancel(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, store.SubscriptionCanceled, sub.Status)
	assert.ErrorIs(t, m.Check(ctx, "r1"), ErrInactive)
	assert.Equal(t, now, *sub.CurrentPeriodEnd)
}

func TestActivateCreatesMissing(t *testing.T) {
	m, db := newManager(map[string]*store.Subscription{}, nil)
	co, err := m.Activate(context.Background(), "r9", "basic", "paypal")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.mock/paypal/basic", co.PaymentURL)
	assert.Equal(t, "paypal:basic", db.subs["r9"].ProviderRef)
	assert.Equal(t, now, db.subs["r9"].TrialEndsAt)
	require.NoError(t, m.Check(context.Background(), "r9"))
}

func TestCancelMissing(t *testing.T) {
	m, _ := newManager(map[string]*store.Subscription{}, nil)
	_, err := m.Cancel(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNoSubscription)
}

func TestPingCacheWithoutPinger(t *testing.T) {
	m, _ := newManager(map[string]*store.Subscription{}, nil)
	assert.ErrorIs(t, m.PingCache(context.Background()), ErrNoCache)
	m, _ = newManager(map[string]*store.Subscription{}, &memCache{vals: map[string]*store.Subscription{}})
	assert.ErrorIs(t, m.PingCache(context.Background()), ErrNoCache)
}
