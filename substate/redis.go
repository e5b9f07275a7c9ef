package substate

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"ticketera/store"
)

// Cache holds subscription snapshots keyed by restaurant.
type Cache interface {
	Get(ctx context.Context, tenantID string) (*store.Subscription, error)
	Set(ctx context.Context, sub *store.Subscription) error
	Delete(ctx context.Context, tenantID string) error
}

// RedisStore keeps one JSON value per restaurant under sub:<id>.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func key(tenantID string) string { return "sub:" + tenantID }

// Get returns nil and no error on a cache miss.
func (s *RedisStore) Get(ctx context.Context, tenantID string) (*store.Subscription, error) {
	data, err := s.rdb.Get(ctx, key(tenantID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sub store.Subscription
	if err := json.Unmarshal(data, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *RedisStore) Set(ctx context.Context, sub *store.Subscription) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key(sub.RestaurantID), data, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, tenantID string) error {
	return s.rdb.Del(ctx, key(tenantID)).Err()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
