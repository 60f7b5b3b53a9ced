package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dcode-github/property_listing_search/favorites"
	"github.com/dcode-github/property_listing_search/models"
	"github.com/redis/go-redis/v9"
)

const pendingOutcome = "pending"

// RedisLedger shares toggle request outcomes across service instances.
// Entries expire after ttl.
type RedisLedger struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisLedger(client *redis.Client, ttl time.Duration) *RedisLedger {
	return &RedisLedger{client: client, ttl: ttl, prefix: "toggle:"}
}

func (l *RedisLedger) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.prefix+key, pendingOutcome, l.ttl).Result()
	if err != nil {
		return false, models.NewRepositoryError("claim request key", err)
	}
	return ok, nil
}

func (l *RedisLedger) Record(ctx context.Context, key string, state favorites.State) error {
	if err := l.client.Set(ctx, l.prefix+key, state.String(), l.ttl).Err(); err != nil {
		return models.NewRepositoryError("record request outcome", err)
	}
	return nil
}

func (l *RedisLedger) Lookup(ctx context.Context, key string) (favorites.State, bool, error) {
	v, err := l.client.Get(ctx, l.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return favorites.Unsaved, false, nil
	}
	if err != nil {
		return favorites.Unsaved, false, models.NewRepositoryError("lookup request key", err)
	}
	switch v {
	case favorites.Saved.String():
		return favorites.Saved, true, nil
	case favorites.Unsaved.String():
		return favorites.Unsaved, true, nil
	}
	return favorites.Unsaved, false, nil
}

func (l *RedisLedger) Release(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.prefix+key).Err(); err != nil {
		return models.NewRepositoryError("release request key", err)
	}
	return nil
}
