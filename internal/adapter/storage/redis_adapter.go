package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/itemstore/internal/core/domain"
)

const sequenceKeyPrefix = "seq:"

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

// NextValue uses INCR, which treats a missing key as 0.
func (r *RedisAdapter) NextValue(ctx context.Context, name string) (int64, error) {
	value, err := r.client.Incr(ctx, sequenceKeyPrefix+name).Result()
	if err != nil {
		return 0, fmt.Errorf("increment counter %s: %w: %w", name, domain.ErrPersistence, err)
	}

	return value, nil
}

// Counter reads the last handed-out value without allocating.
func (r *RedisAdapter) Counter(ctx context.Context, name string) (domain.Counter, error) {
	value, err := r.client.Get(ctx, sequenceKeyPrefix+name).Int64()
	if err == redis.Nil {
		return domain.Counter{Name: name}, nil
	}
	if err != nil {
		return domain.Counter{}, fmt.Errorf("read counter %s: %w: %w", name, domain.ErrPersistence, err)
	}

	return domain.Counter{Name: name, Value: value}, nil
}
