package redis

import (
	"context"
	"errors"
	"time"

	"github.com/sm8ta/webike_marketplace/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

const opTimeout = 2 * time.Second

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) Get(key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ports.ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (r *RedisAdapter) Set(key string, value []byte, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisAdapter) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.client.Del(ctx, key).Err()
}
