package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mohammad-safakhou/researcher/config"
	"github.com/redis/go-redis/v9"
)

// RedisBackend stores the document under a single string key.
type RedisBackend struct {
	client  *redis.Client
	key     string
	timeout time.Duration
}

// NewRedisBackend connects to Redis and verifies the connection with PING.
func NewRedisBackend(ctx context.Context, cfg config.RedisConfig, name string) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	b := &RedisBackend{client: client, key: cfg.KeyPrefix + name, timeout: timeoutOr(cfg.Timeout)}
	pctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return b, nil
}

// NewRedisBackendWithClient wraps an existing client.
func NewRedisBackendWithClient(client *redis.Client, key string) *RedisBackend {
	return &RedisBackend{client: client, key: key, timeout: timeoutOr(0)}
}

func (r *RedisBackend) Location() string { return "redis:" + r.key }

func (r *RedisBackend) Load(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", r.key, err)
	}
	return data, nil
}

func (r *RedisBackend) Save(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}

func (r *RedisBackend) Size(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	n, err := r.client.StrLen(ctx, r.key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis strlen %s: %w", r.key, err)
	}
	return n, nil
}

func (r *RedisBackend) Close() error { return r.client.Close() }
