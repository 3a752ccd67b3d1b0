package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jobportal/apiserver/config"
	"github.com/redis/go-redis/v9"
)

const redisSessionPrefix = "session:"

// RedisRegistry stores live sessions as expiring Redis keys, so revocation
// is shared by every server instance.
type RedisRegistry struct {
	client *redis.Client
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func NewRedisRegistry(client *redis.Client) *RedisRegistry {
	return &RedisRegistry{client: client}
}

func (r *RedisRegistry) Add(ctx context.Context, id string, ttl time.Duration) error {
	return r.client.Set(ctx, redisSessionKey(id), 1, ttl).Err()
}

func (r *RedisRegistry) Active(ctx context.Context, id string) (bool, error) {
	n, err := r.client.Exists(ctx, redisSessionKey(id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisRegistry) Remove(ctx context.Context, id string) error {
	return r.client.Del(ctx, redisSessionKey(id)).Err()
}

func redisSessionKey(id string) string {
	return redisSessionPrefix + id
}
