package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/chairlift/bookings-service/config"
	"github.com/redis/go-redis/v9"
)

// RedisCache keeps the confirmation-code to booking-id mapping. Both fields are
// immutable after creation, so cached entries can never go stale.
type RedisCache struct {
	client  *redis.Client
	codeTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, codeTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:  redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		codeTTL: codeTTL,
	}
}

func (c *RedisCache) GetBookingID(ctx context.Context, code string) (string, error) {
	id, err := c.client.Get(ctx, codeKey(code)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", err
	}
	return id, nil
}

func (c *RedisCache) SetBookingID(ctx context.Context, code, bookingID string) error {
	return c.client.Set(ctx, codeKey(code), bookingID, c.codeTTL).Err()
}

func codeKey(code string) string {
	return fmt.Sprintf("booking:code:%s", code)
}
