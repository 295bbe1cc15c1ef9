package cache

import (
	"context"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

type RedisBalanceCache struct {
	client *redis.Client
}

func NewRedisBalanceCache(client *redis.Client) *RedisBalanceCache {
	return &RedisBalanceCache{client: client}
}

func (c *RedisBalanceCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisBalanceCache) Close() error {
	return c.client.Close()
}

func balanceKey(customerID string) string {
	return "balance:" + customerID
}

func (c *RedisBalanceCache) Get(ctx context.Context, customerID string) (float64, bool, error) {
	val, err := c.client.Get(ctx, balanceKey(customerID)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	balance, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false, err
	}
	return balance, true, nil
}

func (c *RedisBalanceCache) Set(ctx context.Context, customerID string, balance float64, ttl time.Duration) error {
	return c.client.Set(ctx, balanceKey(customerID), strconv.FormatFloat(balance, 'f', -1, 64), ttl).Err()
}

func (c *RedisBalanceCache) Invalidate(ctx context.Context, customerID string) error {
	return c.client.Del(ctx, balanceKey(customerID)).Err()
}
