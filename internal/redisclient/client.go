package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sacviet-order-service/internal/models"

	"github.com/go-redis/redis/v8"
)

const (
	orderStatusKey = "order_status:%s"

	// DefaultStatusTTL applies when a non-positive TTL is configured, which
	// go-redis would otherwise store without expiry
	DefaultStatusTTL = 10 * time.Second
)

type Client struct {
	rdb       *redis.Client
	statusTTL time.Duration
}

// NewClient creates a new Redis client and checks the connection
func NewClient(addr, password string, db int, statusTTL time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewFromRedis(rdb, statusTTL), nil
}

// NewFromRedis wraps an existing go-redis client
func NewFromRedis(rdb *redis.Client, statusTTL time.Duration) *Client {
	if statusTTL <= 0 {
		statusTTL = DefaultStatusTTL
	}
	return &Client{rdb: rdb, statusTTL: statusTTL}
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks Redis is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// GetOrderStatus returns the cached status. ok is false on a cache miss.
func (c *Client) GetOrderStatus(ctx context.Context, orderID string) (models.OrderStatus, bool, error) {
	val, err := c.rdb.Get(ctx, fmt.Sprintf(orderStatusKey, orderID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return models.OrderStatus(val), true, nil
}

// SetOrderStatus caches an order's status with the configured TTL
func (c *Client) SetOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	return c.rdb.Set(ctx, fmt.Sprintf(orderStatusKey, orderID), string(status), c.statusTTL).Err()
}

// DeleteOrderStatus evicts a cached status
func (c *Client) DeleteOrderStatus(ctx context.Context, orderID string) error {
	return c.rdb.Del(ctx, fmt.Sprintf(orderStatusKey, orderID)).Err()
}
