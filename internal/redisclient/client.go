package redisclient

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

//go:embed scripts/release_lock.lua
var releaseLockScript string

// ErrCartNotFound is returned when no cart is stored under a key
var ErrCartNotFound = errors.New("cart not found")

type Client struct {
	rdb           *redis.Client
	releaseScript *redis.Script
}

// NewClient creates a new Redis client and checks connectivity
func NewClient(addr, password string, db int) (*Client, error) {
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

	return NewWithRedis(rdb), nil
}

// NewWithRedis wraps an existing go-redis client
func NewWithRedis(rdb *redis.Client) *Client {
	return &Client{
		rdb:           rdb,
		releaseScript: redis.NewScript(releaseLockScript),
	}
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks the connection, used by the readiness probe
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// AcquireLock tries to take a short-lived lock. On success it returns the
// owner token needed by ReleaseLock; ok is false if someone else holds it.
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (token string, ok bool, err error) {
	token = uuid.New().String()
	ok, err = c.rdb.SetNX(ctx, lockName(lockKey), token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("acquire lock %s: %w", lockKey, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// ReleaseLock drops the lock only if it is still owned by token
func (c *Client) ReleaseLock(ctx context.Context, lockKey, token string) error {
	_, err := c.releaseScript.Run(ctx, c.rdb, []string{lockName(lockKey)}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release lock script failed: %w", err)
	}
	return nil
}

// SaveCart stores a serialized cart with a sliding TTL
func (c *Client) SaveCart(ctx context.Context, restaurantID uuid.UUID, cartID string, payload []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, cartKey(restaurantID, cartID), payload, ttl).Err()
}

// LoadCart returns a serialized cart
func (c *Client) LoadCart(ctx context.Context, restaurantID uuid.UUID, cartID string) ([]byte, error) {
	data, err := c.rdb.Get(ctx, cartKey(restaurantID, cartID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCartNotFound
	}
	return data, err
}

// DeleteCart removes a stored cart
func (c *Client) DeleteCart(ctx context.Context, restaurantID uuid.UUID, cartID string) error {
	return c.rdb.Del(ctx, cartKey(restaurantID, cartID)).Err()
}

func lockName(key string) string {
	return fmt.Sprintf("lock:%s", key)
}

func cartKey(restaurantID uuid.UUID, cartID string) string {
	return fmt.Sprintf("cart:%s:%s", restaurantID, cartID)
}
