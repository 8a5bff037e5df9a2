package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mandihub/internal/models"

	"github.com/go-redis/redis/v8"
)

const cropCacheTTL = 5 * time.Minute

// Client wraps Redis for the three side concerns the service keeps there:
// cache-aside crop reads, idempotency keys for order placement, and the live
// marketplace counters maintained by the stats worker. Nothing in Redis is
// authoritative; the database always wins.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
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

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func cropKey(id string) string {
	return fmt.Sprintf("crop:%s", id)
}

// GetCachedCrop retrieves a cached crop, or (nil, nil) on a miss.
func (c *Client) GetCachedCrop(ctx context.Context, id string) (*models.Crop, error) {
	data, err := c.rdb.Get(ctx, cropKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var crop models.Crop
	if err := json.Unmarshal(data, &crop); err != nil {
		return nil, fmt.Errorf("corrupt cached crop %s: %w", id, err)
	}
	return &crop, nil
}

// SetCachedCrop stores a crop with TTL
func (c *Client) SetCachedCrop(ctx context.Context, crop *models.Crop) error {
	data, err := json.Marshal(crop)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, cropKey(crop.ID), data, cropCacheTTL).Err()
}

// InvalidateCrop drops a cached crop after its stock or fields changed
func (c *Client) InvalidateCrop(ctx context.Context, cropID string) error {
	return c.rdb.Del(ctx, cropKey(cropID)).Err()
}

// GetIdempotentOrderID looks up the order created under an idempotency key,
// returning "" when the key is unknown.
func (c *Client) GetIdempotentOrderID(ctx context.Context, key string) (string, error) {
	id, err := c.rdb.Get(ctx, fmt.Sprintf("idempotency:%s", key)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return id, err
}

// SetIdempotentOrderID records the order created under an idempotency key
func (c *Client) SetIdempotentOrderID(ctx context.Context, key, orderID string, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("idempotency:%s", key), orderID, ttl).Err()
}

// Marketplace counter keys, maintained by the stats worker off the event
// stream.
const (
	counterOrdersConfirmed = "stats:orders_confirmed"
	counterRevenue         = "stats:revenue"
	counterDeliveries      = "stats:deliveries_completed"
)

// IncrOrdersConfirmed bumps the confirmed-orders counter and accumulates
// revenue
func (c *Client) IncrOrdersConfirmed(ctx context.Context, revenue float64) error {
	pipe := c.rdb.Pipeline()
	pipe.Incr(ctx, counterOrdersConfirmed)
	pipe.IncrByFloat(ctx, counterRevenue, revenue)
	_, err := pipe.Exec(ctx)
	return err
}

// IncrDeliveriesCompleted bumps the completed-deliveries counter
func (c *Client) IncrDeliveriesCompleted(ctx context.Context) error {
	return c.rdb.Incr(ctx, counterDeliveries).Err()
}

// MarketplaceCounters reads the live counters back. Missing keys read as
// zero.
func (c *Client) MarketplaceCounters(ctx context.Context) (confirmed int64, revenue float64, deliveries int64, err error) {
	vals, err := c.rdb.MGet(ctx, counterOrdersConfirmed, counterRevenue, counterDeliveries).Result()
	if err != nil {
		return 0, 0, 0, err
	}

	if s, ok := vals[0].(string); ok {
		fmt.Sscanf(s, "%d", &confirmed)
	}
	if s, ok := vals[1].(string); ok {
		fmt.Sscanf(s, "%f", &revenue)
	}
	if s, ok := vals[2].(string); ok {
		fmt.Sscanf(s, "%d", &deliveries)
	}
	return confirmed, revenue, deliveries, nil
}
