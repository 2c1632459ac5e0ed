package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shubham-shewale/stock-feed/pkg/models"
)

const (
	keyPrefix     = "stock:"
	channelPrefix = "prices."
)

// Compile-time check to ensure RedisStore implements SnapshotStore
var _ SnapshotStore = (*RedisStore)(nil)

type RedisStore struct {
	client  *redis.Client
	ttl     time.Duration
	timeout time.Duration
}

// NewRedisStore returns a store whose Publish gives up after timeout.
// A zero timeout leaves the caller's context as the only bound.
func NewRedisStore(client *redis.Client, ttl, timeout time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, timeout: timeout}
}

// Publish stores the snapshot under stock:<TICKER> and announces it on
// prices.<TICKER> in a single pipeline.
func (r *RedisStore) Publish(ctx context.Context, stock models.Stock) error {
	payload, err := json.Marshal(stock)
	if err != nil {
		return err
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, keyPrefix+stock.TickerSymbol, payload, r.ttl)
	pipe.Publish(ctx, channelPrefix+stock.TickerSymbol, payload)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline for %s: %w", stock.TickerSymbol, err)
	}
	return nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

// Key returns the snapshot key for ticker.
func Key(ticker string) string { return keyPrefix + ticker }

// Channel returns the pub/sub channel for ticker.
func Channel(ticker string) string { return channelPrefix + ticker }
