// Package cache publishes service status snapshots to Redis for external
// dashboards. No audio ever touches the cache.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/voicemorph/voicemorph/config"
)

// StatusKey is where the current service snapshot lives.
const StatusKey = "voicemorph:status"

// Status is the published snapshot.
type Status struct {
	Mode          string  `json:"mode"`
	Engine        string  `json:"engine"`
	Sessions      int     `json:"sessions"`
	Connected     bool    `json:"connected"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
}

// RedisClient wraps the go-redis client.
type RedisClient struct {
	*redis.Client
	ttl time.Duration
}

// NewRedisClient connects and verifies the Redis backend.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	ttl := time.Duration(cfg.StatusTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisClient{Client: rdb, ttl: ttl}, nil
}

// PublishStatus stores the snapshot with a TTL so a dead service expires
// from the dashboard on its own.
func (c *RedisClient) PublishStatus(ctx context.Context, status Status) error {
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return c.Set(ctx, StatusKey, data, c.ttl).Err()
}

// RunReporter publishes a snapshot on an interval until the context is
// cancelled. Run it in its own goroutine; publish errors are returned to
// the caller through errFn.
func (c *RedisClient) RunReporter(ctx context.Context, interval time.Duration, snapshot func() Status, errFn func(error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.PublishStatus(ctx, snapshot()); err != nil && errFn != nil {
				errFn(err)
			}
		}
	}
}
