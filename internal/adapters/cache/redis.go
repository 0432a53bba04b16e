package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pricewatch/config"
	"pricewatch/internal/binance/snapshot"

	"github.com/redis/go-redis/v9"
)

// MirroredSnapshot is the JSON document written to Redis.
type MirroredSnapshot struct {
	Version    uint64                          `json:"version"`
	ComputedAt int64                           `json:"computed_at"` // ms since epoch
	Prices     map[string]snapshot.PriceRecord `json:"prices"`
}

// RedisMirror writes every published snapshot under a single key with a TTL,
// so a stale mirror expires when the tracker stops.
type RedisMirror struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisMirror(client *redis.Client, key string, ttl time.Duration) *RedisMirror {
	return &RedisMirror{
		client: client,
		key:    key,
		ttl:    ttl,
	}
}

// NewRedisClient builds a client from config.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Mirror stores snap as JSON, replacing the previous value in one SET.
func (r *RedisMirror) Mirror(ctx context.Context, snap *snapshot.Snapshot) error {
	doc := MirroredSnapshot{
		Version:    snap.Version(),
		ComputedAt: snap.ComputedAt().UnixMilli(),
		Prices:     make(map[string]snapshot.PriceRecord, snap.Len()),
	}
	for sym, rec := range snap.Records() {
		doc.Prices[string(sym)] = rec
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := r.client.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set snapshot: %w", err)
	}
	return nil
}

// Load reads back the mirrored snapshot. Returns redis.Nil when absent.
func (r *RedisMirror) Load(ctx context.Context) (*MirroredSnapshot, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		return nil, err
	}
	var doc MirroredSnapshot
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &doc, nil
}

// Ping checks the connection.
func (r *RedisMirror) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
