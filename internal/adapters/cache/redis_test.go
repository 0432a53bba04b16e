package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"pricewatch/config"
	"pricewatch/internal/binance/memorystore"
	"pricewatch/internal/binance/snapshot"
	"pricewatch/internal/binance/symbols"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// go test -v --run TestRedisMirror (needs redis on localhost:6379)
func TestRedisMirror(t *testing.T) {
	client := NewRedisClient(config.RedisConfig{Addr: "localhost:6379"})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	key := "pricewatch:test:" + time.Now().Format("150405.000000")
	mirror := NewRedisMirror(client, key, 5*time.Second)
	if err := mirror.Ping(ctx); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	defer client.Del(context.Background(), key)

	if _, err := mirror.Load(ctx); !errors.Is(err, redis.Nil) {
		t.Fatalf("expected redis.Nil before first mirror, got %v", err)
	}

	current := memorystore.NewPriceStore()
	open := memorystore.NewPriceStore()
	open.Set("BTCUSDT", 60000)
	current.Set("BTCUSDT", 61500)
	pub := snapshot.NewPublisher()
	snap := snapshot.NewComputer(symbols.Default(), current.ReadOnly(), open.ReadOnly(), pub, zap.NewNop()).Compute(time.Now())

	if err := mirror.Mirror(ctx, snap); err != nil {
		t.Fatalf("mirror: %v", err)
	}

	got, err := mirror.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Version != snap.Version() {
		t.Errorf("expected version %d, got %d", snap.Version(), got.Version)
	}
	if rec := got.Prices["BTCUSDT"]; rec.ChangePercent != 2.5 || rec.Name != "BTC" {
		t.Errorf("unexpected mirrored record: %+v", rec)
	}

	ttl, err := client.TTL(ctx, key).Result()
	if err != nil || ttl <= 0 {
		t.Errorf("expected key with ttl, got %v (%v)", ttl, err)
	}
}
