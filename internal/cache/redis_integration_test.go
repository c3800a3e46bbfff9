//go:build integration

package cache

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Canopy/internal/analysis"
	"github.com/MikeSquared-Agency/Canopy/internal/dataset"
)

func setupRedis(t *testing.T) *RedisCache {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping integration test")
	}
	c, err := NewRedisCache(context.Background(), RedisOptions{Addr: addr, TTL: time.Minute},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRedisCacheRoundTrip(t *testing.T) {
	c := setupRedis(t)
	ctx := context.Background()

	dsID := uuid.New()
	key, err := Key(&dsID, nil, dataset.Filter{}, analysis.Options{TopN: 5})
	if err != nil {
		t.Fatalf("Key failed: %v", err)
	}

	if _, ok, err := c.Get(ctx, key); err != nil || ok {
		t.Fatalf("expected miss before Set, got ok=%v err=%v", ok, err)
	}

	state := &analysis.AnalysisState{RunID: uuid.New(), RecordCount: 3, Stats: analysis.Stats{AvgSIS: 0.4}}
	if err := c.Set(ctx, key, state); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if got.RunID != state.RunID || got.Stats.AvgSIS != 0.4 {
		t.Errorf("cached state differs: %+v", got)
	}

	if err := c.InvalidateDataset(ctx, dsID); err != nil {
		t.Fatalf("InvalidateDataset failed: %v", err)
	}
	if _, ok, _ := c.Get(ctx, key); ok {
		t.Error("expected miss after invalidation")
	}
}
