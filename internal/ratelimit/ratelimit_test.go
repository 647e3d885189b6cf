package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

// TestRedisLimiter needs a Redis server; set WRITER_TEST_REDIS_ADDR to run it.
func TestRedisLimiter(t *testing.T) {
	addr := os.Getenv("WRITER_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("WRITER_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	rdb, err := Connect(ctx, addr, "", 0)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })

	l := NewRedisLimiter(rdb)
	key := "test:" + uuid.New().String()
	t.Cleanup(func() { rdb.Del(ctx, key) })

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, key, 3, time.Minute)
		if err != nil {
			t.Fatalf("Allow #%d: %v", i, err)
		}
		if !ok {
			t.Fatalf("Allow #%d = false, want true", i)
		}
	}
	ok, err := l.Allow(ctx, key, 3, time.Minute)
	if err != nil {
		t.Fatalf("Allow #4: %v", err)
	}
	if ok {
		t.Error("Allow #4 = true, want false")
	}
}
