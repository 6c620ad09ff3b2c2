package testutil

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// SetupTestRedis connects to the Redis instance named by TEST_REDIS_ADDR
// (default localhost:56379) and selects TEST_REDIS_DB (default 15). The
// database is flushed before and after the test. The test is skipped when
// Redis is unreachable unless TEST_REQUIRE_REDIS or TEST_REQUIRE_INFRA is set.
func SetupTestRedis(t TestingTB) *redis.Client {
	t.Helper()

	db, err := strconv.Atoi(envOr("TEST_REDIS_DB", "15"))
	if err != nil || db < 0 {
		t.Fatalf("invalid TEST_REDIS_DB %q", envOr("TEST_REDIS_DB", ""))
	}
	addr := envOr("TEST_REDIS_ADDR", envOr("REDIS_ADDR", "localhost:56379"))
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		if envBool("TEST_REQUIRE_REDIS") || envBool("TEST_REQUIRE_INFRA") {
			t.Fatalf("redis not available at %s: %v", addr, err)
		}
		t.Skipf("redis not available at %s: %v", addr, err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flush redis db %d: %v", db, err)
	}

	t.Cleanup(func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer flushCancel()
		_ = client.FlushDB(flushCtx).Err()
	})
	return client
}
