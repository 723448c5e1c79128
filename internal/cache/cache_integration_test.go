//go:build integration

package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cardmaker/cardmaker/internal/model"
)

// These tests require Redis to be running.

func newCacheTestEnv(t *testing.T) (context.Context, *Cache) {
	t.Helper()

	ctx := context.Background()
	c, err := New(ctx, "redis://localhost:6379")
	if err != nil {
		t.Skipf("Skipping integration test: Redis not available: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if err := c.Client().FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flush redis: %v", err)
	}

	return ctx, c
}

func TestIntegrationAuthCache_RoundTrip(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	user := &model.User{ID: "u-1", Username: "alice"}
	expiry := time.Now().Add(time.Hour)

	if err := c.SetAuthUser(ctx, "key-1", user, expiry); err != nil {
		t.Fatalf("SetAuthUser failed: %v", err)
	}

	cached, err := c.GetAuthUser(ctx, "key-1")
	if err != nil {
		t.Fatalf("GetAuthUser failed: %v", err)
	}
	if cached == nil {
		t.Fatal("Expected cache hit")
	}
	if cached.ID != user.ID || cached.Username != user.Username {
		t.Errorf("Cached user mismatch: got %+v", cached)
	}

	if err := c.DeleteAuthUser(ctx, "key-1"); err != nil {
		t.Fatalf("DeleteAuthUser failed: %v", err)
	}
	cached, err = c.GetAuthUser(ctx, "key-1")
	if err != nil {
		t.Fatalf("GetAuthUser failed: %v", err)
	}
	if cached != nil {
		t.Error("Expected cache miss after delete")
	}
}

func TestIntegrationAuthCache_TTLCappedAtTokenExpiry(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	user := &model.User{ID: "u-2", Username: "bob"}

	// Token expiring in 100ms must not be cached longer than that.
	if err := c.SetAuthUser(ctx, "key-2", user, time.Now().Add(100*time.Millisecond)); err != nil {
		t.Fatalf("SetAuthUser failed: %v", err)
	}

	time.Sleep(200 * time.Millisecond)

	cached, err := c.GetAuthUser(ctx, "key-2")
	if err != nil {
		t.Fatalf("GetAuthUser failed: %v", err)
	}
	if cached != nil {
		t.Error("Expected entry to expire with the token")
	}
}

func TestIntegrationAuthCache_ExpiredTokenNotCached(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	user := &model.User{ID: "u-3", Username: "carol"}
	if err := c.SetAuthUser(ctx, "key-3", user, time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("SetAuthUser failed: %v", err)
	}

	cached, err := c.GetAuthUser(ctx, "key-3")
	if err != nil {
		t.Fatalf("GetAuthUser failed: %v", err)
	}
	if cached != nil {
		t.Error("Expected no caching for an already expired token")
	}
}

func TestIntegrationIPRateLimit_Concurrency(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	rpm := 10
	burst := 5

	var allowed, rejected int64

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 3; j++ {
				result, err := c.CheckIPRateLimit(ctx, "203.0.113.7", rpm, burst)
				if err != nil {
					t.Errorf("CheckIPRateLimit error: %v", err)
					return
				}
				if result.Allowed {
					atomic.AddInt64(&allowed, 1)
				} else {
					atomic.AddInt64(&rejected, 1)
				}
			}
		}()
	}
	wg.Wait()

	t.Logf("Concurrency test: %d allowed, %d rejected", allowed, rejected)

	if allowed > int64(burst+rpm) {
		t.Errorf("Too many requests allowed: %d (expected <= %d)", allowed, burst+rpm)
	}
	if allowed == 0 {
		t.Error("Expected at least the burst to be allowed")
	}
}

func TestIntegrationIPRateLimit_SeparateBuckets(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	// Drain one IP's bucket entirely.
	for i := 0; i < 10; i++ {
		if _, err := c.CheckIPRateLimit(ctx, "198.51.100.1", 5, 5); err != nil {
			t.Fatalf("CheckIPRateLimit failed: %v", err)
		}
	}

	result, err := c.CheckIPRateLimit(ctx, "198.51.100.2", 5, 5)
	if err != nil {
		t.Fatalf("CheckIPRateLimit failed: %v", err)
	}
	if !result.Allowed {
		t.Error("Expected a fresh IP to have its own bucket")
	}
}
