package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/rentloop/auth-service/internal/ratelimit"
)

func newLimiter(t *testing.T, cfg ratelimit.Config) *ratelimit.Limiter {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return ratelimit.NewLimiter(rdb, cfg)
}

func TestAllow_BurstThenBlocked(t *testing.T) {
	l := newLimiter(t, ratelimit.Config{
		Capacity:       3,
		RefillTokens:   1,
		RefillInterval: time.Minute,
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := l.Allow(ctx, "signup:1.2.3.4")
		if err != nil {
			t.Fatalf("allow %d: %v", i+1, err)
		}
		if !d.Allowed {
			t.Fatalf("request %d within capacity was blocked", i+1)
		}
		if want := int64(2 - i); d.Remaining != want {
			t.Errorf("remaining after request %d = %d, want %d", i+1, d.Remaining, want)
		}
	}

	d, err := l.Allow(ctx, "signup:1.2.3.4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Allowed {
		t.Error("request over capacity was allowed")
	}
	if d.RetryAfter <= 0 {
		t.Errorf("blocked decision carries no retry hint: %v", d.RetryAfter)
	}
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	l := newLimiter(t, ratelimit.Config{
		Capacity:       1,
		RefillTokens:   1,
		RefillInterval: time.Minute,
	})
	ctx := context.Background()

	if d, _ := l.Allow(ctx, "login:1.1.1.1"); !d.Allowed {
		t.Fatal("first key blocked on first request")
	}
	if d, _ := l.Allow(ctx, "login:1.1.1.1"); d.Allowed {
		t.Fatal("first key not exhausted")
	}
	if d, _ := l.Allow(ctx, "login:2.2.2.2"); !d.Allowed {
		t.Error("second key should have its own bucket")
	}
}

func TestAllow_RefillsOverTime(t *testing.T) {
	l := newLimiter(t, ratelimit.Config{
		Capacity:       1,
		RefillTokens:   1,
		RefillInterval: 20 * time.Millisecond,
	})
	ctx := context.Background()

	if d, _ := l.Allow(ctx, "reset:key"); !d.Allowed {
		t.Fatal("initial token missing")
	}
	if d, _ := l.Allow(ctx, "reset:key"); d.Allowed {
		t.Fatal("bucket not exhausted")
	}

	time.Sleep(50 * time.Millisecond)

	d, err := l.Allow(ctx, "reset:key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Allowed {
		t.Error("bucket did not refill after the interval elapsed")
	}
}

func TestAllow_RedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	l := ratelimit.NewLimiter(rdb, ratelimit.Config{Capacity: 1, RefillTokens: 1, RefillInterval: time.Minute})
	mr.Close()

	if _, err := l.Allow(context.Background(), "k"); err == nil {
		t.Error("expected an error once redis is unreachable")
	}
}
