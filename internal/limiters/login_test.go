package limiters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestLoginThrottleWindow(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	throttle := NewLoginThrottle(rdb, LoginThrottleConfig{
		Enabled:     true,
		MaxAttempts: 2,
		Cooldown:    time.Minute,
	})

	if err := throttle.Check(ctx, "alice", "10.0.0.1"); err != nil {
		t.Fatalf("Check on empty window failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := throttle.Increment(ctx, "alice", "10.0.0.1"); err != nil {
			t.Fatalf("Increment %d failed: %v", i+1, err)
		}
	}

	if err := throttle.Check(ctx, "alice", "10.0.0.1"); !errors.Is(err, ErrLoginThrottled) {
		t.Fatalf("expected ErrLoginThrottled, got %v", err)
	}

	// A different IP has its own counter.
	if err := throttle.Check(ctx, "alice", "10.0.0.2"); err != nil {
		t.Fatalf("Check for other IP failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if err := throttle.Check(ctx, "alice", "10.0.0.1"); err != nil {
		t.Fatalf("Check after cooldown failed: %v", err)
	}
}

func TestLoginThrottleReset(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	throttle := NewLoginThrottle(rdb, LoginThrottleConfig{
		Enabled:     true,
		MaxAttempts: 1,
		Cooldown:    time.Minute,
	})

	if err := throttle.Increment(ctx, "alice", "10.0.0.1"); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	if err := throttle.Check(ctx, "alice", "10.0.0.1"); !errors.Is(err, ErrLoginThrottled) {
		t.Fatalf("expected ErrLoginThrottled, got %v", err)
	}

	if err := throttle.Reset(ctx, "alice", "10.0.0.1"); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if err := throttle.Check(ctx, "alice", "10.0.0.1"); err != nil {
		t.Fatalf("Check after reset failed: %v", err)
	}
}

func TestLoginThrottleDisabledNoOps(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	throttle := NewLoginThrottle(rdb, LoginThrottleConfig{Enabled: false})

	for i := 0; i < 10; i++ {
		if err := throttle.Increment(ctx, "alice", "10.0.0.1"); err != nil {
			t.Fatalf("Increment failed: %v", err)
		}
	}
	if err := throttle.Check(ctx, "alice", "10.0.0.1"); err != nil {
		t.Fatalf("disabled throttle must always pass, got %v", err)
	}
}
