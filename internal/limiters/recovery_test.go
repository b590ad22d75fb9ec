package limiters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newLimiterRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestNilLimiterAllowsEverything(t *testing.T) {
	var l *RecoveryLimiter
	ctx := context.Background()

	if err := l.CheckIssue(ctx, "proj-1", "alice@gmail.com", "10.0.0.1"); err != nil {
		t.Fatalf("nil limiter CheckIssue: %v", err)
	}
	if err := l.CheckConsume(ctx, "proj-1", "u1", "10.0.0.1"); err != nil {
		t.Fatalf("nil limiter CheckConsume: %v", err)
	}
}

func TestIdentifierThrottle(t *testing.T) {
	mr, rdb := newLimiterRedis(t)
	defer mr.Close()

	l := NewRecoveryLimiter(rdb, RecoveryConfig{
		EnableIdentifierThrottle: true,
		Window:                   time.Minute,
		MaxAttempts:              3,
	})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := l.CheckIssue(ctx, "proj-1", "alice@gmail.com", ""); err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
	}

	if err := l.CheckIssue(ctx, "proj-1", "alice@gmail.com", ""); !errors.Is(err, ErrRecoveryRateLimited) {
		t.Fatalf("expected ErrRecoveryRateLimited, got %v", err)
	}

	// Different identifier and different project each get their own window.
	if err := l.CheckIssue(ctx, "proj-1", "bob@gmail.com", ""); err != nil {
		t.Fatalf("other identifier: %v", err)
	}
	if err := l.CheckIssue(ctx, "proj-2", "alice@gmail.com", ""); err != nil {
		t.Fatalf("other project: %v", err)
	}
}

func TestThrottleWindowResets(t *testing.T) {
	mr, rdb := newLimiterRedis(t)
	defer mr.Close()

	l := NewRecoveryLimiter(rdb, RecoveryConfig{
		EnableIdentifierThrottle: true,
		Window:                   time.Minute,
		MaxAttempts:              1,
	})

	ctx := context.Background()
	if err := l.CheckConsume(ctx, "proj-1", "u1", ""); err != nil {
		t.Fatalf("first attempt: %v", err)
	}
	if err := l.CheckConsume(ctx, "proj-1", "u1", ""); !errors.Is(err, ErrRecoveryRateLimited) {
		t.Fatalf("expected ErrRecoveryRateLimited, got %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if err := l.CheckConsume(ctx, "proj-1", "u1", ""); err != nil {
		t.Fatalf("attempt after window reset: %v", err)
	}
}

func TestIPThrottleSkipsEmptyIP(t *testing.T) {
	mr, rdb := newLimiterRedis(t)
	defer mr.Close()

	l := NewRecoveryLimiter(rdb, RecoveryConfig{
		EnableIPThrottle: true,
		Window:           time.Minute,
		MaxAttempts:      1,
	})

	ctx := context.Background()
	// Without a client IP the IP throttle cannot key anything and must pass.
	for i := 0; i < 3; i++ {
		if err := l.CheckIssue(ctx, "proj-1", "alice@gmail.com", ""); err != nil {
			t.Fatalf("attempt %d without IP: %v", i+1, err)
		}
	}

	if err := l.CheckIssue(ctx, "proj-1", "alice@gmail.com", "10.0.0.1"); err != nil {
		t.Fatalf("first attempt with IP: %v", err)
	}
	if err := l.CheckIssue(ctx, "proj-1", "alice@gmail.com", "10.0.0.1"); !errors.Is(err, ErrRecoveryRateLimited) {
		t.Fatalf("expected ErrRecoveryRateLimited for repeated IP, got %v", err)
	}
}

func TestThrottleRedisUnavailable(t *testing.T) {
	mr, rdb := newLimiterRedis(t)

	l := NewRecoveryLimiter(rdb, RecoveryConfig{
		EnableIdentifierThrottle: true,
		Window:                   time.Minute,
		MaxAttempts:              5,
	})

	mr.Close()

	err := l.CheckIssue(context.Background(), "proj-1", "alice@gmail.com", "")
	if !errors.Is(err, ErrRecoveryRedisUnavailable) {
		t.Fatalf("expected ErrRecoveryRedisUnavailable, got %v", err)
	}
}

func TestEmptyProjectKeyNormalized(t *testing.T) {
	mr, rdb := newLimiterRedis(t)
	defer mr.Close()

	l := NewRecoveryLimiter(rdb, RecoveryConfig{
		EnableIdentifierThrottle: true,
		Window:                   time.Minute,
		MaxAttempts:              1,
	})

	ctx := context.Background()
	if err := l.CheckIssue(ctx, "", "alice@gmail.com", ""); err != nil {
		t.Fatalf("first attempt: %v", err)
	}

	if !mr.Exists("arci:0:alice@gmail.com") {
		t.Fatal("expected empty project key to normalize to the default bucket")
	}
}
