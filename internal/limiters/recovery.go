package limiters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrRecoveryRateLimited      = errors.New("recovery rate limited")
	ErrRecoveryRedisUnavailable = errors.New("recovery limiter redis unavailable")
)

type RecoveryConfig struct {
	EnableIdentifierThrottle bool
	EnableIPThrottle         bool
	Window                   time.Duration
	MaxAttempts              int
}

type RecoveryLimiter struct {
	redis  redis.UniversalClient
	config RecoveryConfig
}

func NewRecoveryLimiter(redisClient redis.UniversalClient, cfg RecoveryConfig) *RecoveryLimiter {
	return &RecoveryLimiter{
		redis:  redisClient,
		config: cfg,
	}
}

// CheckIssue throttles code issuance per (projectKey, email) and per client IP.
func (l *RecoveryLimiter) CheckIssue(ctx context.Context, projectKey, identifier, ip string) error {
	if l == nil {
		return nil
	}
	if l.config.EnableIdentifierThrottle {
		if err := l.enforceFixedWindow(ctx, issueIdentifierKey(projectKey, identifier)); err != nil {
			return err
		}
	}
	if l.config.EnableIPThrottle && ip != "" {
		if err := l.enforceFixedWindow(ctx, issueIPKey(projectKey, ip)); err != nil {
			return err
		}
	}
	return nil
}

// CheckConsume throttles redemption attempts per user and per client IP.
func (l *RecoveryLimiter) CheckConsume(ctx context.Context, projectKey, userID, ip string) error {
	if l == nil {
		return nil
	}
	if l.config.EnableIdentifierThrottle {
		if err := l.enforceFixedWindow(ctx, consumeUserKey(projectKey, userID)); err != nil {
			return err
		}
	}
	if l.config.EnableIPThrottle && ip != "" {
		if err := l.enforceFixedWindow(ctx, consumeIPKey(projectKey, ip)); err != nil {
			return err
		}
	}
	return nil
}

func (l *RecoveryLimiter) enforceFixedWindow(ctx context.Context, key string) error {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRecoveryRedisUnavailable, err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrRecoveryRedisUnavailable, err)
		}
	}

	if count > int64(l.config.MaxAttempts) {
		return ErrRecoveryRateLimited
	}

	return nil
}

func issueIdentifierKey(projectKey, identifier string) string {
	return "arci:" + normalizeProjectKey(projectKey) + ":" + identifier
}

func issueIPKey(projectKey, ip string) string {
	return "arcip:" + normalizeProjectKey(projectKey) + ":" + ip
}

func consumeUserKey(projectKey, userID string) string {
	return "arcc:" + normalizeProjectKey(projectKey) + ":" + userID
}

func consumeIPKey(projectKey, ip string) string {
	return "arccip:" + normalizeProjectKey(projectKey) + ":" + ip
}

func normalizeProjectKey(projectKey string) string {
	if projectKey == "" {
		return "0"
	}
	return projectKey
}
