package limiters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginThrottleConfig holds configuration for the pre-auth login throttle.
type LoginThrottleConfig struct {
	Enabled     bool
	MaxAttempts int
	Cooldown    time.Duration
}

var (
	// ErrLoginThrottled indicates the identifier/IP pair exhausted its window.
	ErrLoginThrottled = errors.New("login throttled")
	// ErrThrottleUnavailable indicates the throttle backend is unreachable.
	ErrThrottleUnavailable = errors.New("throttle backend unavailable")
)

// LoginThrottle counts sign-in requests per identifier/IP pair in a rolling
// window. It sits in front of credential verification and is independent of
// the per-account lockout: the throttle protects the backend, the lockout
// protects the account.
type LoginThrottle struct {
	redis  redis.UniversalClient
	config LoginThrottleConfig
}

// NewLoginThrottle creates a new login throttle.
func NewLoginThrottle(redisClient redis.UniversalClient, cfg LoginThrottleConfig) *LoginThrottle {
	return &LoginThrottle{redis: redisClient, config: cfg}
}

func (l *LoginThrottle) key(identifier, ip string) string {
	return "alt:" + identifier + ":" + ip
}

// Check returns [ErrLoginThrottled] when the pair is over its limit.
func (l *LoginThrottle) Check(ctx context.Context, identifier, ip string) error {
	if !l.config.Enabled || identifier == "" {
		return nil
	}

	count, err := l.redis.Get(ctx, l.key(identifier, ip)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrThrottleUnavailable, err)
	}
	if count >= int64(l.config.MaxAttempts) {
		return ErrLoginThrottled
	}

	return nil
}

// Increment records one request against the pair.
func (l *LoginThrottle) Increment(ctx context.Context, identifier, ip string) error {
	if !l.config.Enabled || identifier == "" {
		return nil
	}

	count, err := l.redis.Incr(ctx, l.key(identifier, ip)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrThrottleUnavailable, err)
	}

	if count == 1 && l.config.Cooldown > 0 {
		// TTL on first hit makes the counter a rolling window.
		if err := l.redis.Expire(ctx, l.key(identifier, ip), l.config.Cooldown).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrThrottleUnavailable, err)
		}
	}

	return nil
}

// Reset clears the counter for a pair, e.g. after a successful sign-in.
func (l *LoginThrottle) Reset(ctx context.Context, identifier, ip string) error {
	if !l.config.Enabled || identifier == "" {
		return nil
	}

	if err := l.redis.Del(ctx, l.key(identifier, ip)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrThrottleUnavailable, err)
	}
	return nil
}
