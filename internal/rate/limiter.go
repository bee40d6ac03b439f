package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	userKeyPrefix = "lt:u:"
	ipKeyPrefix   = "lt:ip:"
)

// Config holds rate limiter tuning parameters.
type Config struct {
	// MaxAttempts is the number of failures tolerated per window.
	MaxAttempts int
	Window      time.Duration
	// PerIP also counts failures per client IP when one is known.
	PerIP bool
}

// Limiter enforces per-username and per-IP failed login budgets using
// Redis counters.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a rate [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

// Check returns ErrRateLimited once username (or ip, with PerIP) has
// used up its failure budget for the current window.
func (l *Limiter) Check(ctx context.Context, username, ip string) error {
	if err := l.checkCounter(ctx, userKeyPrefix+username); err != nil {
		return err
	}

	if l.config.PerIP && ip != "" {
		if err := l.checkCounter(ctx, ipKeyPrefix+ip); err != nil {
			return err
		}
	}

	return nil
}

// RecordFailure counts one failed attempt for username and ip.
func (l *Limiter) RecordFailure(ctx context.Context, username, ip string) error {
	if _, err := l.incrementWithTTL(ctx, userKeyPrefix+username); err != nil {
		return err
	}

	if l.config.PerIP && ip != "" {
		if _, err := l.incrementWithTTL(ctx, ipKeyPrefix+ip); err != nil {
			return err
		}
	}

	return nil
}

// Reset clears the username counter after a successful login. The IP
// counter is left to expire so one good account cannot clear it.
func (l *Limiter) Reset(ctx context.Context, username string) error {
	if err := l.redis.Del(ctx, userKeyPrefix+username).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (l *Limiter) checkCounter(ctx context.Context, key string) error {
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if count >= int64(l.config.MaxAttempts) {
		return ErrRateLimited
	}

	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}
