// Package redis backs store.AttemptLimiter with a shared Redis counter so
// the second-factor attempt cap holds across service replicas.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	DefaultMaxAttempts = 5
	DefaultCooldown    = 15 * time.Minute
	keyPrefix          = "medoffice:2fa:att:"
)

// ErrUnavailable wraps Redis failures so callers can tell them from lockout.
var ErrUnavailable = errors.New("redis: attempt limiter unavailable")

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// AttemptLimiter counts failed second-factor attempts per account. The
// counter expires Cooldown after the first failure in a window.
type AttemptLimiter struct {
	rdb         *goredis.Client
	MaxAttempts int64
	Cooldown    time.Duration
}

// Dial connects to Redis and checks the connection.
func Dial(ctx context.Context, opts Options) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return rdb, nil
}

// NewAttemptLimiter wraps an existing client with default limits.
func NewAttemptLimiter(rdb *goredis.Client) *AttemptLimiter {
	return &AttemptLimiter{
		rdb:         rdb,
		MaxAttempts: DefaultMaxAttempts,
		Cooldown:    DefaultCooldown,
	}
}

func (l *AttemptLimiter) key(accountID int64) string {
	return keyPrefix + strconv.FormatInt(accountID, 10)
}

// Locked reports whether the account has used up its attempts.
func (l *AttemptLimiter) Locked(ctx context.Context, accountID int64) (bool, error) {
	count, err := l.rdb.Get(ctx, l.key(accountID)).Int64()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return count >= l.MaxAttempts, nil
}

// RecordFailure bumps the counter, starting the cooldown on the first miss.
// The key is created with its expiry in the same MULTI as the INCR, so a
// counter without a TTL can never exist.
func (l *AttemptLimiter) RecordFailure(ctx context.Context, accountID int64) (bool, error) {
	key := l.key(accountID)

	var incr *goredis.IntCmd
	_, err := l.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, l.Cooldown)
		incr = pipe.Incr(ctx, key)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return incr.Val() >= l.MaxAttempts, nil
}

// Reset forgets previous failures.
func (l *AttemptLimiter) Reset(ctx context.Context, accountID int64) error {
	if err := l.rdb.Del(ctx, l.key(accountID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Ping checks the Redis connection for readiness probes.
func (l *AttemptLimiter) Ping(ctx context.Context) error {
	if err := l.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
