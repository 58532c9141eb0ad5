package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/medoffice/internal/auth/store"
	"github.com/aussiebroadwan/medoffice/internal/auth/store/drivers/redis"
)

var _ store.AttemptLimiter = (*redis.AttemptLimiter)(nil)

func newTestLimiter(t *testing.T) (*redis.AttemptLimiter, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return redis.NewAttemptLimiter(rdb), mr
}

func TestAttemptLimiterLocksAfterMax(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLimiter(t)

	for i := 1; i < redis.DefaultMaxAttempts; i++ {
		locked, err := l.RecordFailure(ctx, 7)
		require.NoError(t, err)
		require.False(t, locked, "attempt %d", i)
	}

	locked, err := l.RecordFailure(ctx, 7)
	require.NoError(t, err)
	require.True(t, locked)

	locked, err = l.Locked(ctx, 7)
	require.NoError(t, err)
	require.True(t, locked)

	// Other accounts are unaffected.
	locked, err = l.Locked(ctx, 8)
	require.NoError(t, err)
	require.False(t, locked)
}

func TestAttemptLimiterCooldownExpires(t *testing.T) {
	ctx := context.Background()
	l, mr := newTestLimiter(t)
	l.MaxAttempts = 2

	_, err := l.RecordFailure(ctx, 1)
	require.NoError(t, err)
	locked, err := l.RecordFailure(ctx, 1)
	require.NoError(t, err)
	require.True(t, locked)

	mr.FastForward(redis.DefaultCooldown + time.Second)

	locked, err = l.Locked(ctx, 1)
	require.NoError(t, err)
	require.False(t, locked)
}

func TestAttemptLimiterCountersAlwaysExpire(t *testing.T) {
	ctx := context.Background()
	l, mr := newTestLimiter(t)
	key := "medoffice:2fa:att:5"

	_, err := l.RecordFailure(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, redis.DefaultCooldown, mr.TTL(key))

	// Later failures do not extend the window.
	mr.FastForward(time.Minute)
	_, err = l.RecordFailure(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, redis.DefaultCooldown-time.Minute, mr.TTL(key))

	v, err := mr.Get(key)
	require.NoError(t, err)
	require.Equal(t, "2", v)
}

func TestAttemptLimiterReset(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLimiter(t)
	l.MaxAttempts = 1

	locked, err := l.RecordFailure(ctx, 3)
	require.NoError(t, err)
	require.True(t, locked)

	require.NoError(t, l.Reset(ctx, 3))

	locked, err = l.Locked(ctx, 3)
	require.NoError(t, err)
	require.False(t, locked)
}

func TestAttemptLimiterUnavailable(t *testing.T) {
	ctx := context.Background()
	l, mr := newTestLimiter(t)
	mr.Close()

	_, err := l.Locked(ctx, 1)
	require.ErrorIs(t, err, redis.ErrUnavailable)
	require.ErrorIs(t, l.Ping(ctx), redis.ErrUnavailable)
}

func TestDial(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := redis.Dial(context.Background(), redis.Options{Addr: mr.Addr()})
	require.NoError(t, err)
	require.NoError(t, rdb.Close())

	addr := mr.Addr()
	mr.Close()
	_, err = redis.Dial(context.Background(), redis.Options{Addr: addr})
	require.ErrorIs(t, err, redis.ErrUnavailable)
}
