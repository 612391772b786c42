package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/Leopold1975/staff_control/internal/pkg/config"
	"github.com/Leopold1975/staff_control/internal/pkg/redistools"
	"github.com/redis/go-redis/v9"
)

// LoginLimiter counts failed login attempts per username within
// a rolling window.
type LoginLimiter struct {
	rdb    *redis.Client
	window time.Duration
}

func New(ctx context.Context, cfg config.RedisCache, window time.Duration) (LoginLimiter, error) {
	rdb, err := redistools.Connect(ctx, cfg)
	if err != nil {
		return LoginLimiter{}, fmt.Errorf("connect error: %w", err)
	}

	return LoginLimiter{
		rdb:    rdb,
		window: window,
	}, nil
}

func (ll LoginLimiter) Inc(ctx context.Context, username string) (int64, error) {
	pipe := ll.rdb.TxPipeline()

	incr := pipe.Incr(ctx, attemptsKey(username))
	pipe.Expire(ctx, attemptsKey(username), ll.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("exec error: %w", err)
	}

	return incr.Val(), nil
}

func (ll LoginLimiter) Reset(ctx context.Context, username string) error {
	if err := ll.rdb.Del(ctx, attemptsKey(username)).Err(); err != nil {
		return fmt.Errorf("del error: %w", err)
	}

	return nil
}

func attemptsKey(username string) string {
	return "login:attempts:" + username
}
