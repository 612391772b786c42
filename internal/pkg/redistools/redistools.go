package redistools

import (
	"context"
	"fmt"
	"time"

	"github.com/Leopold1975/staff_control/internal/pkg/config"
	"github.com/redis/go-redis/v9"
)

const maxPingDelay = time.Second * 10

func Connect(ctx context.Context, cfg config.RedisCache) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{ //nolint:exhaustruct
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	errCh := make(chan error)
	go func() {
		defer close(errCh)

		delay := time.Second

		for {
			if err := rdb.Ping(ctx).Err(); err != nil {
				time.Sleep(delay)
				delay += time.Second

				if delay > maxPingDelay {
					errCh <- fmt.Errorf("cannot ping redis db error: %w", err)

					return
				}

				continue
			}

			break
		}
	}()
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("context error: %w", ctx.Err())
	case err := <-errCh:
		if err != nil {
			return nil, err
		}

		return rdb, nil
	}
}
