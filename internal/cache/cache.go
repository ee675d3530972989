// Package cache holds short-lived markers in redis, such as the per-client
// contact form throttle.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/greencrop/storefront/internal/config"
)

const keyPrefix = "storefront:"

// ErrEmptyKey is returned for operations on a blank key.
var ErrEmptyKey = errors.New("cache key is required")

// Store claims and releases expiring keys. Reserve succeeds only for the
// first caller until the key expires or is deleted.
type Store interface {
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}

// Module provides the cache store to the Fx graph.
var Module = fx.Provide(NewStore)

// NewStore initialises the configured cache store (redis or noop).
func NewStore(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Cache.Driver {
	case "noop":
		logger.Info("cache disabled; throttles are off")
		return noopStore{}, nil
	case "redis":
		return newRedisStore(lc, cfg.Cache, logger), nil
	default:
		return nil, fmt.Errorf("unsupported cache driver: %s", cfg.Cache.Driver)
	}
}

type noopStore struct{}

func (noopStore) Reserve(context.Context, string, time.Duration) (bool, error) {
	return true, nil
}

func (noopStore) Delete(context.Context, string) error {
	return nil
}

type redisStore struct {
	client     *goredis.Client
	defaultTTL time.Duration
}

// newRedisStore does not fail startup when redis is down: callers treat
// Reserve errors as "not throttled".
func newRedisStore(lc fx.Lifecycle, cfg config.Cache, logger *zap.Logger) *redisStore {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				logger.Warn("redis not reachable at startup", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
				return nil
			}
			logger.Info("redis cache connected", zap.String("addr", cfg.Redis.Addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("closing redis cache")
			return client.Close()
		},
	})

	return &redisStore{client: client, defaultTTL: cfg.DefaultTTL}
}

func (s *redisStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	return s.client.SetNX(ctx, keyPrefix+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return s.client.Del(ctx, keyPrefix+key).Err()
}
