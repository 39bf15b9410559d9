package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/constants"
	pkgerrors "github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/errors"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/logging"
)

// RedisConfig holds connection settings for the shared store.
type RedisConfig struct {
	Host       string
	Port       int
	DB         int
	Username   string
	Password   string
	DefaultTTL time.Duration
}

// Addr returns host:port.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Redis is a Store shared between processes.
type Redis struct {
	client     *redis.Client
	defaultTTL time.Duration
}

var _ Store = (*Redis)(nil)

// NewRedis connects to Redis. The connection is lazy; use Ping to check it.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	if cfg.Host == "" {
		return nil, pkgerrors.NewConfigError("redis", "host is required", nil)
	}
	if cfg.Port == 0 {
		cfg.Port = 6379
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewRedisFromClient(client, cfg.DefaultTTL), nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *redis.Client, defaultTTL time.Duration) *Redis {
	if defaultTTL <= 0 {
		defaultTTL = constants.CacheExpiration
	}
	return &Redis{client: client, defaultTTL: defaultTTL}
}

// Get implements Store.
func (r *Redis) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, pkgerrors.WrapIO("read", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, pkgerrors.WrapParse("json", key, err)
	}
	return true, nil
}

// Set implements Store. Failures are logged and reported as false; a cache
// write never fails the operation that produced the value.
func (r *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	logger := logging.FromContext(ctx)
	data, err := json.Marshal(value)
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Cache encode failed")
		return false
	}
	switch {
	case ttl == NoExpiration:
		ttl = 0
	case ttl <= 0:
		ttl = r.defaultTTL
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Cache write failed")
		return false
	}
	return true
}

// Delete implements Store.
func (r *Redis) Delete(ctx context.Context, key string) error {
	return pkgerrors.WrapIO("delete", key, r.client.Del(ctx, key).Err())
}

// Ping implements Store.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
