package app

import (
	"context"

	"github.com/rs/zerolog"

	etl "github.com/BEN-DataDev/orgs-sveltekit-etl"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/cache"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/export"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/metrics"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/sinks/postgres"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/sinks/sqlite"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/sources/abn"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/sources/acnc"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/sources/nsw"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/constants"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/sources"
)

// buildClient assembles the ETL client from configuration. The returned
// closers release pools and connections and run in reverse order on shutdown.
func buildClient(cfg *Config, m *metrics.Metrics, logger *zerolog.Logger) (etl.Client, []func() error, error) {
	ctx, cancel := context.WithTimeout(context.Background(), constants.DefaultHTTPTimeout)
	defer cancel()

	var closers []func() error
	fail := func(err error) (etl.Client, []func() error, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
		return nil, nil, err
	}

	opts := []etl.Option{etl.WithConcurrency(max(cfg.SyncConcurrency, 1))}
	if cfg.CacheExpiration > 0 {
		opts = append(opts, etl.WithSourceTTL(cfg.CacheExpiration))
	}

	registry := sources.NewRegistry(
		acnc.New(),
		nsw.New(nsw.WithDelay(cfg.NSWRequestDelay)),
	)
	if cfg.ABNSearchGUID != "" {
		client := abn.New(cfg.ABNSearchGUID)
		registry.Set(client)
		opts = append(opts, etl.WithABNLookup(client))
	} else {
		logger.Warn().Msg("PRIVATE_ABN_SEARCH_GUID not set; ABN source and lookups disabled")
	}
	opts = append(opts, etl.WithRegistry(registry))

	store, closeCache := buildCache(ctx, cfg, logger)
	if closeCache != nil {
		closers = append(closers, closeCache)
	}
	opts = append(opts, etl.WithCache(store))

	if cfg.DatabaseURL != "" {
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() error { pool.Close(); return nil })

		sink := postgres.New(pool)
		if err := sink.EnsureSchema(ctx); err != nil {
			return fail(err)
		}
		opts = append(opts, etl.WithSinks(sink))
		logger.Info().Msg("Postgres sink enabled")
	}

	if cfg.SQLitePath != "" {
		sink, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, sink.Close)
		opts = append(opts, etl.WithSinks(sink))
		logger.Info().Str("path", cfg.SQLitePath).Msg("SQLite sink enabled")
	}

	if cfg.ExportDir != "" {
		opts = append(opts, etl.WithExportDir(cfg.ExportDir), etl.WithReports(cfg.Reports))
	}

	if cfg.S3Endpoint != "" {
		uploader, err := export.NewS3(export.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Region:    cfg.S3Region,
			UseSSL:    cfg.S3UseSSL,
			Prefix:    cfg.S3Prefix,
		})
		if err != nil {
			return fail(err)
		}
		opts = append(opts, etl.WithUploader(uploader))
	}

	if m != nil {
		opts = append(opts, etl.WithMetrics(m))
	}

	client, err := etl.New(opts...)
	if err != nil {
		return fail(err)
	}
	return client, closers, nil
}

// buildCache prefers Redis when REDIS_HOST is set and reachable, and falls
// back to the in-process cache otherwise.
func buildCache(ctx context.Context, cfg *Config, logger *zerolog.Logger) (cache.Store, func() error) {
	memory := func() cache.Store {
		return cache.NewMemory(cfg.CacheExpiration, constants.CacheCleanupInterval)
	}
	if cfg.RedisHost == "" {
		return memory(), nil
	}

	redis, err := cache.NewRedis(cache.RedisConfig{
		Host:       cfg.RedisHost,
		Port:       cfg.RedisPort,
		DB:         cfg.RedisDB,
		Username:   cfg.RedisUsername,
		Password:   cfg.RedisPassword,
		DefaultTTL: cfg.CacheExpiration,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Invalid Redis configuration, using in-memory cache")
		return memory(), nil
	}
	if err := redis.Ping(ctx); err != nil {
		_ = redis.Close()
		logger.Warn().Err(err).Str("host", cfg.RedisHost).Msg("Redis unavailable, using in-memory cache")
		return memory(), nil
	}
	logger.Info().Str("host", cfg.RedisHost).Int("db", cfg.RedisDB).Msg("Redis cache connected")
	return redis, redis.Close
}
