package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/sessionkit/pkg/config"
	"github.com/dmitrymomot/sessionkit/pkg/docstore"
	"github.com/dmitrymomot/sessionkit/pkg/docstore/mongostore"
	"github.com/dmitrymomot/sessionkit/pkg/docstore/pgstore"
	"github.com/dmitrymomot/sessionkit/pkg/docstore/redisstore"
	"github.com/dmitrymomot/sessionkit/pkg/httpserver"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

// backend is an opened document store with its readiness probe.
type backend struct {
	store docstore.Store
	check *httpserver.Check
	close func(context.Context) error
}

func openBackend(ctx context.Context, driver string, log *slog.Logger) (*backend, error) {
	log = log.With(logger.Driver(driver))

	switch driver {
	case driverMemory:
		log.WarnContext(ctx, "using in-memory store, sessions are lost on restart")
		return &backend{
			store: docstore.NewMemoryStore(),
			close: func(context.Context) error { return nil },
		}, nil

	case driverMongo:
		var cfg mongostore.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		client, err := mongostore.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.InfoContext(ctx, "connected to mongodb", slog.String("database", cfg.Database))
		return &backend{
			store: mongostore.New(client, cfg.Database),
			check: &httpserver.Check{Name: driver, Func: mongostore.Healthcheck(client)},
			close: client.Disconnect,
		}, nil

	case driverRedis:
		var cfg redisstore.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		client, err := redisstore.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.InfoContext(ctx, "connected to redis")
		return &backend{
			store: redisstore.New(client,
				redisstore.WithKeyPrefix(cfg.KeyPrefix),
				redisstore.WithMaxAttempts(cfg.MaxAttempts),
			),
			check: &httpserver.Check{Name: driver, Func: redisstore.Healthcheck(client)},
			close: func(context.Context) error { return client.Close() },
		}, nil

	case driverPostgres:
		var cfg pgstore.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		pool, err := pgstore.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := pgstore.Migrate(ctx, pool, cfg, log); err != nil {
			pool.Close()
			return nil, err
		}
		log.InfoContext(ctx, "connected to postgres")
		return &backend{
			store: pgstore.New(pool, cfg.TxMaxAttempts),
			check: &httpserver.Check{Name: driver, Func: pgstore.Healthcheck(pool)},
			close: func(context.Context) error { pool.Close(); return nil },
		}, nil

	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q, want memory, mongo, redis or postgres", driver)
	}
}
