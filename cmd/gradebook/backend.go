package main

import (
	"context"
	"fmt"

	"github.com/alem-hub/gradebook/config"
	"github.com/alem-hub/gradebook/internal/domain/progress"
	"github.com/alem-hub/gradebook/internal/domain/record"
	"github.com/alem-hub/gradebook/internal/infrastructure/persistence/jsonfile"
	"github.com/alem-hub/gradebook/internal/infrastructure/persistence/postgres"
	redisstore "github.com/alem-hub/gradebook/internal/infrastructure/persistence/redis"
	"github.com/alem-hub/gradebook/pkg/logger"
)

// backend bundles the stores of the configured storage backend.
type backend struct {
	name     string
	records  record.Store
	progress progress.Store
	close    func() error
}

func openBackend(ctx context.Context, cfg *config.Config, log *logger.Logger) (*backend, error) {
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		pgCfg := postgres.DefaultConfig()
		pgCfg.URL = cfg.Database.URL
		pgCfg.MaxOpenConns = cfg.Database.MaxOpenConns
		pgCfg.MaxIdleConns = cfg.Database.MaxIdleConns
		pgCfg.ConnMaxLifetime = cfg.Database.ConnMaxLifetime
		pgCfg.QueryTimeout = cfg.Database.QueryTimeout

		conn, err := postgres.Open(ctx, pgCfg, log)
		if err != nil {
			return nil, fmt.Errorf("%s backend: %w", postgres.BackendName, err)
		}
		store := postgres.NewRecordStore(conn)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("%s backend: schema: %w", postgres.BackendName, err)
		}
		// Study progress is personal, so it stays on local disk.
		return &backend{
			name:     postgres.BackendName,
			records:  store,
			progress: jsonfile.NewProgressStore(cfg.Storage.ProgressPath),
			close:    conn.Close,
		}, nil

	case config.BackendRedis:
		rCfg := redisstore.DefaultConfig()
		rCfg.Addr = cfg.Redis.Addr
		rCfg.Password = cfg.Redis.Password
		rCfg.DB = cfg.Redis.DB
		rCfg.KeyPrefix = cfg.Redis.KeyPrefix
		rCfg.DialTimeout = cfg.Redis.DialTimeout

		client, err := redisstore.Open(ctx, rCfg, log)
		if err != nil {
			return nil, fmt.Errorf("%s backend: %w", redisstore.BackendName, err)
		}
		return &backend{
			name:     redisstore.BackendName,
			records:  redisstore.NewRecordStore(client),
			progress: redisstore.NewProgressStore(client),
			close:    client.Close,
		}, nil

	case config.BackendFile:
		return &backend{
			name:     jsonfile.BackendName,
			records:  jsonfile.NewRecordStore(cfg.Storage.Path),
			progress: jsonfile.NewProgressStore(cfg.Storage.ProgressPath),
			close:    func() error { return nil },
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
