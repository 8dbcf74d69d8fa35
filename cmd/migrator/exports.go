package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/user/asset-migrator/internal/adapter/postgres"
	redis_adapter "github.com/user/asset-migrator/internal/adapter/redis"
)

const connectTimeout = 10 * time.Second

// exports holds the optional write-only export stores configured for a run.
type exports struct {
	postgres *postgres.ExportStore
	redis    *redis_adapter.Publisher
}

// openExports connects the configured exports. A store that cannot be reached
// is logged and left out; exports never fail a run.
func (a *app) openExports(ctx context.Context) *exports {
	e := &exports{}

	if a.cfg.PostgresURL != "" {
		cctx, cancel := context.WithTimeout(ctx, connectTimeout)
		store, err := postgres.NewExportStore(cctx, a.cfg.PostgresURL)
		cancel()
		if err != nil {
			a.logger.Error("postgres export disabled", zap.Error(err))
			a.metrics.IncErrors("sink")
		} else {
			a.logger.Info("postgres export enabled")
			e.postgres = store
		}
	}

	if a.cfg.RedisAddr != "" {
		cctx, cancel := context.WithTimeout(ctx, connectTimeout)
		pub, err := redis_adapter.NewPublisher(cctx, a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB, a.cfg.RedisKeyPrefix)
		cancel()
		if err != nil {
			a.logger.Error("redis export disabled", zap.String("addr", a.cfg.RedisAddr), zap.Error(err))
			a.metrics.IncErrors("sink")
		} else {
			a.logger.Info("redis export enabled", zap.String("addr", a.cfg.RedisAddr))
			e.redis = pub
		}
	}
	return e
}

func (e *exports) close() {
	if e.postgres != nil {
		e.postgres.Close()
	}
	if e.redis != nil {
		_ = e.redis.Close()
	}
}
