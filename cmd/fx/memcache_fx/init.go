package memcache_fx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"koreafit/internal/config"
	"koreafit/internal/infra"
	"koreafit/internal/repositories"
	mem "koreafit/pkg/memcache"
)

var Module = fx.Provide(provideUsageRepository)

// provideUsageRepository prefers Redis and falls back to process-local
// counters when Redis is disabled or unreachable at startup.
func provideUsageRepository(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) repositories.UsageRepository {
	if !cfg.Redis.Enabled {
		log.Info("redis disabled, using in-process usage counters")
		return repositories.NewUsageRepository(mem.NewUsageCounters())
	}

	rdb, err := infra.InitRedis(context.Background(), cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable, using in-process usage counters", zap.Error(err))
		return repositories.NewUsageRepository(mem.NewUsageCounters())
	}
	lc.Append(fx.StopHook(rdb.Close))
	return repositories.NewRedisUsageRepository(rdb)
}
