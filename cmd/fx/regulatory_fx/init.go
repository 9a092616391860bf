package regulatory_fx

import (
	"math/rand"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"koreafit/internal/config"
	"koreafit/internal/services"
	"koreafit/pkg/metrics"
)

var Module = fx.Provide(
	provideAnalyzer,
	provideUpdateSource,
	services.NewRegulatoryService,
)

func provideAnalyzer(cfg *config.Config, m *metrics.Collector) services.RegulatoryAnalyzer {
	seed := cfg.Regulatory.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return services.NewRegulatoryAnalyzer(rand.New(rand.NewSource(seed)), m)
}

// provideUpdateSource always includes the curated template feed so the
// newsletter has content even when every RSS source is down.
func provideUpdateSource(cfg *config.Config, log *zap.Logger) services.UpdateSource {
	feeds := []services.RegulatoryFeed{services.NewTemplateFeed()}
	for _, url := range cfg.Regulatory.FeedURLs {
		feeds = append(feeds, services.NewRSSFeed(url, cfg.Regulatory.FeedTimeout))
	}
	return services.NewCompositeFeed(log, feeds...)
}
