package newsletter_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"koreafit/internal/config"
	"koreafit/internal/repositories"
	"koreafit/internal/services"
	"koreafit/pkg/metrics"
)

var Module = fx.Provide(provideNewsletterService)

func provideNewsletterService(
	regulatory services.RegulatoryService,
	ideas services.IdeaService,
	subscribers repositories.NewsletterSubscriberRepository,
	mail services.IMailService,
	cfg *config.Config,
	m *metrics.Collector,
	log *zap.Logger,
) services.NewsletterService {
	return services.NewNewsletterService(regulatory, ideas, subscribers, mail, cfg.Newsletter, cfg.Secrets.TestEmail, m, log)
}
