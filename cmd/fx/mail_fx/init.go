package mail_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"koreafit/internal/config"
	"koreafit/internal/services"
	"koreafit/pkg/metrics"
)

var Module = fx.Provide(provideMailService)

func provideMailService(cfg *config.Config, m *metrics.Collector, log *zap.Logger) services.IMailService {
	mailService := services.NewSMTPMailService(services.SMTPConfigFrom(cfg), m, log)
	if mailService.Simulated() {
		log.Warn("RESEND_API_KEY not set, outgoing mail is simulated")
	}
	return mailService
}
