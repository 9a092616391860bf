package prompt_fx

import (
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"koreafit/internal/config"
	"koreafit/internal/services"
	"koreafit/pkg/utils"
)

var Module = fx.Provide(
	ProvideTextGenerator,
	ProvideContentService,
	services.NewNotificationService,
)

// ProvideTextGenerator returns nil for the template provider; the content
// service then renders static templates only.
func ProvideTextGenerator(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (utils.TextGenerator, error) {
	var apiKey, model string
	switch strings.ToLower(cfg.Content.Provider) {
	case services.ProviderOpenAI:
		apiKey, model = cfg.Content.OpenAIKey, cfg.Content.OpenAIModel
	case services.ProviderGemini:
		apiKey, model = cfg.Content.GeminiKey, cfg.Content.GeminiModel
	default:
		return nil, nil
	}

	log.Info("initializing content writer", zap.String("provider", cfg.Content.Provider), zap.String("model", model))
	gen, err := utils.NewTextGenerator(cfg.Content.Provider, apiKey, model)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(gen.Close))
	return gen, nil
}

func ProvideContentService(
	newsletter services.NewsletterService,
	regulatory services.RegulatoryService,
	ideas services.IdeaService,
	writer utils.TextGenerator,
	cfg *config.Config,
	log *zap.Logger,
) services.ContentService {
	return services.NewContentService(newsletter, regulatory, ideas, writer, cfg.Content, log)
}
