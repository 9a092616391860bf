package config_fx

import (
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"koreafit/internal/config"
	"koreafit/internal/infra"
)

// ConfigPath is overridden by the CLI --config flag.
var ConfigPath = os.Getenv("KOREAFIT_CONFIG")

var Module = fx.Options(
	fx.Provide(provideConfig, provideLogger),
	fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
		return &fxevent.ZapLogger{Logger: log.Named("fx")}
	}),
)

func provideConfig() (*config.Config, error) {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()
	return config.Load(ConfigPath)
}

func provideLogger(lc fx.Lifecycle, cfg *config.Config) (*zap.Logger, error) {
	log, err := infra.NewLogger(cfg.Log, cfg.App.Name)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(func() { _ = log.Sync() }))
	return log, nil
}
