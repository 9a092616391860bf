package db_fx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"koreafit/internal/config"
	"koreafit/internal/infra"
	"koreafit/internal/repositories"
)

var Module = fx.Provide(
	provideDB,
	repositories.NewIdeaRepository,
	repositories.NewBookmarkRepository,
	repositories.NewSubscriptionRepository,
	repositories.NewNewsletterSubscriberRepository,
)

func provideDB(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := infra.InitPostgresql(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			infra.ClosePostgresql(db, log)
			return nil
		},
	})
	return db, nil
}
