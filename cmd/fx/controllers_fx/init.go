package controllers_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"koreafit/internal/api/controllers"
	"koreafit/internal/config"
)

var Module = fx.Options(
	fx.Provide(controllers.NewIdeaController),
	fx.Provide(controllers.NewExportController),
	fx.Provide(controllers.NewSubscriptionController),
	fx.Provide(controllers.NewRegulatoryController),
	fx.Provide(controllers.NewContentController),
	fx.Provide(controllers.NewNewsletterController),
	fx.Provide(controllers.NewDashboardController),
	fx.Provide(provideHealthController))

func provideHealthController(db *gorm.DB, cfg *config.Config) *controllers.HealthController {
	return controllers.NewHealthController(db, cfg.App.Name)
}
