// Package router builds the gin engine and registers every route.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"koreafit/internal/api/controllers"
	"koreafit/internal/config"
	"koreafit/pkg/metrics"
	"koreafit/pkg/middleware"
)

type Params struct {
	fx.In

	Config  *config.Config
	Log     *zap.Logger
	Metrics *metrics.Collector

	Health       *controllers.HealthController
	Ideas        *controllers.IdeaController
	Export       *controllers.ExportController
	Subscription *controllers.SubscriptionController
	Regulatory   *controllers.RegulatoryController
	Content      *controllers.ContentController
	Newsletter   *controllers.NewsletterController
	Dashboard    *controllers.DashboardController
}

func New(p Params) *gin.Engine {
	if p.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.RequestLogger(p.Log, p.Metrics))
	r.Use(middleware.CORSMiddleware())

	RegisterRoutes(r, p)
	return r
}

func RegisterRoutes(r *gin.Engine, p Params) {
	auth := middleware.JWTAuthMiddleware(p.Config.Auth)
	optionalAuth := middleware.OptionalAuthMiddleware(p.Config.Auth)
	admin := middleware.AdminOnly()

	r.GET("/health", p.Health.Health)
	r.GET("/metrics", gin.WrapH(p.Metrics.Handler()))

	api := r.Group("/api")
	api.GET("/plans", p.Subscription.ListPlans)

	ideas := api.Group("/ideas")
	ideas.GET("", optionalAuth, p.Ideas.ListIdeas)
	ideas.GET("/:id", optionalAuth, p.Ideas.GetIdea)
	ideas.POST("", auth, admin, p.Ideas.CreateIdea)
	ideas.POST("/enhance", auth, admin, p.Ideas.EnhanceAll)
	ideas.POST("/:id/bookmark", auth, p.Ideas.ToggleBookmark)
	api.GET("/bookmarks", auth, p.Ideas.ListBookmarks)

	api.POST("/export", auth, p.Export.ExportIdeas)
	api.GET("/export", auth, p.Export.ExportStatus)

	api.POST("/analyze", p.Regulatory.Analyze)
	regulatory := api.Group("/regulatory")
	regulatory.GET("/updates", p.Regulatory.Updates)
	regulatory.GET("/alerts", auth, p.Regulatory.Alerts)

	api.POST("/content", auth, admin, p.Content.GenerateContent)
	api.POST("/notifications", optionalAuth, p.Content.Notify)
	api.PUT("/notifications", p.Content.DeliveryEvent)

	cron := api.Group("/cron", middleware.CronSecretMiddleware(p.Config.Secrets.CronSecret))
	cron.GET("/newsletter", p.Newsletter.RunNewsletterCron)
	cron.POST("/newsletter", p.Newsletter.RunNewsletterCron)

	sub := api.Group("/subscription")
	sub.GET("", auth, p.Subscription.GetSubscription)
	sub.POST("", auth, p.Subscription.Subscribe)
	sub.POST("/activate", auth, admin, p.Subscription.Activate)
	sub.DELETE("", auth, p.Subscription.Cancel)

	api.GET("/admin/dashboard", auth, admin, p.Dashboard.GetDashboard)
}
