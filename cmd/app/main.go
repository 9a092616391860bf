package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"koreafit/cmd/fx/config_fx"
	"koreafit/cmd/fx/controllers_fx"
	"koreafit/cmd/fx/dashboard"
	"koreafit/cmd/fx/db_fx"
	"koreafit/cmd/fx/ideas_fx"
	"koreafit/cmd/fx/mail_fx"
	"koreafit/cmd/fx/memcache_fx"
	"koreafit/cmd/fx/metrics_fx"
	"koreafit/cmd/fx/newsletter_fx"
	"koreafit/cmd/fx/prompt_fx"
	"koreafit/cmd/fx/regulatory_fx"
	"koreafit/cmd/fx/subscription_fx"
	"koreafit/internal/api/router"
	"koreafit/internal/config"
)

func main() {
	app := fx.New(
		config_fx.Module,
		metrics_fx.Module,
		db_fx.Module,
		memcache_fx.Module,
		mail_fx.Module,
		ideas_fx.Module,
		subscription_fx.Module,
		regulatory_fx.Module,
		newsletter_fx.Module,
		prompt_fx.Module,
		dashboard.Module,
		controllers_fx.Module,

		fx.Provide(router.New),
		fx.Invoke(StartServer),
	)

	app.Run()
}

func StartServer(lc fx.Lifecycle, cfg *config.Config, engine *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", srv.Addr, err)
			}
			log.Info("starting HTTP server", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("HTTP server stopped unexpectedly", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
