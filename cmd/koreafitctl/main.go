package main

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"koreafit/cmd/fx/config_fx"
	"koreafit/cmd/fx/db_fx"
	"koreafit/cmd/fx/ideas_fx"
	"koreafit/cmd/fx/mail_fx"
	"koreafit/cmd/fx/memcache_fx"
	"koreafit/cmd/fx/metrics_fx"
	"koreafit/cmd/fx/newsletter_fx"
	"koreafit/cmd/fx/regulatory_fx"
	"koreafit/cmd/fx/subscription_fx"
)

var version = "dev"

var (
	configPath string
	timeout    time.Duration
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "koreafitctl",
	Short:         "Korea Fit operations tool",
	Long:          "koreafitctl seeds and re-scores the idea catalog, runs regulatory analyses and previews or sends the weekly newsletter.",
	Version:       version,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if configPath != "" {
			config_fx.ConfigPath = configPath
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: $KOREAFIT_CONFIG)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Overall command timeout")

	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(enhanceCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(newsletterCmd)
}

// run builds the same dependency graph as the API server minus HTTP, fills
// targets and runs fn. fx only constructs what targets need, so analyze
// never opens a database connection.
func run(fn func(ctx context.Context) error, targets ...any) error {
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
		fx.Populate(targets...),
		fx.NopLogger,
	)
	if err := app.Err(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := app.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		_ = app.Stop(stopCtx)
	}()
	return fn(ctx)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
