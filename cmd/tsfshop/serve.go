package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/tsfshop/storefront/internal/access"
	"github.com/tsfshop/storefront/internal/catalog"
	catalogdomain "github.com/tsfshop/storefront/internal/catalog/domain"
	"github.com/tsfshop/storefront/internal/checkout"
	"github.com/tsfshop/storefront/internal/clock"
	"github.com/tsfshop/storefront/internal/config"
	"github.com/tsfshop/storefront/internal/fulfillment"
	"github.com/tsfshop/storefront/internal/kvstore"
	"github.com/tsfshop/storefront/internal/notification"
	"github.com/tsfshop/storefront/internal/observability"
	"github.com/tsfshop/storefront/internal/payment"
	"github.com/tsfshop/storefront/internal/providers"
	"github.com/tsfshop/storefront/internal/ratelimit"
	"github.com/tsfshop/storefront/internal/server"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		clock.Module,
		kvstore.Module,
		ratelimit.Module,

		// Domains
		catalog.Module,
		access.Module,
		payment.Module,
		checkout.Module,
		providers.Module,
		notification.Module,
		fulfillment.Module,

		server.Module,
		fx.Invoke(seedOnStart),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
	)
	app.Run()
	return app.Err()
}

func seedOnStart(lc fx.Lifecycle, cfg config.Config, svc catalogdomain.Service, log *zap.Logger) {
	if !cfg.CatalogSeedOnStart {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if _, err := svc.Seed(ctx); err != nil {
				log.Warn("catalog seed on start failed", zap.Error(err))
			}
			return nil
		},
	})
}
