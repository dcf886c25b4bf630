package crm

import (
	"net/http"

	"github.com/tsfshop/storefront/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.crm",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, log *zap.Logger) Provider {
	return NewKommo(cfg.Kommo, &http.Client{Timeout: cfg.OutboundTimeout}, log)
}
