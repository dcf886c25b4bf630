package fulfillment

import (
	"github.com/tsfshop/storefront/internal/fulfillment/repository"
	"github.com/tsfshop/storefront/internal/fulfillment/service"
	"github.com/tsfshop/storefront/internal/notification"
	"go.uber.org/fx"
)

var Module = fx.Module("fulfillment.service",
	fx.Provide(repository.Provide),
	fx.Provide(func(d *notification.Dispatcher) service.Notifier { return d }),
	fx.Provide(service.New),
)
