package payment

import (
	"github.com/tsfshop/storefront/internal/payment/adapters/mercadopago"
	"github.com/tsfshop/storefront/internal/payment/adapters/stripe"
	"github.com/tsfshop/storefront/internal/payment/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.gateway",
	fx.Provide(stripe.New),
	fx.Provide(func(a *stripe.Adapter) domain.CheckoutGateway { return a }),
	fx.Provide(func(a *stripe.Adapter) domain.WebhookVerifier { return a }),
	fx.Provide(
		fx.Annotate(mercadopago.New, fx.As(new(domain.PreferenceGateway))),
	),
)
