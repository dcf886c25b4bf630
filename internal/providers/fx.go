package providers

import (
	"github.com/tsfshop/storefront/internal/providers/crm"
	"github.com/tsfshop/storefront/internal/providers/email"
	"github.com/tsfshop/storefront/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	crm.Module,
	pdf.Module,
)
