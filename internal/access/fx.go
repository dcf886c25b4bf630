package access

import (
	"github.com/tsfshop/storefront/internal/access/repository"
	"github.com/tsfshop/storefront/internal/access/service"
	"go.uber.org/fx"
)

var Module = fx.Module("access.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
