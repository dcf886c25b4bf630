package catalog

import (
	"github.com/bwmarrin/snowflake"
	"github.com/tsfshop/storefront/internal/catalog/repository"
	"github.com/tsfshop/storefront/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(newIDNode),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(service.NewAdminAuthorizer),
)

func newIDNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
