package main

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/spf13/cobra"
	catalogrepo "github.com/tsfshop/storefront/internal/catalog/repository"
	catalogservice "github.com/tsfshop/storefront/internal/catalog/service"
	"github.com/tsfshop/storefront/internal/config"
	"github.com/tsfshop/storefront/internal/kvstore"
	"go.uber.org/zap"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Catalog maintenance",
}

var seedFile string

var catalogSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write the seed catalog when none exists",
	Long: `Writes the product list from storefront.yml (or --file), falling back to
the built-in default catalog. An existing catalog is never overwritten.`,
	RunE: runCatalogSeed,
}

func init() {
	catalogSeedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "storefront config file holding catalog.products")
	catalogCmd.AddCommand(catalogSeedCmd)
}

func runCatalogSeed(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if seedFile != "" {
		cfg.StorefrontFile = seedFile
	}

	log, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	storefront, err := config.NewStorefrontHolder(cfg, log)
	if err != nil {
		return fmt.Errorf("load storefront config: %w", err)
	}
	store, err := kvstore.Open(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}
	svc := catalogservice.New(catalogservice.Params{
		Log:        log,
		GenID:      node,
		Repo:       catalogrepo.Provide(store, log),
		Storefront: storefront,
	})

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.OutboundTimeout)
	defer cancel()

	written, err := svc.Seed(ctx)
	if err != nil {
		return err
	}
	if written {
		fmt.Fprintln(cmd.OutOrStdout(), "catalog seeded")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "catalog already present, nothing written")
	}
	return nil
}
