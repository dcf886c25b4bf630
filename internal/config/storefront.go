package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Storefront is the hot-reloadable part of the configuration, read from storefront.yml.
type Storefront struct {
	Brand   Brand       `mapstructure:"brand"`
	Catalog CatalogSeed `mapstructure:"catalog"`
}

type Brand struct {
	Name         string `mapstructure:"name"`
	FromName     string `mapstructure:"fromName"`
	ReplyTo      string `mapstructure:"replyTo"`
	Subject      string `mapstructure:"subject"`
	ProductTitle string `mapstructure:"productSubject"`
	Signature    string `mapstructure:"signature"`
	SignatureOrg string `mapstructure:"signatureOrg"`
}

// CatalogSeed holds raw product documents; the catalog package normalizes them.
type CatalogSeed struct {
	Products []map[string]any `mapstructure:"products"`
}

func DefaultStorefront() Storefront {
	return Storefront{
		Brand: Brand{
			Name:         "TRADING SIN FRONTERAS SHOP",
			FromName:     "Trading Sin Fronteras",
			Subject:      "Tu acceso a TRADING SIN FRONTERAS SHOP",
			ProductTitle: "Tu compra en Trading Sin Fronteras - %s",
			Signature:    "Rodrigo Pérez",
			SignatureOrg: "Trading Sin Fronteras - TSF SHOP",
		},
	}
}

type StorefrontHolder struct {
	current atomic.Value // holds Storefront
}

// NewStorefrontHolder reads storefront.yml from the usual locations, or the
// explicit file when path is set, and keeps it fresh on change.
func NewStorefrontHolder(cfg Config, log *zap.Logger) (*StorefrontHolder, error) {
	v := viper.New()
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("config.storefront")

	if path := strings.TrimSpace(cfg.StorefrontFile); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("storefront")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/tsfshop")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("TSFSHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultStorefront()
	v.SetDefault("brand.name", defaults.Brand.Name)
	v.SetDefault("brand.fromName", defaults.Brand.FromName)
	v.SetDefault("brand.subject", defaults.Brand.Subject)
	v.SetDefault("brand.productSubject", defaults.Brand.ProductTitle)
	v.SetDefault("brand.signature", defaults.Brand.Signature)
	v.SetDefault("brand.signatureOrg", defaults.Brand.SignatureOrg)

	found := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		found = false
	}

	cfgValue, err := decodeStorefront(v)
	if err != nil {
		return nil, err
	}

	holder := &StorefrontHolder{}
	holder.current.Store(cfgValue)

	if !found {
		log.Debug("storefront.yml not found, using defaults")
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeStorefront(v)
		if err != nil {
			log.Warn("storefront config reload failed", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("storefront config reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

// StaticStorefront wraps a fixed value, mainly for tests and one-shot commands.
func StaticStorefront(s Storefront) *StorefrontHolder {
	holder := &StorefrontHolder{}
	holder.current.Store(s)
	return holder
}

func (h *StorefrontHolder) Get() Storefront {
	if h == nil {
		return DefaultStorefront()
	}
	return h.current.Load().(Storefront)
}

func decodeStorefront(v *viper.Viper) (Storefront, error) {
	var cfg Storefront
	if err := v.Unmarshal(&cfg); err != nil {
		return Storefront{}, err
	}
	if err := validateStorefront(cfg); err != nil {
		return Storefront{}, err
	}
	return cfg, nil
}

func validateStorefront(cfg Storefront) error {
	if strings.TrimSpace(cfg.Brand.Name) == "" {
		return errors.New("brand.name cannot be empty")
	}
	if strings.TrimSpace(cfg.Brand.Subject) == "" {
		return errors.New("brand.subject cannot be empty")
	}
	for i, p := range cfg.Catalog.Products {
		if _, ok := p["name"]; !ok {
			return fmt.Errorf("catalog.products[%d].name is required", i)
		}
	}
	return nil
}
