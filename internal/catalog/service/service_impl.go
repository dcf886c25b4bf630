package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/tsfshop/storefront/internal/catalog/domain"
	"github.com/tsfshop/storefront/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       domain.Repository
	Storefront *config.StorefrontHolder `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	repo       domain.Repository
	genID      *snowflake.Node
	storefront *config.StorefrontHolder
}

func New(p Params) domain.Service {
	return &Service{
		log:        p.Log.Named("catalog.service"),
		repo:       p.Repo,
		genID:      p.GenID,
		storefront: p.Storefront,
	}
}

// ListPublic returns every product not explicitly deactivated.
func (s *Service) ListPublic(ctx context.Context) ([]domain.Product, error) {
	items, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]domain.Product, 0, len(items))
	for _, item := range items {
		if item.Active() {
			active = append(active, item)
		}
	}
	return active, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	return s.repo.Get(ctx)
}

func (s *Service) Create(ctx context.Context, req domain.ProductInput) (*domain.Product, error) {
	product, err := s.build(req)
	if err != nil {
		return nil, err
	}

	err = s.repo.Mutate(ctx, func(items []domain.Product) ([]domain.Product, error) {
		if domain.FindByID(items, product.ID) >= 0 {
			return nil, domain.ErrConflict
		}
		return append(items, product), nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("product created", zap.String("product_id", product.ID))
	return &product, nil
}

func (s *Service) Update(ctx context.Context, req domain.ProductInput) (*domain.Product, error) {
	id := domain.Trimmed(req.ID)
	if id == "" {
		return nil, domain.ErrInvalidID
	}

	var updated domain.Product
	err := s.repo.Mutate(ctx, func(items []domain.Product) ([]domain.Product, error) {
		idx := domain.FindByID(items, id)
		if idx < 0 {
			return nil, domain.ErrNotFound
		}
		merged, err := merge(items[idx], req)
		if err != nil {
			return nil, err
		}
		items[idx] = merged
		updated = merged
		return items, nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("product updated", zap.String("product_id", id))
	return &updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.ErrInvalidID
	}

	err := s.repo.Mutate(ctx, func(items []domain.Product) ([]domain.Product, error) {
		idx := domain.FindByID(items, id)
		if idx < 0 {
			return nil, domain.ErrNotFound
		}
		return append(items[:idx], items[idx+1:]...), nil
	})
	if err != nil {
		return err
	}

	s.log.Info("product deleted", zap.String("product_id", id))
	return nil
}

// Seed writes the configured seed list, or the default catalog, when no catalog exists yet.
func (s *Service) Seed(ctx context.Context) (bool, error) {
	products := domain.DefaultProducts()
	if s.storefront != nil {
		if raw := s.storefront.Get().Catalog.Products; len(raw) > 0 {
			seeded, err := s.fromSeedDocuments(raw)
			if err != nil {
				return false, err
			}
			products = seeded
		}
	}

	written, err := s.repo.SeedIfAbsent(ctx, products)
	if err != nil {
		return false, err
	}
	if written {
		s.log.Info("catalog seeded", zap.Int("products", len(products)))
	} else {
		s.log.Info("catalog already present, seed skipped")
	}
	return written, nil
}

func (s *Service) fromSeedDocuments(docs []map[string]any) ([]domain.Product, error) {
	products := make([]domain.Product, 0, len(docs))
	for i, doc := range docs {
		raw, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		var in domain.ProductInput
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, fmt.Errorf("seed product %d: %w", i, err)
		}
		product, err := s.build(in)
		if err != nil {
			return nil, fmt.Errorf("seed product %d: %w", i, err)
		}
		if domain.FindByID(products, product.ID) >= 0 {
			return nil, fmt.Errorf("seed product %d: %w", i, domain.ErrConflict)
		}
		products = append(products, product)
	}
	return products, nil
}

// build applies create defaults and validation.
func (s *Service) build(req domain.ProductInput) (domain.Product, error) {
	name := domain.Trimmed(req.Name)
	if name == "" {
		return domain.Product{}, domain.ErrInvalidName
	}
	if req.PriceCents == nil || req.PriceCents.Value() <= 0 {
		return domain.Product{}, domain.ErrInvalidPrice
	}

	productType := domain.ProductTypeOther
	if v := domain.Trimmed(req.Type); v != "" {
		productType = domain.ProductType(strings.ToLower(v))
	}
	if !productType.Valid() {
		return domain.Product{}, domain.ErrInvalidType
	}

	deliveryType := domain.DeliveryGeneratedAccess
	if v := domain.Trimmed(req.DeliveryType); v != "" {
		deliveryType = domain.DeliveryType(strings.ToLower(v))
	}
	if !deliveryType.Valid() {
		return domain.Product{}, domain.ErrInvalidDeliveryType
	}

	currency := strings.ToUpper(domain.Trimmed(req.Currency))
	if currency == "" {
		currency = domain.DefaultCurrency
	}

	id := domain.Trimmed(req.ID)
	if id == "" {
		id = s.generateID(name)
	}

	return domain.Product{
		ID:               id,
		Name:             name,
		Type:             productType,
		ShortDescription: domain.Trimmed(req.ShortDescription),
		PriceCents:       req.PriceCents.Value(),
		Currency:         currency,
		ImageURL:         domain.Trimmed(req.ImageURL),
		IsActive:         domain.BoolPtr(req.IsActive.Bool(true)),
		IsFeatured:       domain.BoolPtr(req.IsFeatured.Bool(true)),
		DeliveryType:     deliveryType,
		DeliveryValue:    domain.Trimmed(req.DeliveryValue),
		Instructions:     value(req.Instructions),
		PDFURL:           domain.Trimmed(req.PDFURL),
		EmailSubject:     value(req.EmailSubject),
		EmailBody:        value(req.EmailBody),
	}, nil
}

// generateID is slug(name) plus a base36 snowflake suffix.
func (s *Service) generateID(name string) string {
	base := slug.Make(name)
	if base == "" {
		base = "producto"
	}
	return base + "-" + s.genID.Generate().Base36()
}

// merge overlays the supplied fields; absent fields keep their value.
func merge(current domain.Product, req domain.ProductInput) (domain.Product, error) {
	out := current
	if req.Name != nil {
		name := domain.Trimmed(req.Name)
		if name == "" {
			return domain.Product{}, domain.ErrInvalidName
		}
		out.Name = name
	}
	if req.Type != nil {
		t := domain.ProductType(strings.ToLower(domain.Trimmed(req.Type)))
		if !t.Valid() {
			return domain.Product{}, domain.ErrInvalidType
		}
		out.Type = t
	}
	if req.DeliveryType != nil {
		d := domain.DeliveryType(strings.ToLower(domain.Trimmed(req.DeliveryType)))
		if !d.Valid() {
			return domain.Product{}, domain.ErrInvalidDeliveryType
		}
		out.DeliveryType = d
	}
	if req.PriceCents != nil {
		out.PriceCents = req.PriceCents.Value()
	}
	if req.Currency != nil {
		currency := strings.ToUpper(domain.Trimmed(req.Currency))
		if currency == "" {
			currency = domain.DefaultCurrency
		}
		out.Currency = currency
	}
	if req.IsActive != nil {
		out.IsActive = domain.BoolPtr(req.IsActive.Bool(true))
	}
	if req.IsFeatured != nil {
		out.IsFeatured = domain.BoolPtr(req.IsFeatured.Bool(true))
	}
	if req.ShortDescription != nil {
		out.ShortDescription = domain.Trimmed(req.ShortDescription)
	}
	if req.ImageURL != nil {
		out.ImageURL = domain.Trimmed(req.ImageURL)
	}
	if req.DeliveryValue != nil {
		out.DeliveryValue = domain.Trimmed(req.DeliveryValue)
	}
	if req.Instructions != nil {
		out.Instructions = *req.Instructions
	}
	if req.PDFURL != nil {
		out.PDFURL = domain.Trimmed(req.PDFURL)
	}
	if req.EmailSubject != nil {
		out.EmailSubject = *req.EmailSubject
	}
	if req.EmailBody != nil {
		out.EmailBody = *req.EmailBody
	}
	return out, nil
}

func value(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
