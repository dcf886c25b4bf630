package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/tsfshop/storefront/internal/access/domain"
	"github.com/tsfshop/storefront/internal/clock"
	"github.com/tsfshop/storefront/internal/config"
	"github.com/tsfshop/storefront/internal/providers/pdf"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const maxIssueAttempts = 3

type Params struct {
	fx.In

	Log        *zap.Logger
	Config     config.Config
	Repo       domain.Repository
	PDF        pdf.Provider
	Clock      clock.Clock
	Storefront *config.StorefrontHolder `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	repo       domain.Repository
	pdf        pdf.Provider
	clock      clock.Clock
	storefront *config.StorefrontHolder
	baseURL    string
	newToken   func() (string, error)
}

func New(p Params) domain.Service {
	return &Service{
		log:        p.Log.Named("access.service"),
		repo:       p.Repo,
		pdf:        p.PDF,
		clock:      p.Clock,
		storefront: p.Storefront,
		baseURL:    p.Config.AccessBaseURL,
		newToken:   generateToken,
	}
}

func (s *Service) Lookup(ctx context.Context, token string) (*domain.Record, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrInvalidToken
	}
	return s.repo.FindByToken(ctx, token)
}

// Issue persists a record under a fresh token. Tokens are never reused.
func (s *Service) Issue(ctx context.Context, req domain.IssueRequest) (*domain.Record, error) {
	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		token, err := s.newToken()
		if err != nil {
			return nil, fmt.Errorf("generate access token: %w", err)
		}

		rec := domain.Record{
			Token:         token,
			ProductID:     req.ProductID,
			ProductName:   req.ProductName,
			Email:         req.Email,
			CreatedAt:     s.clock.Now(),
			DeliveryType:  req.DeliveryType,
			DeliveryValue: req.DeliveryValue,
			Instructions:  req.Instructions,
			PDFURL:        req.PDFURL,
			SessionID:     req.SessionID,
			PriceCents:    req.PriceCents,
			Currency:      req.Currency,
		}

		stored, err := s.repo.Create(ctx, rec)
		if err != nil {
			return nil, err
		}
		if stored {
			return &rec, nil
		}
		s.log.Warn("access token collision, regenerating", zap.Int("attempt", attempt+1))
	}
	return nil, domain.ErrTokenCollisions
}

func (s *Service) Receipt(ctx context.Context, token string) (io.Reader, error) {
	rec, err := s.Lookup(ctx, token)
	if err != nil {
		return nil, err
	}

	brand := s.storefront.Get().Brand
	data := pdf.ReceiptData{
		StoreName:     brand.Name,
		Signature:     strings.TrimSpace(brand.Signature + " - " + brand.SignatureOrg),
		Token:         rec.Token,
		AccessURL:     s.AccessURL(rec.Token),
		ProductID:     rec.ProductID,
		ProductName:   rec.ProductName,
		Email:         rec.Email,
		IssuedAt:      rec.CreatedAt.UTC().Format("2006-01-02 15:04 MST"),
		Amount:        FormatAmount(rec.PriceCents, rec.Currency),
		DeliveryType:  rec.DeliveryType,
		DeliveryValue: rec.DeliveryValue,
		Instructions:  rec.Instructions,
		PDFURL:        rec.PDFURL,
	}
	return s.pdf.GenerateReceipt(ctx, data)
}

// AccessURL is the public page that resolves token.
func (s *Service) AccessURL(token string) string {
	base := s.baseURL
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "token=" + url.QueryEscape(token)
}

// FormatAmount renders integer cents as "USD 49.00"; zero yields "".
func FormatAmount(cents int64, currency string) string {
	if cents <= 0 {
		return ""
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	amount := fmt.Sprintf("%d.%02d", cents/100, cents%100)
	if currency == "" {
		return amount
	}
	return currency + " " + amount
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
