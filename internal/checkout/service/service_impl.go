package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/tsfshop/storefront/internal/checkout/domain"
	"github.com/tsfshop/storefront/internal/config"
	"github.com/tsfshop/storefront/internal/observability/metrics"
	paymentdomain "github.com/tsfshop/storefront/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const sessionPlaceholder = "{CHECKOUT_SESSION_ID}"

type Params struct {
	fx.In

	Log         *zap.Logger
	Config      config.Config
	Checkout    paymentdomain.CheckoutGateway
	Preferences paymentdomain.PreferenceGateway `optional:"true"`
	Metrics     *metrics.Metrics                `optional:"true"`
}

type Service struct {
	log         *zap.Logger
	checkout    paymentdomain.CheckoutGateway
	preferences paymentdomain.PreferenceGateway
	metrics     *metrics.Metrics
	successURL  string
	cancelURL   string
	currency    string
	mpCurrency  string
}

func New(p Params) domain.Service {
	return &Service{
		log:         p.Log.Named("checkout.service"),
		checkout:    p.Checkout,
		preferences: p.Preferences,
		metrics:     p.Metrics,
		successURL:  p.Config.SuccessURL,
		cancelURL:   p.Config.CancelURL,
		currency:    p.Config.Stripe.Currency,
		mpCurrency:  p.Config.MP.Currency,
	}
}

// CreateSession opens a Stripe hosted checkout for the cart.
func (s *Service) CreateSession(ctx context.Context, req domain.Request) (*domain.Result, error) {
	lines, err := normalize(req.Items)
	if err != nil {
		return nil, err
	}

	successURL := withSessionPlaceholder(firstNonEmpty(req.SuccessURL, s.successURL))
	cancelURL := firstNonEmpty(req.CancelURL, s.cancelURL)

	session, err := s.checkout.CreateSession(ctx, paymentdomain.SessionRequest{
		Items:      toLineItems(lines),
		Currency:   s.currency,
		Buyer:      buyer(req),
		Metadata:   metadata(req, lines),
		SuccessURL: successURL,
		CancelURL:  cancelURL,
	})
	if err != nil {
		s.metrics.RecordCheckoutSession(ctx, "stripe", outcome(err))
		s.log.Warn("checkout session failed", zap.Int("items", len(lines)), zap.Error(err))
		return nil, err
	}

	s.metrics.RecordCheckoutSession(ctx, "stripe", "created")
	s.log.Info("checkout session created", zap.String("session_id", session.ID), zap.Int("items", len(lines)))
	return &domain.Result{ID: session.ID, URL: session.URL}, nil
}

// CreatePreference opens a Mercado Pago checkout for the cart.
func (s *Service) CreatePreference(ctx context.Context, req domain.Request) (*domain.Result, error) {
	lines, err := normalize(req.Items)
	if err != nil {
		return nil, err
	}
	if s.preferences == nil {
		return nil, paymentdomain.ErrProviderNotConfigured
	}

	pref, err := s.preferences.CreatePreference(ctx, paymentdomain.PreferenceRequest{
		Items:      toLineItems(lines),
		Currency:   s.mpCurrency,
		Buyer:      buyer(req),
		Metadata:   metadata(req, lines),
		SuccessURL: firstNonEmpty(req.SuccessURL, s.successURL),
		CancelURL:  firstNonEmpty(req.CancelURL, s.cancelURL),
	})
	if err != nil {
		s.metrics.RecordCheckoutSession(ctx, "mercadopago", outcome(err))
		s.log.Warn("mercado pago preference failed", zap.Int("items", len(lines)), zap.Error(err))
		return nil, err
	}

	s.metrics.RecordCheckoutSession(ctx, "mercadopago", "created")
	s.log.Info("mercado pago preference created", zap.String("preference_id", pref.ID), zap.Int("items", len(lines)))
	return &domain.Result{ID: pref.ID, URL: pref.InitPoint}, nil
}

func normalize(items []domain.Item) ([]domain.CartLine, error) {
	if len(items) == 0 {
		return nil, domain.ErrEmptyCart
	}
	lines := make([]domain.CartLine, 0, len(items))
	for _, item := range items {
		line, err := item.Line()
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func toLineItems(lines []domain.CartLine) []paymentdomain.LineItem {
	out := make([]paymentdomain.LineItem, 0, len(lines))
	for _, line := range lines {
		out = append(out, paymentdomain.LineItem{
			ProductID:  line.ProductID,
			Name:       line.Name,
			UnitAmount: line.PriceCents,
			Quantity:   line.Quantity,
		})
	}
	return out
}

func buyer(req domain.Request) paymentdomain.Buyer {
	return paymentdomain.Buyer{
		Name:     strings.TrimSpace(req.BuyerName),
		Email:    strings.TrimSpace(req.BuyerEmail),
		WhatsApp: strings.TrimSpace(req.BuyerWhatsApp),
	}
}

// metadata is the only place the buyer contact details survive until fulfillment.
func metadata(req domain.Request, lines []domain.CartLine) map[string]string {
	b := buyer(req)
	md := map[string]string{
		"buyer_name":     b.Name,
		"buyer_email":    b.Email,
		"buyer_whatsapp": b.WhatsApp,
	}
	if cart, err := json.Marshal(lines); err == nil {
		md["cart"] = string(cart)
	}
	return md
}

func withSessionPlaceholder(url string) string {
	if url == "" || strings.Contains(url, sessionPlaceholder) {
		return url
	}
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "session_id=" + sessionPlaceholder
}

func outcome(err error) string {
	switch {
	case errors.Is(err, paymentdomain.ErrProviderNotConfigured):
		return "not_configured"
	case errors.Is(err, paymentdomain.ErrProviderFailure):
		return "provider_error"
	default:
		return "error"
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if v := strings.TrimSpace(value); v != "" {
			return v
		}
	}
	return ""
}
