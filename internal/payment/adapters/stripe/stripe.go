package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	stripego "github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/client"
	"github.com/stripe/stripe-go/v80/webhook"
	"github.com/tsfshop/storefront/internal/config"
	paymentdomain "github.com/tsfshop/storefront/internal/payment/domain"
	"go.uber.org/zap"
)

const (
	Provider = "stripe"

	productIDMetadataKey = "product_id"
	metadataValueLimit   = 500
)

type Adapter struct {
	api           *client.API
	secretKey     string
	webhookSecret string
	currency      string
	log           *zap.Logger
}

func New(cfg config.Config, log *zap.Logger) *Adapter {
	timeout := cfg.OutboundTimeout
	backend := stripego.GetBackendWithConfig(stripego.APIBackend, &stripego.BackendConfig{
		HTTPClient:    &http.Client{Timeout: timeout},
		LeveledLogger: &stripego.LeveledLogger{Level: stripego.LevelError},
	})
	return NewWithBackends(cfg.Stripe, &stripego.Backends{API: backend, Connect: backend, Uploads: backend}, log)
}

// NewWithBackends builds an adapter against explicit Stripe backends.
func NewWithBackends(cfg config.StripeConfig, backends *stripego.Backends, log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	currency := strings.ToLower(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = "usd"
	}
	return &Adapter{
		api:           client.New(cfg.SecretKey, backends),
		secretKey:     strings.TrimSpace(cfg.SecretKey),
		webhookSecret: strings.TrimSpace(cfg.WebhookSecret),
		currency:      currency,
		log:           log.Named("payment.stripe"),
	}
}

func (a *Adapter) CreateSession(ctx context.Context, req paymentdomain.SessionRequest) (*paymentdomain.Session, error) {
	if a.secretKey == "" {
		return nil, paymentdomain.ErrProviderNotConfigured
	}

	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = a.currency
	}

	params := &stripego.CheckoutSessionParams{
		Mode:       stripego.String(string(stripego.CheckoutSessionModePayment)),
		SuccessURL: stripego.String(req.SuccessURL),
		CancelURL:  stripego.String(req.CancelURL),
	}
	params.Context = ctx

	for _, item := range req.Items {
		quantity := item.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		line := &stripego.CheckoutSessionLineItemParams{
			PriceData: &stripego.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripego.String(currency),
				UnitAmount: stripego.Int64(item.UnitAmount),
				ProductData: &stripego.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripego.String(item.Name),
				},
			},
			Quantity: stripego.Int64(quantity),
		}
		if id := strings.TrimSpace(item.ProductID); id != "" {
			line.PriceData.ProductData.Metadata = map[string]string{productIDMetadataKey: id}
		}
		params.LineItems = append(params.LineItems, line)
	}

	if email := strings.TrimSpace(req.Buyer.Email); email != "" {
		params.CustomerEmail = stripego.String(email)
	}
	for key, value := range req.Metadata {
		if len(value) > metadataValueLimit {
			a.log.Warn("metadata value too long for stripe, dropped", zap.String("key", key), zap.Int("length", len(value)))
			continue
		}
		params.AddMetadata(key, value)
	}

	session, err := a.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, providerError(err)
	}
	return toSession(session), nil
}

// GetSession fetches a session with its line items and their products expanded.
func (a *Adapter) GetSession(ctx context.Context, id string) (*paymentdomain.Session, error) {
	if a.secretKey == "" {
		return nil, paymentdomain.ErrProviderNotConfigured
	}

	params := &stripego.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("line_items")
	params.AddExpand("line_items.data.price.product")

	session, err := a.api.CheckoutSessions.Get(id, params)
	if err != nil {
		return nil, providerError(err)
	}

	out := toSession(session)
	if session.LineItems != nil && session.LineItems.HasMore {
		items, err := a.listLineItems(ctx, id)
		if err != nil {
			return nil, err
		}
		out.LineItems = items
	}
	return out, nil
}

func (a *Adapter) listLineItems(ctx context.Context, id string) ([]paymentdomain.SessionLineItem, error) {
	params := &stripego.CheckoutSessionListLineItemsParams{Session: stripego.String(id)}
	params.Context = ctx
	params.Limit = stripego.Int64(100)
	params.AddExpand("data.price.product")

	var items []paymentdomain.SessionLineItem
	iter := a.api.CheckoutSessions.ListLineItems(params)
	for iter.Next() {
		items = append(items, toLineItem(iter.LineItem()))
	}
	if err := iter.Err(); err != nil {
		return nil, providerError(err)
	}
	return items, nil
}

func (a *Adapter) Enabled() bool {
	return a.webhookSecret != ""
}

// ConstructEvent verifies the Stripe-Signature header against the raw body.
func (a *Adapter) ConstructEvent(payload []byte, signature string) (*paymentdomain.WebhookEvent, error) {
	if !a.Enabled() {
		return nil, paymentdomain.ErrWebhookDisabled
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, a.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", paymentdomain.ErrInvalidSignature, err)
	}

	out := &paymentdomain.WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if event.Data == nil {
		return out, nil
	}

	switch {
	case strings.HasPrefix(out.Type, "checkout.session."):
		var session stripego.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("%w: %v", paymentdomain.ErrInvalidPayload, err)
		}
		out.Session = toSession(&session)
	case strings.HasPrefix(out.Type, "payment_intent."):
		var intent stripego.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return nil, fmt.Errorf("%w: %v", paymentdomain.ErrInvalidPayload, err)
		}
		out.Payment = toPaymentAttempt(&intent)
	}
	return out, nil
}

func toSession(s *stripego.CheckoutSession) *paymentdomain.Session {
	out := &paymentdomain.Session{
		ID:            s.ID,
		URL:           s.URL,
		Status:        string(s.Status),
		PaymentStatus: string(s.PaymentStatus),
		CustomerEmail: s.CustomerEmail,
		AmountTotal:   s.AmountTotal,
		Currency:      strings.ToUpper(string(s.Currency)),
		Metadata:      s.Metadata,
	}
	if s.CustomerDetails != nil {
		out.CustomerDetailsEmail = s.CustomerDetails.Email
		out.CustomerDetailsName = s.CustomerDetails.Name
		out.CustomerDetailsPhone = s.CustomerDetails.Phone
	}
	if s.LineItems != nil {
		for _, item := range s.LineItems.Data {
			out.LineItems = append(out.LineItems, toLineItem(item))
		}
	}
	return out
}

func toLineItem(item *stripego.LineItem) paymentdomain.SessionLineItem {
	out := paymentdomain.SessionLineItem{
		Description: item.Description,
		Quantity:    item.Quantity,
		AmountTotal: item.AmountTotal,
	}
	if item.Price != nil && item.Price.Product != nil {
		out.ProductName = item.Price.Product.Name
		out.ProductID = strings.TrimSpace(item.Price.Product.Metadata[productIDMetadataKey])
	}
	return out
}

func toPaymentAttempt(intent *stripego.PaymentIntent) *paymentdomain.PaymentAttempt {
	out := &paymentdomain.PaymentAttempt{
		ID:       intent.ID,
		Amount:   intent.Amount,
		Currency: strings.ToUpper(string(intent.Currency)),
		Metadata: intent.Metadata,
	}
	if out.Amount == 0 {
		out.Amount = intent.AmountReceived
	}
	out.Email = firstNonEmpty(intent.Metadata["buyer_email"], intent.ReceiptEmail)
	out.BuyerName = intent.Metadata["buyer_name"]
	if charge := intent.LatestCharge; charge != nil && charge.BillingDetails != nil {
		out.Email = firstNonEmpty(out.Email, charge.BillingDetails.Email)
		out.BuyerName = firstNonEmpty(out.BuyerName, charge.BillingDetails.Name)
	}
	return out
}

func providerError(err error) error {
	var stripeErr *stripego.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.HTTPStatusCode == http.StatusNotFound || stripeErr.Code == stripego.ErrorCodeResourceMissing {
			return fmt.Errorf("%w: %s", paymentdomain.ErrSessionNotFound, stripeErr.Msg)
		}
		return paymentdomain.NewProviderError(Provider, stripeErr.Msg, err)
	}
	return paymentdomain.NewProviderError(Provider, "", err)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if v := strings.TrimSpace(value); v != "" {
			return v
		}
	}
	return ""
}
