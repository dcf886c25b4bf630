package mercadopago

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/mperror"
	"github.com/mercadopago/sdk-go/pkg/preference"
	"github.com/tsfshop/storefront/internal/config"
	paymentdomain "github.com/tsfshop/storefront/internal/payment/domain"
	"go.uber.org/zap"
)

const (
	Provider = "mercadopago"

	defaultCurrency = "ARS"
)

// Doer is the transport the SDK sends requests through.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	accessToken string
	currency    string
	preferences preference.Client
	log         *zap.Logger
}

func New(cfg config.Config, log *zap.Logger) (*Client, error) {
	return NewWithHTTPClient(cfg.MP, &http.Client{Timeout: cfg.OutboundTimeout}, log)
}

// NewWithHTTPClient builds the SDK client. A configured BaseURL redirects the
// SDK's fixed API host, which is how sandboxes and tests point it elsewhere.
func NewWithHTTPClient(cfg config.MercadoPagoConfig, httpClient Doer, log *zap.Logger) (*Client, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	currency := strings.ToUpper(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = defaultCurrency
	}

	c := &Client{
		accessToken: strings.TrimSpace(cfg.AccessToken),
		currency:    currency,
		log:         log.Named("payment.mercadopago"),
	}
	if c.accessToken == "" {
		return c, nil
	}

	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		target, err := url.Parse(base)
		if err != nil || target.Host == "" {
			return nil, fmt.Errorf("invalid mercado pago base url %q", cfg.BaseURL)
		}
		httpClient = &rebaseDoer{target: target, next: httpClient}
	}

	sdkCfg, err := mpconfig.New(c.accessToken, mpconfig.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("mercado pago config: %w", err)
	}
	c.preferences = preference.NewClient(sdkCfg)
	return c, nil
}

// CreatePreference converts cents to currency units; nothing else in the
// storefront works with fractional prices.
func (c *Client) CreatePreference(ctx context.Context, req paymentdomain.PreferenceRequest) (*paymentdomain.Preference, error) {
	if c.preferences == nil {
		return nil, paymentdomain.ErrProviderNotConfigured
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = c.currency
	}

	body := preference.Request{
		BackURLs: &preference.BackURLsRequest{
			Success: req.SuccessURL,
			Failure: req.CancelURL,
			Pending: req.CancelURL,
		},
	}
	if req.SuccessURL != "" {
		body.AutoReturn = "approved"
	}
	if len(req.Metadata) > 0 {
		body.Metadata = make(map[string]any, len(req.Metadata))
		for k, v := range req.Metadata {
			body.Metadata[k] = v
		}
	}
	if req.Buyer.Name != "" || req.Buyer.Email != "" {
		body.Payer = &preference.PayerRequest{Name: req.Buyer.Name, Email: req.Buyer.Email}
	}
	for _, item := range req.Items {
		quantity := item.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		body.Items = append(body.Items, preference.ItemRequest{
			ID:         item.ProductID,
			Title:      item.Name,
			Quantity:   int(quantity),
			CurrencyID: currency,
			UnitPrice:  float64(item.UnitAmount) / 100,
		})
	}

	pref, err := c.preferences.Create(ctx, body)
	if err != nil {
		return nil, providerError(err)
	}
	if pref.InitPoint == "" {
		return nil, paymentdomain.NewProviderError(Provider, "preference without init_point", nil)
	}

	c.log.Debug("preference created", zap.String("preference_id", pref.ID))
	return &paymentdomain.Preference{ID: pref.ID, InitPoint: pref.InitPoint}, nil
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// providerError pulls the API message out of the SDK's raw response body.
func providerError(err error) error {
	var respErr *mperror.ResponseError
	if !errors.As(err, &respErr) {
		return paymentdomain.NewProviderError(Provider, "", err)
	}
	var apiErr errorResponse
	_ = json.Unmarshal([]byte(respErr.Message), &apiErr)
	message := apiErr.Message
	if message == "" {
		message = apiErr.Error
	}
	return paymentdomain.NewProviderError(Provider, message, fmt.Errorf("status %d", respErr.StatusCode))
}

type rebaseDoer struct {
	target *url.URL
	next   Doer
}

func (d *rebaseDoer) Do(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = d.target.Scheme
	req.URL.Host = d.target.Host
	req.URL.Path = strings.TrimRight(d.target.Path, "/") + req.URL.Path
	req.Host = d.target.Host
	return d.next.Do(req)
}
