package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tsfshop/storefront/internal/checkout/domain"
	"github.com/tsfshop/storefront/internal/config"
	paymentdomain "github.com/tsfshop/storefront/internal/payment/domain"
	"go.uber.org/zap"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateSession(ctx context.Context, req paymentdomain.SessionRequest) (*paymentdomain.Session, error) {
	args := m.Called(ctx, req)
	if s, ok := args.Get(0).(*paymentdomain.Session); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) GetSession(ctx context.Context, id string) (*paymentdomain.Session, error) {
	args := m.Called(ctx, id)
	if s, ok := args.Get(0).(*paymentdomain.Session); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPreferences struct {
	mock.Mock
}

func (m *mockPreferences) CreatePreference(ctx context.Context, req paymentdomain.PreferenceRequest) (*paymentdomain.Preference, error) {
	args := m.Called(ctx, req)
	if p, ok := args.Get(0).(*paymentdomain.Preference); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func newTestService(gw *mockGateway, prefs *mockPreferences) domain.Service {
	p := Params{
		Log: zap.NewNop(),
		Config: config.Config{
			SuccessURL: "https://shop.example/checkout-success-stripe.html",
			CancelURL:  "https://shop.example/cart.html",
			Stripe:     config.StripeConfig{Currency: "usd"},
			MP:         config.MercadoPagoConfig{Currency: "ARS"},
		},
		Checkout: gw,
	}
	if prefs != nil {
		p.Preferences = prefs
	}
	return New(p)
}

func request(t *testing.T, raw string) domain.Request {
	t.Helper()
	var req domain.Request
	require.NoError(t, json.Unmarshal([]byte(raw), &req))
	return req
}

func TestCreateSession(t *testing.T) {
	gw := &mockGateway{}
	svc := newTestService(gw, nil)

	var captured paymentdomain.SessionRequest
	gw.On("CreateSession", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).(paymentdomain.SessionRequest) }).
		Return(&paymentdomain.Session{ID: "cs_1", URL: "https://checkout.stripe.com/cs_1"}, nil)

	res, err := svc.CreateSession(context.Background(), request(t, `{
		"items": [{"product_id":"p1","name":"Curso X","price_cents":4900},{"name":"Taza","price":1500,"quantity":2}],
		"buyerName": "Ana",
		"buyerEmail": "a@b.com",
		"buyerWhatsApp": "+54911"
	}`))
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/cs_1", res.URL)

	assert.Equal(t, []paymentdomain.LineItem{
		{ProductID: "p1", Name: "Curso X", UnitAmount: 4900, Quantity: 1},
		{Name: "Taza", UnitAmount: 1500, Quantity: 2},
	}, captured.Items)
	assert.Equal(t, "usd", captured.Currency)
	assert.Equal(t, "a@b.com", captured.Buyer.Email)
	assert.Equal(t, "https://shop.example/checkout-success-stripe.html?session_id={CHECKOUT_SESSION_ID}", captured.SuccessURL)
	assert.Equal(t, "https://shop.example/cart.html", captured.CancelURL)
	assert.Equal(t, "Ana", captured.Metadata["buyer_name"])
	assert.Equal(t, "a@b.com", captured.Metadata["buyer_email"])
	assert.Equal(t, "+54911", captured.Metadata["buyer_whatsapp"])

	var cart []domain.CartLine
	require.NoError(t, json.Unmarshal([]byte(captured.Metadata["cart"]), &cart))
	assert.Len(t, cart, 2)
	gw.AssertExpectations(t)
}

func TestCreateSessionKeepsCallerURLs(t *testing.T) {
	gw := &mockGateway{}
	svc := newTestService(gw, nil)

	gw.On("CreateSession", mock.Anything, mock.MatchedBy(func(req paymentdomain.SessionRequest) bool {
		return req.SuccessURL == "https://x.example/ok?lang=es&session_id={CHECKOUT_SESSION_ID}" &&
			req.CancelURL == "https://x.example/back"
	})).Return(&paymentdomain.Session{ID: "cs_2", URL: "u"}, nil)

	_, err := svc.CreateSession(context.Background(), request(t, `{
		"items": [{"name":"A","price":1}],
		"successUrl": "https://x.example/ok?lang=es",
		"cancelUrl": "https://x.example/back"
	}`))
	require.NoError(t, err)
	gw.AssertExpectations(t)
}

func TestCreateSessionValidation(t *testing.T) {
	gw := &mockGateway{}
	svc := newTestService(gw, nil)

	_, err := svc.CreateSession(context.Background(), request(t, `{"items":[]}`))
	assert.ErrorIs(t, err, domain.ErrEmptyCart)

	_, err = svc.CreateSession(context.Background(), request(t, `{}`))
	assert.ErrorIs(t, err, domain.ErrEmptyCart)

	_, err = svc.CreateSession(context.Background(), request(t, `{"items":[{"name":"A","price":-5}]}`))
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	gw.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything)
}

func TestCreateSessionProviderError(t *testing.T) {
	gw := &mockGateway{}
	svc := newTestService(gw, nil)
	providerErr := paymentdomain.NewProviderError("stripe", "Invalid API Key provided", nil)
	gw.On("CreateSession", mock.Anything, mock.Anything).Return(nil, providerErr)

	_, err := svc.CreateSession(context.Background(), request(t, `{"items":[{"name":"A","price":1}]}`))
	require.ErrorIs(t, err, paymentdomain.ErrProviderFailure)

	var pe *paymentdomain.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "Invalid API Key provided", pe.Message)
}

func TestCreatePreference(t *testing.T) {
	prefs := &mockPreferences{}
	svc := newTestService(&mockGateway{}, prefs)

	prefs.On("CreatePreference", mock.Anything, mock.MatchedBy(func(req paymentdomain.PreferenceRequest) bool {
		return req.Currency == "ARS" && len(req.Items) == 1 && req.Items[0].UnitAmount == 250000 && req.Items[0].Quantity == 2
	})).Return(&paymentdomain.Preference{ID: "pref_1", InitPoint: "https://mp.example/init"}, nil)

	res, err := svc.CreatePreference(context.Background(), request(t, `{"items":[{"name":"Curso X","price":250000,"qty":2}]}`))
	require.NoError(t, err)
	assert.Equal(t, "https://mp.example/init", res.URL)
	prefs.AssertExpectations(t)
}

func TestCreatePreferenceNotConfigured(t *testing.T) {
	svc := newTestService(&mockGateway{}, nil)
	_, err := svc.CreatePreference(context.Background(), request(t, `{"items":[{"name":"A","price":1}]}`))
	assert.ErrorIs(t, err, paymentdomain.ErrProviderNotConfigured)
}
