package domain

import (
	"context"
	"errors"
	"fmt"
)

// CheckoutGateway creates and reads hosted checkout sessions.
type CheckoutGateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
}

// WebhookVerifier authenticates a raw webhook body and decodes it.
type WebhookVerifier interface {
	Enabled() bool
	ConstructEvent(payload []byte, signature string) (*WebhookEvent, error)
}

type PreferenceGateway interface {
	CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error)
}

var (
	ErrProviderFailure       = errors.New("payment_provider_error")
	ErrProviderNotConfigured = errors.New("payment_provider_not_configured")
	ErrInvalidSignature      = errors.New("invalid_signature")
	ErrWebhookDisabled       = errors.New("webhook_disabled")
	ErrInvalidPayload        = errors.New("invalid_payload")
	ErrSessionNotFound       = errors.New("checkout_session_not_found")
)

// ProviderError carries the message the provider returned.
type ProviderError struct {
	Provider string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error { return ErrProviderFailure }

func NewProviderError(provider, message string, err error) error {
	if message == "" {
		message = "payment provider request failed"
	}
	return &ProviderError{Provider: provider, Message: message, Err: err}
}
