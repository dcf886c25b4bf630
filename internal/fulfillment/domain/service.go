package domain

import (
	"context"
	"errors"
)

type Service interface {
	Reconcile(ctx context.Context, sessionID string, trigger Trigger) (*Result, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookOutcome, error)
	SendProductEmail(ctx context.Context, req ProductEmailRequest) error
}

// ProductEmailRequest asks for a product's access email to be (re)sent.
type ProductEmailRequest struct {
	Email     string `json:"email"`
	ProductID string `json:"product_id"`
	BuyerName string `json:"buyer_name"`
}

var (
	ErrInvalidSessionID    = errors.New("invalid_session_id")
	ErrPaymentNotCompleted = errors.New("payment_not_completed")
	ErrMissingBuyerEmail   = errors.New("missing_buyer_email")
	ErrInProgress          = errors.New("fulfillment_in_progress")
	ErrInvalidProductEmail = errors.New("invalid_product_email")
	ErrEmailDelivery       = errors.New("email_delivery_failed")
)
