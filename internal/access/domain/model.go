package domain

import "time"

// Record is the immutable proof of one purchased digital product.
type Record struct {
	Token         string    `json:"token"`
	ProductID     string    `json:"product_id"`
	ProductName   string    `json:"product_name"`
	Email         string    `json:"email"`
	CreatedAt     time.Time `json:"created_at"`
	DeliveryType  string    `json:"delivery_type"`
	DeliveryValue string    `json:"delivery_value"`
	Instructions  string    `json:"instructions"`
	PDFURL        string    `json:"pdf_url"`

	SessionID  string `json:"session_id,omitempty"`
	PriceCents int64  `json:"price_cents,omitempty"`
	Currency   string `json:"currency,omitempty"`
}

// IssueRequest describes the product a new token grants access to.
type IssueRequest struct {
	ProductID     string
	ProductName   string
	Email         string
	DeliveryType  string
	DeliveryValue string
	Instructions  string
	PDFURL        string
	SessionID     string
	PriceCents    int64
	Currency      string
}
