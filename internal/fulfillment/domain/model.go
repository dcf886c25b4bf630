package domain

import "time"

// AccessLink is what the buyer receives for one purchased digital product.
type AccessLink struct {
	Token         string `json:"token"`
	ProductID     string `json:"product_id"`
	ProductName   string `json:"product_name"`
	URL           string `json:"url"`
	DeliveryType  string `json:"delivery_type"`
	DeliveryValue string `json:"delivery_value"`
	Instructions  string `json:"instructions"`
	PDFURL        string `json:"pdf_url"`
}

// Marker records that a checkout session was fulfilled. Its presence is the
// idempotency guard; it is written once and never updated.
type Marker struct {
	SessionID     string       `json:"session_id"`
	Email         string       `json:"email"`
	AccessLinks   []AccessLink `json:"accessLinks"`
	CreatedAt     time.Time    `json:"created_at"`
	CorrelationID string       `json:"correlation_id,omitempty"`
}

type Result struct {
	OK          bool         `json:"ok"`
	Email       string       `json:"email"`
	AccessLinks []AccessLink `json:"accessLinks"`
}

func (m Marker) Result() *Result {
	links := m.AccessLinks
	if links == nil {
		links = []AccessLink{}
	}
	return &Result{OK: true, Email: m.Email, AccessLinks: links}
}

type Trigger string

const (
	TriggerClient  Trigger = "client"
	TriggerWebhook Trigger = "webhook"
)

// WebhookOutcome tells what a verified webhook event led to.
type WebhookOutcome struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Action    string `json:"action"`
}

const (
	ActionFulfilled   = "fulfilled"
	ActionPending     = "pending"
	ActionLeadCreated = "lead_created"
	ActionIgnored     = "ignored"
	ActionFailed      = "failed"
)
