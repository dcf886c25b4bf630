package domain

// LineItem is one cart line priced in integer cents.
type LineItem struct {
	ProductID  string
	Name       string
	UnitAmount int64
	Quantity   int64
}

type Buyer struct {
	Name     string
	Email    string
	WhatsApp string
}

// SessionRequest creates a hosted checkout session.
type SessionRequest struct {
	Items      []LineItem
	Currency   string
	Buyer      Buyer
	Metadata   map[string]string
	SuccessURL string
	CancelURL  string
}

// Session is the provider view of a checkout session.
type Session struct {
	ID                   string
	URL                  string
	Status               string
	PaymentStatus        string
	CustomerEmail        string
	CustomerDetailsEmail string
	CustomerDetailsName  string
	CustomerDetailsPhone string
	AmountTotal          int64
	Currency             string
	Metadata             map[string]string
	LineItems            []SessionLineItem
}

type SessionLineItem struct {
	Description string
	ProductID   string
	ProductName string
	Quantity    int64
	AmountTotal int64
}

const PaymentStatusPaid = "paid"

func (s Session) Paid() bool {
	return s.PaymentStatus == PaymentStatusPaid
}

// PreferenceRequest creates a Mercado Pago checkout preference.
type PreferenceRequest struct {
	Items      []LineItem
	Currency   string
	Buyer      Buyer
	Metadata   map[string]string
	SuccessURL string
	CancelURL  string
}

type Preference struct {
	ID        string
	InitPoint string
}

const (
	EventCheckoutCompleted          = "checkout.session.completed"
	EventCheckoutAsyncSucceeded     = "checkout.session.async_payment_succeeded"
	EventCheckoutAsyncFailed        = "checkout.session.async_payment_failed"
	EventCheckoutExpired            = "checkout.session.expired"
	EventPaymentIntentPaymentFailed = "payment_intent.payment_failed"
)

// WebhookEvent is a verified provider event. Session is set for checkout
// session events; Payment for payment intent events.
type WebhookEvent struct {
	ID      string
	Type    string
	Session *Session
	Payment *PaymentAttempt
}

// PaymentAttempt is what a failed payment intent tells about the buyer.
type PaymentAttempt struct {
	ID        string
	Amount    int64
	Currency  string
	Email     string
	BuyerName string
	Metadata  map[string]string
}
