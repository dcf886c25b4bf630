package domain

import (
	"encoding/json"
	"errors"
	"strings"
)

// Item is one cart line as the storefront posts it. Prices are integer cents.
type Item struct {
	ProductID  string       `json:"product_id,omitempty"`
	ID         string       `json:"id,omitempty"`
	Name       string       `json:"name"`
	Price      *json.Number `json:"price,omitempty"`
	PriceCents *json.Number `json:"price_cents,omitempty"`
	Quantity   *json.Number `json:"quantity,omitempty"`
	Qty        *json.Number `json:"qty,omitempty"`
}

type Request struct {
	Items         []Item `json:"items"`
	BuyerName     string `json:"buyerName"`
	BuyerEmail    string `json:"buyerEmail"`
	BuyerWhatsApp string `json:"buyerWhatsApp"`
	SuccessURL    string `json:"successUrl"`
	CancelURL     string `json:"cancelUrl"`
}

type Result struct {
	ID  string `json:"id,omitempty"`
	URL string `json:"url"`
}

// CartLine is the normalized copy of an item stored in session metadata.
type CartLine struct {
	ProductID  string `json:"product_id,omitempty"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Quantity   int64  `json:"quantity"`
}

var (
	ErrEmptyCart       = errors.New("invalid_request")
	ErrInvalidItemName = errors.New("invalid_item_name")
	ErrInvalidPrice    = errors.New("invalid_item_price")
	ErrInvalidQuantity = errors.New("invalid_item_quantity")
)

// Line validates the item and returns its normalized form.
func (i Item) Line() (CartLine, error) {
	name := strings.TrimSpace(i.Name)
	if name == "" {
		return CartLine{}, ErrInvalidItemName
	}

	raw := i.PriceCents
	if raw == nil {
		raw = i.Price
	}
	if raw == nil {
		return CartLine{}, ErrInvalidPrice
	}
	cents, err := raw.Int64()
	if err != nil || cents < 0 {
		return CartLine{}, ErrInvalidPrice
	}

	quantity := int64(1)
	q := i.Quantity
	if q == nil {
		q = i.Qty
	}
	if q != nil && q.String() != "" {
		quantity, err = q.Int64()
		if err != nil || quantity < 1 {
			return CartLine{}, ErrInvalidQuantity
		}
	}

	productID := strings.TrimSpace(i.ProductID)
	if productID == "" {
		productID = strings.TrimSpace(i.ID)
	}

	return CartLine{
		ProductID:  productID,
		Name:       name,
		PriceCents: cents,
		Quantity:   quantity,
	}, nil
}
