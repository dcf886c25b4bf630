package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ProductInput is an admin create/update payload. A nil field was not sent.
type ProductInput struct {
	ID               *string `json:"id"`
	Name             *string `json:"name"`
	Type             *string `json:"type"`
	ShortDescription *string `json:"short_description"`
	PriceCents       *Cents  `json:"price_cents"`
	Currency         *string `json:"currency"`
	ImageURL         *string `json:"image_url"`
	IsActive         *Flag   `json:"is_active"`
	IsFeatured       *Flag   `json:"is_featured"`
	DeliveryType     *string `json:"delivery_type"`
	DeliveryValue    *string `json:"delivery_value"`
	Instructions     *string `json:"instructions"`
	PDFURL           *string `json:"pdf_url"`
	EmailSubject     *string `json:"email_subject"`
	EmailBody        *string `json:"email_body"`
}

// Flag accepts true, "true", 1 and "1" (and their false counterparts).
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return ErrInvalidFlag
	}
	switch v := raw.(type) {
	case bool:
		*f = Flag(v)
		return nil
	case float64:
		switch v {
		case 1:
			*f = true
			return nil
		case 0:
			*f = false
			return nil
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1":
			*f = true
			return nil
		case "false", "0", "":
			*f = false
			return nil
		}
	}
	return ErrInvalidFlag
}

// Cents accepts a JSON integer or a numeric string.
type Cents int64

func (c *Cents) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return ErrInvalidPrice
	}
	var value float64
	switch v := raw.(type) {
	case float64:
		value = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return ErrInvalidPrice
		}
		value = parsed
	default:
		return ErrInvalidPrice
	}
	if value < 0 || value != math.Trunc(value) || value > math.MaxInt64/2 {
		return ErrInvalidPrice
	}
	*c = Cents(int64(value))
	return nil
}

func (c *Cents) Value() int64 {
	if c == nil {
		return 0
	}
	return int64(*c)
}

func (f *Flag) Bool(def bool) bool {
	if f == nil {
		return def
	}
	return bool(*f)
}

// Trimmed returns the trimmed value of an optional string field.
func Trimmed(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}
