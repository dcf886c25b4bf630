package domain

import "strings"

type ProductType string

const (
	ProductTypeCourse    ProductType = "course"
	ProductTypeIndicator ProductType = "indicator"
	ProductTypeBot       ProductType = "bot"
	ProductTypePhysical  ProductType = "physical"
	ProductTypeOther     ProductType = "other"
)

type DeliveryType string

const (
	DeliveryDriveLink       DeliveryType = "drive_link"
	DeliveryInstructionPage DeliveryType = "instruction_page"
	DeliveryGeneratedAccess DeliveryType = "generated_access"
	DeliveryNone            DeliveryType = "none"
)

const DefaultCurrency = "USD"

// Product is one entry of the catalog document. JSON names are the wire format
// shared with the storefront and the admin UI.
type Product struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Type             ProductType  `json:"type,omitempty"`
	ShortDescription string       `json:"short_description,omitempty"`
	PriceCents       int64        `json:"price_cents"`
	Currency         string       `json:"currency,omitempty"`
	ImageURL         string       `json:"image_url,omitempty"`
	IsActive         *bool        `json:"is_active,omitempty"`
	IsFeatured       *bool        `json:"is_featured,omitempty"`
	DeliveryType     DeliveryType `json:"delivery_type,omitempty"`
	DeliveryValue    string       `json:"delivery_value,omitempty"`
	Instructions     string       `json:"instructions,omitempty"`
	PDFURL           string       `json:"pdf_url,omitempty"`
	EmailSubject     string       `json:"email_subject,omitempty"`
	EmailBody        string       `json:"email_body,omitempty"`
}

// Active reports whether the product is visible; records without the flag are.
func (p Product) Active() bool {
	return p.IsActive == nil || *p.IsActive
}

func (p Product) Featured() bool {
	return p.IsFeatured == nil || *p.IsFeatured
}

// GrantsAccess reports whether buying the product yields a digital access record.
func (p Product) GrantsAccess() bool {
	if p.Type == ProductTypePhysical {
		return false
	}
	return p.DeliveryType != DeliveryNone
}

func (t ProductType) Valid() bool {
	switch t {
	case ProductTypeCourse, ProductTypeIndicator, ProductTypeBot, ProductTypePhysical, ProductTypeOther:
		return true
	}
	return false
}

func (d DeliveryType) Valid() bool {
	switch d {
	case DeliveryDriveLink, DeliveryInstructionPage, DeliveryGeneratedAccess, DeliveryNone:
		return true
	}
	return false
}

// FindByID returns the index of the product with id, or -1.
func FindByID(products []Product, id string) int {
	id = strings.TrimSpace(id)
	for i := range products {
		if products[i].ID == id {
			return i
		}
	}
	return -1
}

// FindByName matches on exact name equality.
func FindByName(products []Product, name string) int {
	for i := range products {
		if products[i].Name == name {
			return i
		}
	}
	return -1
}

func BoolPtr(v bool) *bool { return &v }
