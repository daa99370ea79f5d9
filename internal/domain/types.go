package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// ProductID is the canonical string form of a product identifier. The catalog
// dataset mixes numeric and string ids, so every comparison goes through this
// type rather than loose equality on the raw JSON value.
type ProductID string

// NormalizeProductID trims and canonicalises a raw identifier value.
func NormalizeProductID(raw string) ProductID {
	return ProductID(strings.TrimSpace(raw))
}

// UnmarshalJSON accepts both JSON numbers and JSON strings as identifiers.
func (id *ProductID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = NormalizeProductID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ProductID(n.String())
	return nil
}

// String returns the canonical string form.
func (id ProductID) String() string { return string(id) }

// Product is a read-only catalog entry supplied by the static dataset.
type Product struct {
	ID           ProductID     `json:"id"`
	Title        string        `json:"title"`
	Category     string        `json:"category"`
	Price        float64       `json:"price"`
	OfferPrice   float64       `json:"offerPrice,omitempty"`
	Rating       float64       `json:"rating,omitempty"`
	Image        string        `json:"image"`
	Testimonials []Testimonial `json:"testimonials,omitempty"`
}

// EffectivePrice returns the price a buyer pays right now: the offer price
// when one is present and lower than the regular price.
func (p Product) EffectivePrice() float64 {
	if p.OfferPrice > 0 && p.OfferPrice < p.Price {
		return p.OfferPrice
	}
	return p.Price
}

// Testimonial is a customer quote embedded in a product entry.
type Testimonial struct {
	Author string  `json:"author"`
	Rating float64 `json:"rating"`
	Text   string  `json:"text"`
}

// ProductTestimonial is a testimonial tagged with its source product, the
// shape produced when testimonials are aggregated across the catalog.
type ProductTestimonial struct {
	Testimonial
	ProductID    ProductID `json:"productId"`
	ProductTitle string    `json:"productTitle"`
	Category     string    `json:"category"`
}

// CartLineItem is one cart entry: a product plus the selected quantity. The
// display fields and unit price are denormalised copies captured at add time.
type CartLineItem struct {
	ProductID ProductID
	Title     string
	Image     string
	UnitPrice float64
	Quantity  int
}

// Subtotal is the line contribution to the cart total.
func (li CartLineItem) Subtotal() float64 {
	return li.UnitPrice * float64(li.Quantity)
}

// Notification is a short-lived UI message. It exists only for its display
// duration and is never persisted.
type Notification struct {
	ID        string
	Message   string
	CreatedAt time.Time
}

// User is the read-only profile exposed by the session provider.
type User struct {
	DisplayName string
}

// Session is the black-box authentication snapshot consumed by the UI.
type Session struct {
	Authenticated bool
	User          *User
}
