package domain

import (
	"encoding/json"
	"time"
)

// Row is one raw backing-store row. Column names and value types are not
// known ahead of time.
type Row map[string]interface{}

// CanonicalProduct is the normalized product served to Zakeke
type CanonicalProduct struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	Currency     string  `json:"currency"`
	Image        string  `json:"image"`
	SKU          string  `json:"sku"`
	Stock        *int    `json:"stock"`
	Customizable bool    `json:"customizable"`
}

// ProductVariant is one option of a product (size, color, ...)
type ProductVariant struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	SKU   string  `json:"sku"`
	Stock *int    `json:"stock"`
}

// PaginatedResult is one page of canonical products
type PaginatedResult struct {
	Items      []CanonicalProduct `json:"items"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"totalPages"`
}

// EmptyPage returns a page with no items for the given page/limit
func EmptyPage(page, limit int) PaginatedResult {
	return PaginatedResult{
		Items: []CanonicalProduct{},
		Page:  page,
		Limit: limit,
	}
}

// TotalPages returns ceil(total/limit), 0 when limit is not positive
func TotalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// CartItem is a customized product added to the cart from the customizer
type CartItem struct {
	CartID               string          `json:"cartId"`
	CustomizationID      string          `json:"customizationId"`
	ProductID            string          `json:"productId"`
	VariantID            string          `json:"variantId,omitempty"`
	Quantity             int             `json:"quantity"`
	Price                float64         `json:"price"`
	PreviewImage         string          `json:"previewImage,omitempty"`
	CustomizationPayload json.RawMessage `json:"customizationData,omitempty"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

// Customer is the buyer of a checkout
type Customer struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Address is a shipping or billing address
type Address struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
}

// OrderRequest is the payload forwarded to Zakeke on checkout
type OrderRequest struct {
	Customer        Customer    `json:"customer"`
	ShippingAddress Address     `json:"shippingAddress"`
	BillingAddress  Address     `json:"billingAddress"`
	Items           []OrderLine `json:"items"`
	Currency        string      `json:"currency"`
	Notes           string      `json:"notes"`
}

// OrderLine is one cart item as sent to the order API
type OrderLine struct {
	ProductID         string          `json:"productId"`
	VariantID         string          `json:"variantId,omitempty"`
	Quantity          int             `json:"quantity"`
	Price             float64         `json:"price"`
	CustomizationData json.RawMessage `json:"customizationData,omitempty"`
	PreviewImage      string          `json:"previewImage,omitempty"`
}

// OrderResult is what the order API returned for a created order
type OrderResult struct {
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
}
