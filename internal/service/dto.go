package service

import (
	"encoding/json"

	"github.com/joshnavoa/zakeke/internal/domain"
)

// AddItemRequest is a customization to add to a cart. Price is nil when
// the customizer did not report one.
type AddItemRequest struct {
	CartID            string          `json:"cartId" binding:"required"`
	CustomizationID   string          `json:"customizationId"`
	ProductID         string          `json:"productId" binding:"required"`
	VariantID         string          `json:"variantId"`
	Quantity          int             `json:"quantity"`
	Price             *float64        `json:"price"`
	PreviewImage      string          `json:"previewImage"`
	CustomizationData json.RawMessage `json:"customizationData"`
}

// EditItemRequest holds the fields a customizer edit may change
type EditItemRequest struct {
	Quantity          *int            `json:"quantity"`
	Price             *float64        `json:"price"`
	PreviewImage      *string         `json:"previewImage"`
	CustomizationData json.RawMessage `json:"customizationData"`
}

// CheckoutRequest is the buyer-facing checkout payload. Items default to the
// stored cart when omitted.
type CheckoutRequest struct {
	CartID          string             `json:"cartId"`
	CustomerEmail   string             `json:"customerEmail"`
	CustomerName    string             `json:"customerName"`
	CustomerPhone   string             `json:"customerPhone"`
	ShippingAddress domain.Address     `json:"shippingAddress"`
	BillingAddress  *domain.Address    `json:"billingAddress"`
	Items           []domain.OrderLine `json:"items"`
	Currency        string             `json:"currency"`
	Notes           string             `json:"notes"`
}
