package customizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ProductInfo is what the bootstrap keeps of the product being customized
type ProductInfo struct {
	ID       string
	Name     string
	Price    float64
	Currency string
}

// ProductSource fetches product info for the page's product
type ProductSource interface {
	ProductInfo(ctx context.Context, productID, variantID string) (ProductInfo, error)
}

// CartRequest is an add-to-cart forwarded to the cart relay
type CartRequest struct {
	CartID            string          `json:"cartId"`
	CustomizationID   string          `json:"customizationId,omitempty"`
	ProductID         string          `json:"productId"`
	VariantID         string          `json:"variantId,omitempty"`
	Quantity          int             `json:"quantity"`
	Price             float64         `json:"price"`
	PreviewImage      string          `json:"previewImage,omitempty"`
	CustomizationData json.RawMessage `json:"customizationData,omitempty"`
}

// CartRelay puts customized products in the cart
type CartRelay interface {
	AddToCart(ctx context.Context, req CartRequest) (cartItemID string, err error)
}

// HTTPBackend talks to this service's storefront and cart relay routes
type HTTPBackend struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPBackend creates a backend for the service at baseURL
func NewHTTPBackend(baseURL string) *HTTPBackend {
	return &HTTPBackend{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (b *HTTPBackend) ProductInfo(ctx context.Context, productID, variantID string) (ProductInfo, error) {
	u := b.baseURL + "/storefront/products/" + url.PathEscape(productID)
	if variantID != "" {
		u += "?variantId=" + url.QueryEscape(variantID)
	}
	body, err := b.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return ProductInfo{}, err
	}
	res := gjson.ParseBytes(body)
	info := ProductInfo{
		ID:       res.Get("id").String(),
		Name:     res.Get("name").String(),
		Currency: res.Get("currency").String(),
	}
	if p, ok := finiteNumber(res.Get("price")); ok {
		info.Price = p
	}
	if info.ID == "" {
		info.ID = productID
	}
	return info, nil
}

func (b *HTTPBackend) AddToCart(ctx context.Context, req CartRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	body, err := b.do(ctx, http.MethodPost, b.baseURL+"/api/zakeke/cart/items", payload)
	if err != nil {
		return "", err
	}
	return gjson.GetBytes(body, "item.customizationId").String(), nil
}

func (b *HTTPBackend) do(ctx context.Context, method, u string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := gjson.GetBytes(body, "error").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("%s %s: %d %s", method, u, resp.StatusCode, msg)
	}
	return body, nil
}
