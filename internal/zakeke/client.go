package zakeke

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/joshnavoa/zakeke/internal/domain"
	"github.com/joshnavoa/zakeke/pkg/errors"
)

const maxErrorBody = 512

// Client calls the Zakeke REST API with the tenant secret as bearer token.
// Every call is attempted once.
type Client struct {
	baseURL    string
	apiKey     string
	tenantID   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a Zakeke HTTP client
func NewClient(baseURL, apiKey, tenantID string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		tenantID:   tenantID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// ProductInfo is the product shape the customizer asks for
type ProductInfo struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    float64         `json:"price"`
	Currency string          `json:"currency"`
	Image    string          `json:"image"`
	Variants json.RawMessage `json:"variants"`
}

// GetProductInfo fetches a product by id, optionally for one variant
func (c *Client) GetProductInfo(ctx context.Context, productID, variantID string) (*ProductInfo, error) {
	path := "/api/v2/products/" + url.PathEscape(productID)
	if variantID != "" {
		path += "?variantId=" + url.QueryEscape(variantID)
	}
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return ParseProductInfo(body, productID), nil
}

// ParseProductInfo reads a product payload; missing fields take the
// customizer defaults
func ParseProductInfo(body []byte, fallbackID string) *ProductInfo {
	res := gjson.ParseBytes(body)
	info := &ProductInfo{
		ID:       firstString(res, "id", "code"),
		Name:     firstString(res, "name"),
		Price:    numberOf(res.Get("price")),
		Currency: firstString(res, "currency"),
		Image:    firstString(res, "image", "thumbnail"),
		Variants: json.RawMessage("[]"),
	}
	if info.ID == "" {
		info.ID = fallbackID
	}
	if info.Name == "" {
		info.Name = "Product"
	}
	if info.Currency == "" {
		info.Currency = "USD"
	}
	if v := res.Get("variants"); v.IsArray() {
		info.Variants = json.RawMessage(v.Raw)
	}
	return info
}

// CartItemResult is the upstream answer to a cart item write
type CartItemResult struct {
	ID  string
	Raw json.RawMessage
}

type cartItemPayload struct {
	ProductID         string          `json:"productId,omitempty"`
	VariantID         string          `json:"variantId,omitempty"`
	Quantity          int             `json:"quantity"`
	Price             float64         `json:"price"`
	PreviewImage      string          `json:"previewImage,omitempty"`
	CustomizationData json.RawMessage `json:"customizationData,omitempty"`
}

// AddCartItem creates a cart item upstream
func (c *Client) AddCartItem(ctx context.Context, item *domain.CartItem) (*CartItemResult, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/v2/cart/items", cartItemPayload{
		ProductID:         item.ProductID,
		VariantID:         item.VariantID,
		Quantity:          item.Quantity,
		Price:             item.Price,
		PreviewImage:      item.PreviewImage,
		CustomizationData: item.CustomizationPayload,
	})
	if err != nil {
		return nil, err
	}
	return &CartItemResult{ID: firstString(gjson.ParseBytes(body), "id", "cartItemId"), Raw: body}, nil
}

// UpdateCartItem replaces quantity, price, preview and design of a cart item
func (c *Client) UpdateCartItem(ctx context.Context, cartItemID string, item *domain.CartItem) (*CartItemResult, error) {
	body, err := c.do(ctx, http.MethodPut, "/api/v2/cart/items/"+url.PathEscape(cartItemID), cartItemPayload{
		Quantity:          item.Quantity,
		Price:             item.Price,
		PreviewImage:      item.PreviewImage,
		CustomizationData: item.CustomizationPayload,
	})
	if err != nil {
		return nil, err
	}
	return &CartItemResult{ID: cartItemID, Raw: body}, nil
}

// ListCartItems returns the raw items of the upstream cart
func (c *Client) ListCartItems(ctx context.Context) ([]json.RawMessage, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v2/cart/items", nil)
	if err != nil {
		return nil, err
	}
	out := []json.RawMessage{}
	gjson.GetBytes(body, "items").ForEach(func(_, item gjson.Result) bool {
		out = append(out, json.RawMessage(item.Raw))
		return true
	})
	return out, nil
}

// CreateOrder submits an order and returns its id and number
func (c *Client) CreateOrder(ctx context.Context, order *domain.OrderRequest) (domain.OrderResult, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/v2/orders", order)
	if err != nil {
		return domain.OrderResult{}, err
	}
	res := gjson.ParseBytes(body)
	result := domain.OrderResult{
		OrderID:     firstString(res, "id", "orderId"),
		OrderNumber: firstString(res, "orderNumber", "number"),
	}
	if result.OrderID == "" {
		return domain.OrderResult{}, &errors.ErrUpstream{Status: http.StatusOK, Body: truncate(string(body)), Err: fmt.Errorf("order response has no id")}
	}
	return result, nil
}

// GetOrder returns the raw upstream order
func (c *Client) GetOrder(ctx context.Context, orderID string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/api/v2/orders/"+url.PathEscape(orderID), nil)
}

// ConfiguratorRequest identifies what the customizer should open
type ConfiguratorRequest struct {
	ProductID string  `json:"productId"`
	VariantID *string `json:"variantId"`
	Quantity  int     `json:"quantity"`
	TenantID  string  `json:"tenantId"`
}

// ConfiguratorURL asks the configurator API for a customizer URL. It returns
// "" without error when the answer carries no usable URL.
func (c *Client) ConfiguratorURL(ctx context.Context, productID, variantID string, quantity int) (string, error) {
	req := ConfiguratorRequest{ProductID: productID, Quantity: quantity, TenantID: c.tenantID}
	if variantID != "" {
		req.VariantID = &variantID
	}
	body, err := c.do(ctx, http.MethodPost, "/api/v2/configurator/url", req)
	if err != nil {
		return "", err
	}
	u := gjson.GetBytes(body, "url").String()
	if u == "" || strings.Contains(u, "wordpress") || strings.Contains(u, "translate.zakeke.com") {
		return "", nil
	}
	return u, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	if c.baseURL == "" || c.apiKey == "" {
		return nil, &errors.ErrUpstream{Err: fmt.Errorf("zakeke client not configured: base URL and API key required")}
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Zakeke request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, &errors.ErrUpstream{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errors.ErrUpstream{Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("Zakeke returned an error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		msg := gjson.GetBytes(body, "message").String()
		if msg == "" {
			msg = truncate(string(body))
		}
		return nil, &errors.ErrUpstream{Status: resp.StatusCode, Body: msg}
	}
	if !gjson.ValidBytes(body) {
		return nil, &errors.ErrUpstream{Status: resp.StatusCode, Body: truncate(string(body)), Err: fmt.Errorf("response is not JSON")}
	}
	return body, nil
}

func firstString(res gjson.Result, paths ...string) string {
	for _, p := range paths {
		v := res.Get(p)
		if !v.Exists() || v.Type == gjson.Null {
			continue
		}
		if s := strings.TrimSpace(v.String()); s != "" {
			return s
		}
	}
	return ""
}

// numberOf accepts a JSON number or numeric string, 0 otherwise
func numberOf(v gjson.Result) float64 {
	switch v.Type {
	case gjson.Number:
		return v.Float()
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f
		}
	}
	return 0
}

func truncate(s string) string {
	if len(s) > maxErrorBody {
		return s[:maxErrorBody]
	}
	return s
}
