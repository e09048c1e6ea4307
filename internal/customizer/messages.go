package customizer

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// MessageType is the "type" tag of a cross-frame message
type MessageType string

const (
	TypeFrameReady            MessageType = "customizer-ready"
	TypeInit                  MessageType = "init"
	TypeCustomizationComplete MessageType = "customization-complete"
	TypeAddToCart             MessageType = "add-to-cart"
	TypeFrameError            MessageType = "error"
	TypeClose                 MessageType = "close"
	TypeCartResult            MessageType = "cart-result"
)

// Message is one variant of the cross-frame protocol
type Message interface {
	Type() MessageType
}

// FrameReady is sent by the embedded customizer once it can receive Init
type FrameReady struct {
	ProductID string `json:"productId,omitempty"`
	VariantID string `json:"variantId,omitempty"`
}

// Init tells the embedded customizer what to open
type Init struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId,omitempty"`
	Quantity  int    `json:"quantity"`
	Currency  string `json:"currency"`
	Locale    string `json:"locale"`
}

// CustomizationComplete reports a finished design before it is added to the cart
type CustomizationComplete struct {
	CustomizationID string `json:"customizationId,omitempty"`
	PreviewImage    string `json:"previewImage,omitempty"`
}

// AddToCart asks the host page to put the customized product in the cart.
// Price is nil when the frame sent no usable number.
type AddToCart struct {
	ProductID         string
	VariantID         string
	CustomizationID   string
	Quantity          int
	Price             *float64
	PreviewImage      string
	CustomizationData json.RawMessage
}

// FrameError is reported by the embedded customizer
type FrameError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Close asks the host page to close the customizer
type Close struct{}

// CartResult reports the outcome of AddToCart back into the frame
type CartResult struct {
	Success    bool   `json:"success"`
	CartItemID string `json:"cartItemId,omitempty"`
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (FrameReady) Type() MessageType            { return TypeFrameReady }
func (Init) Type() MessageType                  { return TypeInit }
func (CustomizationComplete) Type() MessageType { return TypeCustomizationComplete }
func (AddToCart) Type() MessageType             { return TypeAddToCart }
func (FrameError) Type() MessageType            { return TypeFrameError }
func (Close) Type() MessageType                 { return TypeClose }
func (CartResult) Type() MessageType            { return TypeCartResult }

// DecodeMessage parses an inbound message. ok is false for anything that is
// not a JSON object with a known type; such messages are to be ignored.
func DecodeMessage(data []byte) (Message, bool) {
	if !gjson.ValidBytes(data) {
		return nil, false
	}
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return nil, false
	}

	switch MessageType(res.Get("type").String()) {
	case TypeFrameReady:
		return FrameReady{
			ProductID: scalar(res.Get("productId")),
			VariantID: scalar(res.Get("variantId")),
		}, true
	case TypeInit:
		var m Init
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, false
		}
		return m, true
	case TypeCustomizationComplete:
		return CustomizationComplete{
			CustomizationID: scalar(res.Get("customizationId")),
			PreviewImage:    res.Get("previewImage").String(),
		}, true
	case TypeAddToCart:
		return decodeAddToCart(res), true
	case TypeFrameError:
		return FrameError{
			Message: res.Get("message").String(),
			Code:    scalar(res.Get("code")),
		}, true
	case TypeClose:
		return Close{}, true
	case TypeCartResult:
		var m CartResult
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, false
		}
		return m, true
	}
	return nil, false
}

func decodeAddToCart(res gjson.Result) AddToCart {
	m := AddToCart{
		ProductID:       scalar(res.Get("productId")),
		VariantID:       scalar(res.Get("variantId")),
		CustomizationID: scalar(res.Get("customizationId")),
		PreviewImage:    res.Get("previewImage").String(),
	}
	if q := res.Get("quantity"); q.Type == gjson.Number && q.Float() >= 1 {
		m.Quantity = int(q.Int())
	}
	if p, ok := finiteNumber(res.Get("price")); ok {
		m.Price = &p
	}
	if d := res.Get("customizationData"); d.Exists() && d.Type != gjson.Null {
		m.CustomizationData = json.RawMessage(d.Raw)
	}
	return m
}

// EncodeMessage serializes an outbound message with its type tag
func EncodeMessage(m Message) ([]byte, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("message %s is not an object: %w", m.Type(), err)
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}
	tag, _ := json.Marshal(m.Type())
	fields["type"] = tag
	return json.Marshal(fields)
}

// scalar returns strings as-is and numbers in their JSON form
func scalar(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Number:
		return v.Raw
	}
	return ""
}

func finiteNumber(v gjson.Result) (float64, bool) {
	var f float64
	switch v.Type {
	case gjson.Number:
		f = v.Float()
	case gjson.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	return f, true
}
