package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/shopspring/decimal"

	"github.com/joshnavoa/zakeke/internal/domain"
)

const (
	defaultProductName = "Unnamed Product"
	defaultVariantName = "Default"
)

// Source column aliases per canonical field, in resolution order. Aliases
// are compared against snake_cased column names.
var (
	idAliases          = []string{"id", "product_id", "uuid", "code"}
	nameAliases        = []string{"name", "title", "product_name"}
	descriptionAliases = []string{"description", "desc", "details"}
	priceAliases       = []string{"price", "price_amount", "amount"}
	currencyAliases    = []string{"currency", "currency_code"}
	imageAliases       = []string{"image", "image_url", "main_image", "thumbnail", "photo"}
	skuAliases         = []string{"sku", "product_sku", "code"}
	stockAliases       = []string{"stock", "inventory", "quantity", "qty"}
)

// Normalizer maps raw rows of unknown shape to canonical products.
// It never fails: unexpected values degrade to the field default.
type Normalizer struct {
	defaultCurrency string
}

// NewNormalizer creates a normalizer; an empty currency falls back to USD
func NewNormalizer(defaultCurrency string) *Normalizer {
	if defaultCurrency == "" {
		defaultCurrency = "USD"
	}
	return &Normalizer{defaultCurrency: defaultCurrency}
}

// Normalize converts one source row. Customizable is always true here;
// the data source applies the customizable policy afterwards.
func (n *Normalizer) Normalize(row domain.Row) domain.CanonicalProduct {
	cols := indexColumns(row)
	return domain.CanonicalProduct{
		ID:           toID(cols.first(idAliases)),
		Name:         stringOr(cols.first(nameAliases), defaultProductName),
		Description:  stringOr(cols.first(descriptionAliases), ""),
		Price:        toPrice(cols.first(priceAliases)),
		Currency:     stringOr(cols.first(currencyAliases), n.defaultCurrency),
		Image:        stringOr(cols.first(imageAliases), ""),
		SKU:          stringOr(cols.first(skuAliases), ""),
		Stock:        toStock(cols.first(stockAliases)),
		Customizable: true,
	}
}

// NormalizeVariant converts one variant row with the same coercion rules
func (n *Normalizer) NormalizeVariant(row domain.Row) domain.ProductVariant {
	cols := indexColumns(row)
	return domain.ProductVariant{
		ID:    toID(cols.first([]string{"id", "variant_id", "uuid"})),
		Name:  stringOr(cols.first(nameAliases), defaultVariantName),
		Price: toPrice(cols.first(priceAliases)),
		SKU:   stringOr(cols.first(skuAliases), ""),
		Stock: toStock(cols.first(stockAliases)),
	}
}

type columns map[string]interface{}

// indexColumns keys the row by snake_cased column name. When two columns
// collapse to the same key the one already in snake_case wins.
func indexColumns(row domain.Row) columns {
	out := make(columns, len(row))
	exact := make(map[string]bool, len(row))
	for key, val := range row {
		snake := strcase.ToSnake(strings.TrimSpace(key))
		if snake == "" {
			continue
		}
		isExact := snake == key
		if _, seen := out[snake]; seen && (exact[snake] || !isExact) {
			continue
		}
		out[snake] = val
		exact[snake] = isExact
	}
	return out
}

// first returns the first alias holding a usable value
func (c columns) first(aliases []string) interface{} {
	for _, alias := range aliases {
		val, ok := c[alias]
		if !ok || val == nil {
			continue
		}
		if s, isStr := val.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		return val
	}
	return nil
}

func stringOr(val interface{}, def string) string {
	switch v := val.(type) {
	case nil:
		return def
	case string:
		return strings.TrimSpace(v)
	case []byte:
		if s := strings.TrimSpace(string(v)); s != "" {
			return s
		}
		return def
	case map[string]interface{}, []interface{}:
		return def
	default:
		return fmt.Sprint(v)
	}
}

// toID stringifies integer, UUID and numeric-string ids
func toID(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return toID(float64(v))
	case []byte:
		return strings.TrimSpace(string(v))
	default:
		return fmt.Sprint(v)
	}
}

// toPrice coerces to a non-negative finite number, 0 otherwise
func toPrice(val interface{}) float64 {
	d, ok := toDecimal(val)
	if !ok || d.IsNegative() {
		return 0
	}
	f := d.InexactFloat64()
	if math.IsInf(f, 0) {
		return 0
	}
	return f
}

// toStock returns nil unless the value is an integral number
func toStock(val interface{}) *int {
	d, ok := toDecimal(val)
	if !ok || !d.Equal(d.Truncate(0)) {
		return nil
	}
	n := int(d.IntPart())
	return &n
}

func toDecimal(val interface{}) (decimal.Decimal, bool) {
	switch v := val.(type) {
	case nil:
		return decimal.Zero, false
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(v), true
	case float32:
		return toDecimal(float64(v))
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int32:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case json.Number:
		return parseDecimal(v.String())
	case string:
		return parseDecimal(v)
	case []byte:
		return parseDecimal(string(v))
	}
	return decimal.Zero, false
}

func parseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
