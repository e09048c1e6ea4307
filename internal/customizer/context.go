package customizer

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	ProductAttribute = "data-zakeke-product-id"
	VariantAttribute = "data-zakeke-variant-id"
)

// Context is the product the customizer opens for
type Context struct {
	ProductID string
	VariantID string
	Quantity  int
}

// Origin records where the product context was found
type Origin string

const (
	OriginNone          Origin = ""
	OriginDataAttribute Origin = "data-attribute"
	OriginURL           Origin = "url"
	OriginCMS           Origin = "cms"
)

// DeepLink reports whether the page was opened with product parameters in
// its URL, which opens the customizer without a click
func (o Origin) DeepLink() bool {
	return o == OriginURL
}

// PageSource exposes the three places product context can live on a page
type PageSource interface {
	// DataAttribute returns the value of the first element carrying name
	DataAttribute(name string) (string, bool)
	URLParams() url.Values
	// CMSData returns the CMS-exposed product fields, nil when absent
	CMSData() map[string]string
}

// ResolveContext finds the product on the page: data attribute first, then
// URL parameters, then the CMS global. ok is false when none has a product id.
func ResolveContext(page PageSource) (Context, Origin, bool) {
	params := page.URLParams()
	quantity := 1
	if q, err := strconv.Atoi(firstParam(params, "quantity")); err == nil && q > 0 {
		quantity = q
	}

	if id, ok := page.DataAttribute(ProductAttribute); ok && strings.TrimSpace(id) != "" {
		variant, _ := page.DataAttribute(VariantAttribute)
		if variant == "" {
			variant = firstParam(params, "variantId", "variantid")
		}
		return Context{ProductID: strings.TrimSpace(id), VariantID: strings.TrimSpace(variant), Quantity: quantity}, OriginDataAttribute, true
	}

	if id := firstParam(params, "productId", "productid"); id != "" {
		return Context{ProductID: id, VariantID: firstParam(params, "variantId", "variantid"), Quantity: quantity}, OriginURL, true
	}

	if cms := page.CMSData(); cms != nil {
		if id := strings.TrimSpace(cms["productId"]); id != "" {
			return Context{ProductID: id, VariantID: strings.TrimSpace(cms["variantId"]), Quantity: quantity}, OriginCMS, true
		}
	}
	return Context{}, OriginNone, false
}

func firstParam(params url.Values, names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(params.Get(n)); v != "" {
			return v
		}
	}
	return ""
}

// IframeURL builds the portal customizer URL used when the configurator
// API gives no URL
func IframeURL(portalURL, tenantID string, c Context) string {
	q := url.Values{}
	q.Set("tenant", tenantID)
	q.Set("productid", c.ProductID)
	quantity := c.Quantity
	if quantity < 1 {
		quantity = 1
	}
	q.Set("quantity", strconv.Itoa(quantity))
	if c.VariantID != "" {
		q.Set("variantid", c.VariantID)
	}
	return strings.TrimSuffix(portalURL, "/") + "/customizer?" + q.Encode()
}
