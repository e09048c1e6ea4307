package customizer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveContext(t *testing.T) {
	tests := []struct {
		name   string
		page   fakePage
		want   Context
		origin Origin
		ok     bool
	}{
		{
			name:   "data attribute wins",
			page:   fakePage{attrs: map[string]string{ProductAttribute: " p1 ", VariantAttribute: "v1"}, params: url.Values{"productId": {"p2"}}},
			want:   Context{ProductID: "p1", VariantID: "v1", Quantity: 1},
			origin: OriginDataAttribute,
			ok:     true,
		},
		{
			name:   "url parameters",
			page:   fakePage{params: url.Values{"productId": {"p2"}, "variantId": {"v2"}, "quantity": {"4"}}},
			want:   Context{ProductID: "p2", VariantID: "v2", Quantity: 4},
			origin: OriginURL,
			ok:     true,
		},
		{
			name:   "bad quantity defaults to one",
			page:   fakePage{params: url.Values{"productid": {"p2"}, "quantity": {"-3"}}},
			want:   Context{ProductID: "p2", Quantity: 1},
			origin: OriginURL,
			ok:     true,
		},
		{
			name:   "cms global",
			page:   fakePage{cms: map[string]string{"productId": "p3", "variantId": "v3"}},
			want:   Context{ProductID: "p3", VariantID: "v3", Quantity: 1},
			origin: OriginCMS,
			ok:     true,
		},
		{
			name: "nothing on page",
			page: fakePage{attrs: map[string]string{ProductAttribute: "  "}, cms: map[string]string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, origin, ok := ResolveContext(tt.page)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.origin, origin)
		})
	}

	assert.True(t, OriginURL.DeepLink())
	assert.False(t, OriginDataAttribute.DeepLink())
}

func TestIframeURL(t *testing.T) {
	assert.Equal(t,
		"https://portal.zakeke.com/customizer?productid=p1&quantity=1&tenant=t1",
		IframeURL("https://portal.zakeke.com/", "t1", Context{ProductID: "p1"}))
	assert.Equal(t,
		"https://portal.zakeke.com/customizer?productid=p+1&quantity=2&tenant=t1&variantid=v1",
		IframeURL("https://portal.zakeke.com", "t1", Context{ProductID: "p 1", VariantID: "v1", Quantity: 2}))
}

func TestHTTPBackend(t *testing.T) {
	var cartBody CartRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/storefront/products/p1":
			assert.Equal(t, "v1", r.URL.Query().Get("variantId"))
			_, _ = w.Write([]byte(`{"id":"p1","name":"Mug","price":"9.5","currency":"EUR"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/zakeke/cart/items":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&cartBody))
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"success":true,"item":{"customizationId":"ci-9"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"Product not found"}`))
		}
	}))
	defer srv.Close()

	backend := NewHTTPBackend(srv.URL + "/")
	ctx := context.Background()

	info, err := backend.ProductInfo(ctx, "p1", "v1")
	require.NoError(t, err)
	assert.Equal(t, ProductInfo{ID: "p1", Name: "Mug", Price: 9.5, Currency: "EUR"}, info)

	_, err = backend.ProductInfo(ctx, "missing", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Product not found")

	id, err := backend.AddToCart(ctx, CartRequest{CartID: "c1", ProductID: "p1", Quantity: 1, Price: 9.5})
	require.NoError(t, err)
	assert.Equal(t, "ci-9", id)
	assert.Equal(t, "c1", cartBody.CartID)
	assert.Equal(t, 9.5, cartBody.Price)
}
