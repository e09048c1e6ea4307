package zakeke

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshnavoa/zakeke/internal/domain"
	"github.com/joshnavoa/zakeke/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", "secret", "tenant-1", nil)
}

func TestGetProductInfo(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/v2/products/p 1", r.URL.Path)
		assert.Equal(t, "v9", r.URL.Query().Get("variantId"))
		w.Write([]byte(`{"code":"P1","price":"12.50","thumbnail":"https://img","variants":[{"id":"v9"}]}`))
	})

	info, err := c.GetProductInfo(context.Background(), "p 1", "v9")
	require.NoError(t, err)
	assert.Equal(t, "P1", info.ID)
	assert.Equal(t, "Product", info.Name)
	assert.Equal(t, 12.5, info.Price)
	assert.Equal(t, "USD", info.Currency)
	assert.Equal(t, "https://img", info.Image)
	assert.JSONEq(t, `[{"id":"v9"}]`, string(info.Variants))
}

func TestParseProductInfo_Defaults(t *testing.T) {
	info := ParseProductInfo([]byte(`{"price":"abc"}`), "fallback")
	assert.Equal(t, "fallback", info.ID)
	assert.Equal(t, 0.0, info.Price)
	assert.JSONEq(t, `[]`, string(info.Variants))
}

func TestDo_Errors(t *testing.T) {
	t.Run("non-2xx", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"message":"bad product"}`))
		})
		_, err := c.GetOrder(context.Background(), "o1")
		var upstream *errors.ErrUpstream
		require.ErrorAs(t, err, &upstream)
		assert.Equal(t, http.StatusBadRequest, upstream.Status)
		assert.Equal(t, "bad product", upstream.Body)
	})

	t.Run("non-JSON body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>login</html>`))
		})
		_, err := c.GetOrder(context.Background(), "o1")
		var upstream *errors.ErrUpstream
		require.ErrorAs(t, err, &upstream)
		assert.Equal(t, http.StatusOK, upstream.Status)
	})

	t.Run("not configured", func(t *testing.T) {
		c := NewClient("", "", "", nil)
		_, err := c.GetOrder(context.Background(), "o1")
		var upstream *errors.ErrUpstream
		assert.ErrorAs(t, err, &upstream)
	})
}

func TestAddCartItem(t *testing.T) {
	var got map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v2/cart/items", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Write([]byte(`{"id":"ci-1"}`))
	})

	res, err := c.AddCartItem(context.Background(), &domain.CartItem{
		ProductID:            "p1",
		Quantity:             2,
		Price:                9.5,
		CustomizationPayload: json.RawMessage(`{"design":"d1"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "ci-1", res.ID)
	assert.Equal(t, "p1", got["productId"])
	assert.Equal(t, 2.0, got["quantity"])
	assert.Equal(t, map[string]interface{}{"design": "d1"}, got["customizationData"])
	_, hasVariant := got["variantId"]
	assert.False(t, hasVariant)
}

func TestListCartItems(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[{"id":"a"},{"id":"b"}]}`))
	})
	items, err := c.ListCartItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.JSONEq(t, `{"id":"b"}`, string(items[1]))
}

func TestCreateOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/orders", r.URL.Path)
		w.Write([]byte(`{"id":123,"orderNumber":"Z-0001"}`))
	})
	res, err := c.CreateOrder(context.Background(), &domain.OrderRequest{Currency: "USD"})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderResult{OrderID: "123", OrderNumber: "Z-0001"}, res)

	empty := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	_, err = empty.CreateOrder(context.Background(), &domain.OrderRequest{})
	assert.Error(t, err)
}

func TestConfiguratorURL(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{"usable url", `{"url":"https://customizer.zakeke.com/x"}`, "https://customizer.zakeke.com/x"},
		{"wordpress url rejected", `{"url":"https://zakeke.com/wordpress/x"}`, ""},
		{"translate url rejected", `{"url":"https://translate.zakeke.com/x"}`, ""},
		{"no url", `{}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				var req map[string]interface{}
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "tenant-1", req["tenantId"])
				assert.Nil(t, req["variantId"])
				w.Write([]byte(tt.response))
			})
			got, err := c.ConfiguratorURL(context.Background(), "p1", "", 1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
